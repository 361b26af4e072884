// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"strconv"
	"unsafe"
)

// ID identifies a posted event, within the queue it was posted to. The zero
// value is never a valid ID, and is returned by operations that failed to
// schedule anything.
type ID uint64

// eventState is the lifecycle of a record. A record is in exactly one state.
//
//	stateFree → stateScheduled        [post]
//	stateScheduled → stateRunning     [dispatch pops it]
//	stateScheduled → stateFree        [cancel]
//	stateRunning → stateScheduled     [periodic, not cancelled]
//	stateRunning → stateFree          [one-shot, or cancelled while running]
type eventState uint8

const (
	stateFree eventState = iota
	stateScheduled
	stateRunning
)

// String returns a human-readable representation of the state.
func (s eventState) String() string {
	switch s {
	case stateFree:
		return "Free"
	case stateScheduled:
		return "Scheduled"
	case stateRunning:
		return "Running"
	default:
		return "Unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// ownership selects how a record's storage is released.
type ownership uint8

const (
	// ownerPool records occupy a block of the queue's pool, freed on release
	ownerPool ownership = iota
	// ownerUser records are embedded in a UserAllocatedEvent
	ownerUser
)

// event is the scheduling record shared by every kind of posted event. The
// scheduler is indifferent to the ownership of the record.
type event struct {
	cb Callback
	// dtor is invoked exactly once, when the record is released
	dtor func()

	id  ID
	seq uint64
	blk block

	// target is the absolute tick the record is due
	target uint32
	// period is negative for one-shot records
	period int32
	// index is the position in the scheduler heap, or -1
	index int

	state     eventState
	owner     ownership
	cancelled bool
}

// eventHeaderSize is charged against the pool for every record, in addition
// to the footprint of its callback.
const eventHeaderSize = int(unsafe.Sizeof(event{}))

func (e *event) periodic() bool {
	return e.period >= 0 && !e.cancelled
}

// reset prepares a (possibly recycled) record for posting.
func (e *event) reset(cb Callback, period int) {
	if period < 0 {
		period = -1
	}
	period = clampTicks(period)
	e.cb = cb
	e.id = 0
	e.seq = 0
	e.target = 0
	e.period = int32(period)
	e.index = -1
	e.state = stateFree
	e.cancelled = false
}
