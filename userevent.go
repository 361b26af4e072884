// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"sync/atomic"
)

// UserAllocatedEvent is an event whose record is owned by the caller, rather
// than the queue's pool. Posting one never fails for lack of memory, which
// makes it suitable for queues created with an arena size of zero.
//
// A UserAllocatedEvent may only be pending once at a time: it is "posted"
// from the moment it is scheduled, until it has run (one-shot), or until it
// is cancelled. While posted, [UserAllocatedEvent.TryCall] returns false,
// and [UserAllocatedEvent.Call] or [UserAllocatedEvent.Close] are fatal.
//
// The zero value must be initialised using [UserAllocatedEvent.Init].
type UserAllocatedEvent struct {
	_ [0]func() // Prevent copying

	rec    event
	q      atomic.Pointer[Queue]
	posted atomic.Bool
	delay  atomic.Int32
	period atomic.Int32
}

// MakeUserAllocatedEvent allocates and initialises a UserAllocatedEvent,
// see [UserAllocatedEvent.Init].
func MakeUserAllocatedEvent(q *Queue, cb Callback) *UserAllocatedEvent {
	u := new(UserAllocatedEvent)
	u.Init(q, cb)
	return u
}

// Init (re)initialises the event, to post cb to q, which may be nil if
// [UserAllocatedEvent.CallOn] will be used. Delay and period are reset.
// Initialising a posted event is fatal.
func (u *UserAllocatedEvent) Init(q *Queue, cb Callback) {
	if u.posted.Load() {
		u.fatal(`user_event_init`, ErrEventPosted)
		return
	}
	u.q.Store(q)
	u.delay.Store(0)
	u.period.Store(-1)
	u.rec = event{
		cb:    cb,
		dtor:  u.unpost,
		owner: ownerUser,
		index: -1,
	}
}

func (u *UserAllocatedEvent) unpost() {
	u.posted.Store(false)
}

// Delay sets the delay, in ms, applied to subsequent posts.
func (u *UserAllocatedEvent) Delay(ms int) {
	if ms < 0 {
		ms = 0
	}
	u.delay.Store(int32(clampTicks(ms)))
}

// Period sets the period, in ms, applied to subsequent posts. A negative
// period (the default) posts a one-shot event.
func (u *UserAllocatedEvent) Period(ms int) {
	if ms < 0 {
		ms = -1
	}
	u.period.Store(int32(clampTicks(ms)))
}

// TryCall posts the event to its queue, returning false without scheduling
// anything if it is already posted, or it cannot be posted.
func (u *UserAllocatedEvent) TryCall() bool {
	return u.TryCallOn(u.q.Load())
}

// TryCallOn is TryCall, rebinding the event to q.
func (u *UserAllocatedEvent) TryCallOn(q *Queue) bool {
	return u.post(q) == nil
}

// Call posts the event to its queue. Calling a posted event, or one without
// a queue, is fatal.
func (u *UserAllocatedEvent) Call() {
	u.CallOn(u.q.Load())
}

// CallOn is Call, rebinding the event to q.
func (u *UserAllocatedEvent) CallOn(q *Queue) {
	if err := u.post(q); err != nil {
		if q == nil {
			q = u.q.Load()
		}
		u.fatalOn(q, `user_event_call`, err)
	}
}

func (u *UserAllocatedEvent) post(q *Queue) error {
	if q == nil {
		return ErrNoQueue
	}
	if u.rec.cb == nil {
		return ErrInvalidOption
	}
	if !u.posted.CompareAndSwap(false, true) {
		return ErrEventPosted
	}
	u.q.Store(q)

	delay, period := int(u.delay.Load()), int(u.period.Load())

	q.mu.Lock()
	if q.closed.Load() {
		q.mu.Unlock()
		u.posted.Store(false)
		return ErrQueueClosed
	}
	u.rec.reset(u.rec.cb, period)
	wake := q.schedule(&u.rec, delay)
	q.mu.Unlock()

	if wake {
		q.sema.signal()
	}
	return nil
}

// ID returns the ID of the current (or most recent) post, or 0.
func (u *UserAllocatedEvent) ID() ID {
	q := u.q.Load()
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return u.rec.id
}

// Cancel cancels the pending post, see [Queue.Cancel]. The event may be
// posted again once Cancel returns true, or once a cancelled periodic event
// finishes running.
func (u *UserAllocatedEvent) Cancel() bool {
	q := u.q.Load()
	if q == nil || !u.posted.Load() {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.sched.lookup(u.rec.id) != &u.rec {
		return false
	}
	return q.cancel(&u.rec)
}

// Close checks that the event may be discarded. Closing a posted event is
// fatal, and returns [ErrEventPosted] if the fatal handler returns.
func (u *UserAllocatedEvent) Close() error {
	if u.posted.Load() {
		u.fatal(`user_event_close`, ErrEventPosted)
		return ErrEventPosted
	}
	return nil
}

func (u *UserAllocatedEvent) fatal(op string, cause error) {
	u.fatalOn(u.q.Load(), op, cause)
}

func (u *UserAllocatedEvent) fatalOn(q *Queue, op string, cause error) {
	var id ID
	if q != nil && cause == ErrEventPosted {
		id = u.ID()
	}
	q.raiseFatal(op, id, cause)
}
