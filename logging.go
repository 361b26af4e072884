// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"time"
)

// allocFailureCategory is the go-catrate category for pool exhaustion.
type allocFailureCategory struct{}

func defaultAllocLogRate() map[time.Duration]int {
	return map[time.Duration]int{
		time.Second: 4,
		time.Minute: 30,
	}
}

// allocFailed reports pool exhaustion. It does not acquire the critical
// section.
func (q *Queue) allocFailed(op string, size int) {
	if q.logger == nil || !q.logAllocFailures {
		return
	}
	if _, ok := q.allocLimiter.Allow(allocFailureCategory{}); !ok {
		return
	}
	q.logger.Warning().
		Err(ErrNoMemory).
		Str(`op`, op).
		Int(`size`, size).
		Uint64(`queue`, q.id).
		Log(`eventqueue: allocation failed`)
}

func (q *Queue) callbackPanicked(err *PanicError) {
	q.metrics.panics.Add(1)
	q.logger.Err().
		Err(err).
		Uint64(`id`, uint64(err.ID)).
		Uint64(`queue`, q.id).
		Log(`eventqueue: callback panicked`)
}

// raiseFatal passes a FatalError to the configured handler. Must not be
// called while holding the queue's critical section.
func (q *Queue) raiseFatal(op string, id ID, cause error) {
	err := &FatalError{Cause: cause, Op: op, ID: id}
	if q == nil {
		panic(err)
	}
	if q.fatal != nil {
		q.fatal(err)
		return
	}
	q.logger.Crit().
		Err(err).
		Uint64(`queue`, q.id).
		Log(`eventqueue: fatal misuse`)
	panic(err)
}
