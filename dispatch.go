// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"time"
)

// Dispatch runs due callbacks, waiting for further deadlines, for up to ms
// milliseconds. If ms is negative, Dispatch runs until [Queue.BreakDispatch]
// or [Queue.Close]. If ms is zero, it runs only what is already due, and
// returns without blocking.
//
// Each pass runs the events that were due, and posted, before the pass
// started. Events posted by callbacks (including a period 0 event's next
// run) wait for the next pass, so DispatchOnce always returns.
//
// Callback panics are recovered, and logged. Dispatch returns
// [ErrReentrantDispatch] if the queue is already being dispatched, or
// [ErrQueueClosed] if it has been closed, otherwise nil.
func (q *Queue) Dispatch(ms int) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	if !q.dispatching.CompareAndSwap(false, true) {
		return ErrReentrantDispatch
	}
	defer q.endDispatch()

	q.mu.Lock()
	q.bgActive = false
	start := q.now()
	q.mu.Unlock()

	for {
		if !q.runPass() {
			return nil
		}

		q.mu.Lock()
		now := q.now()
		wait := q.deadline()
		q.mu.Unlock()

		if ms >= 0 {
			left := ms - clampDiff(now, start)
			if left <= 0 {
				return nil
			}
			if wait < 0 || wait > left {
				wait = left
			}
		}

		if wait != 0 {
			q.sema.wait(wait)
		}

		if q.breakRequested.CompareAndSwap(true, false) || q.closed.Load() {
			return nil
		}
	}
}

// DispatchForever is Dispatch(-1).
func (q *Queue) DispatchForever() error {
	return q.Dispatch(-1)
}

// DispatchOnce is Dispatch(0).
func (q *Queue) DispatchOnce() error {
	return q.Dispatch(0)
}

// BreakDispatch causes the current (or, if none, the next) call to
// Dispatch to return, after the running callback, if any. It may be called
// from any goroutine, including from within a callback.
func (q *Queue) BreakDispatch() {
	q.breakRequested.Store(true)
	q.sema.signal()
}

// runPass runs every event that is due, as of the start of the pass,
// returning false if the dispatch should stop.
func (q *Queue) runPass() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	fence := q.sched.seq + 1

	for {
		if q.breakRequested.CompareAndSwap(true, false) || q.closed.Load() {
			return false
		}

		e := q.sched.popDue(now, fence)
		if e == nil {
			return true
		}
		q.metrics.recordPending(q.sched.pending())

		q.mu.Unlock()
		q.execute(e)
		q.mu.Lock()

		q.finish(e)
	}
}

// execute runs a popped (running) record's callback, outside the critical
// section.
func (q *Queue) execute(e *event) {
	q.metrics.dispatched.Add(1)

	var start time.Time
	if q.metrics.enabled {
		start = q.clk.Now()
	}

	defer func() {
		if r := recover(); r != nil {
			q.callbackPanicked(&PanicError{Value: r, ID: e.id})
		}
		if q.metrics.enabled {
			q.metrics.recordLatency(q.clk.Since(start))
		}
	}()

	e.cb.invoke()
}

// finish reschedules or releases a record after it ran. Must be called with
// the critical section held.
func (q *Queue) finish(e *event) {
	if e.periodic() && !q.closed.Load() {
		// relative to the previous deadline, unless that would be in the past
		now := q.now()
		next := e.target + uint32(e.period)
		e.target = now + uint32(clampDiff(next, now))
		q.sched.insert(e)
		q.metrics.recordPending(q.sched.pending())
		return
	}
	q.release(e)
}

func (q *Queue) endDispatch() {
	q.mu.Lock()
	q.bgActive = true
	q.notifyBackground()
	q.mu.Unlock()

	q.dispatching.Store(false)
	if q.closed.Load() && q.dispatching.CompareAndSwap(false, true) {
		q.closeSema()
	}
}
