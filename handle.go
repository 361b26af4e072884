// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"sync/atomic"
)

// handle is the reference counted state shared by [Event] and [EventWith].
// The template block reserves the handle's footprint in the pool, for as
// long as it is retained.
type handle struct {
	q      *Queue
	blk    block
	refs   atomic.Int32
	delay  atomic.Int32
	period atomic.Int32
	last   atomic.Uint64
}

func (h *handle) init(q *Queue, size int) error {
	q.mu.Lock()
	if q.closed.Load() {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	blk, ok := q.pool.allocate(size)
	if !ok {
		q.mu.Unlock()
		q.allocFailed(`make_event`, size)
		return ErrNoMemory
	}
	q.handles++
	q.mu.Unlock()

	h.q = q
	h.blk = blk
	h.refs.Store(1)
	h.period.Store(-1)
	return nil
}

// Delay sets the delay, in ms, applied to subsequent posts.
func (h *handle) Delay(ms int) {
	if ms < 0 {
		ms = 0
	}
	h.delay.Store(int32(clampTicks(ms)))
}

// Period sets the period, in ms, applied to subsequent posts. A negative
// period (the default) posts one-shot events.
func (h *handle) Period(ms int) {
	if ms < 0 {
		ms = -1
	}
	h.period.Store(int32(clampTicks(ms)))
}

// ID returns the ID of the most recent post, or 0.
func (h *handle) ID() ID {
	return ID(h.last.Load())
}

// Cancel cancels the most recent post, see [Queue.Cancel].
func (h *handle) Cancel() bool {
	id := h.ID()
	if id == 0 {
		return false
	}
	return h.q.Cancel(id)
}

// Retain increments the reference count. Retaining a released handle is
// fatal.
func (h *handle) Retain() {
	if h.refs.Add(1) <= 1 {
		h.refs.Add(-1)
		h.q.raiseFatal(`event_retain`, h.ID(), ErrReleased)
	}
}

// Release decrements the reference count. Releasing the last reference
// frees the handle's pool reservation, after which it may no longer be
// posted. Events already posted are unaffected.
func (h *handle) Release() {
	switch n := h.refs.Add(-1); {
	case n > 0:
		return
	case n < 0:
		h.refs.Add(1)
		h.q.raiseFatal(`event_release`, h.ID(), ErrReleased)
		return
	}

	q := h.q
	q.mu.Lock()
	q.pool.deallocate(h.blk)
	h.blk = block{}
	q.handles--
	q.mu.Unlock()
}

func (h *handle) post(cb Callback) ID {
	if h.refs.Load() <= 0 {
		return 0
	}
	id := h.q.call(`event_post`, int(h.delay.Load()), int(h.period.Load()), cb)
	if id != 0 {
		h.last.Store(uint64(id))
	}
	return id
}

// Event is a reusable, reference counted handle, that posts a fixed
// callback. Each post is an independent event, with its own [ID]. The
// handle's footprint is reserved in the queue's pool until the last
// reference is released, and the queue may not be closed until then.
type Event struct {
	handle
	cb Callback
}

// MakeEvent creates a handle posting cb to q, with a single reference.
// Fails with [ErrNoMemory] if the pool cannot hold the handle.
func MakeEvent(q *Queue, cb Callback) (*Event, error) {
	if q == nil || cb == nil {
		return nil, ErrInvalidOption
	}
	ev := &Event{cb: cb}
	if err := ev.init(q, Footprint(cb)); err != nil {
		return nil, err
	}
	return ev, nil
}

// Post schedules the callback, using the configured delay and period,
// returning 0 if the pool is exhausted or the handle was released.
func (ev *Event) Post() ID {
	return ev.post(ev.cb)
}

// EventWith is an [Event] whose callback takes an argument, supplied with
// each post.
type EventWith[P any] struct {
	handle
	fn func(P)
}

// MakeEventWith creates a handle posting fn to q. Bind any other arguments
// using a closure, the post argument is always passed last.
func MakeEventWith[P any](q *Queue, fn func(P)) (*EventWith[P], error) {
	if q == nil || fn == nil {
		return nil, ErrInvalidOption
	}
	ev := &EventWith[P]{fn: fn}
	if err := ev.init(q, Footprint(&posted[P]{fn: fn})); err != nil {
		return nil, err
	}
	return ev, nil
}

// Post schedules the callback with arg, see [Event.Post].
func (ev *EventWith[P]) Post(arg P) ID {
	return ev.post(&posted[P]{fn: ev.fn, arg: arg})
}
