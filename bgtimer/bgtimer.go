// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package bgtimer drives an [eventqueue.Queue] from a single one-shot timer,
// using [eventqueue.Queue.Background], so that no goroutine needs to block
// in Dispatch while the queue is idle.
package bgtimer

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	eventqueue "github.com/joeycumines/go-eventqueue"
	"github.com/joeycumines/logiface"
)

type (
	// Driver runs Dispatch(0) on a queue, each time its earliest deadline
	// elapses. There is at most one armed timer per Driver.
	Driver struct {
		q      *eventqueue.Queue
		clk    clock.Clock
		logger *logiface.Logger[logiface.Event]
		timer  *clock.Timer
		fires  atomic.Uint64
		mu     sync.Mutex
		// gen invalidates timers that fired after being replaced
		gen      uint64
		detached bool
	}

	// Option configures a Driver.
	Option func(*Driver)
)

// WithClock sets the clock used to arm the timer. It should be the clock
// the queue was configured with. Defaults to the wall clock.
func WithClock(clk clock.Clock) Option {
	return func(d *Driver) {
		d.clk = clk
	}
}

// WithLogger sets the logger, used to report failed dispatches.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// Attach installs a Driver as the background hook of q, replacing any
// existing hook or chain.
func Attach(q *eventqueue.Queue, opts ...Option) *Driver {
	d := &Driver{q: q}
	for _, opt := range opts {
		opt(d)
	}
	if d.clk == nil {
		d.clk = clock.New()
	}
	q.Background(d.update)
	return d
}

// Detach removes the Driver from its queue, stopping any armed timer.
// The Driver may not be reattached.
func (d *Driver) Detach() {
	d.mu.Lock()
	d.detached = true
	d.mu.Unlock()
	d.q.Background(nil)
}

// Fires returns the number of times the timer has fired.
func (d *Driver) Fires() uint64 {
	return d.fires.Load()
}

// Armed returns true if a timer is currently pending.
func (d *Driver) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// update is called by the queue, with its critical section held.
func (d *Driver) update(ms int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++

	if ms < 0 || d.detached {
		return
	}

	gen := d.gen
	d.timer = d.clk.AfterFunc(time.Duration(ms)*time.Millisecond, func() { d.fire(gen) })
}

func (d *Driver) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.detached {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fires.Add(1)

	// the end of the dispatch re-arms the timer, via update
	switch err := d.q.Dispatch(0); {
	case err == nil, errors.Is(err, eventqueue.ErrQueueClosed):
	case errors.Is(err, eventqueue.ErrReentrantDispatch):
		// the active dispatch will report the next deadline when it ends
	default:
		d.logger.Err().
			Err(err).
			Log(`bgtimer: dispatch failed`)
	}
}
