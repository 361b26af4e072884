// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package eventqueue implements a bounded, deferred callback queue: producers
// on any goroutine post work (a callback plus bound arguments, optionally
// delayed and/or periodic), which is run by a single cooperative dispatcher.
//
// # Memory
//
// Each [Queue] has a fixed capacity event pool. Every pending event is
// charged its [Footprint] (a record header, plus the bound arguments) at
// post time, and the charge is returned when the event completes or is
// cancelled. Posting never blocks: when the pool is exhausted, posting
// returns an [ID] of 0, and the queue is left unchanged.
//
// Callbacks are values of the sealed [Callback] interface, created using
// [Func] or [Bind1] through [Bind5]. Reusable handles ([Event],
// [EventWith]) reserve their footprint for as long as they are retained.
// A [UserAllocatedEvent] is owned by the caller, and is never charged to the
// pool.
//
// # Dispatch
//
// Events run in deadline order, with events due at the same instant run in
// the order they were scheduled. Periodic events are rescheduled relative to
// their previous deadline. Time is a wrapping 32-bit millisecond tick, see
// [Queue.Tick], derived from a [github.com/benbjohnson/clock.Clock].
//
// [Queue.Dispatch] may be run by a dedicated goroutine, or driven by an
// external timer using [Queue.Background] (see package bgtimer), or by
// another queue, using [Queue.Chain].
//
// # Thread Safety
//
// All methods are safe for concurrent use. State is guarded by a mutex per
// queue, held only for scheduler and pool updates, never while a callback
// runs. Only one goroutine dispatches a queue at a time.
package eventqueue
