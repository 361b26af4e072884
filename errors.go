// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrNoMemory is returned when the event pool cannot satisfy an
	// allocation. Operations returning an [ID] report the same condition as
	// an ID of 0.
	ErrNoMemory = errors.New("eventqueue: event pool exhausted")

	// ErrReentrantDispatch is returned by [Queue.Dispatch] when the queue is
	// already being dispatched, either by the calling callback or by another
	// goroutine.
	ErrReentrantDispatch = errors.New("eventqueue: queue is already dispatching")

	// ErrQueueClosed is returned when operations are attempted on a closed
	// queue.
	ErrQueueClosed = errors.New("eventqueue: queue has been closed")

	// ErrHandlesOutstanding is returned by [Queue.Close] while pool-backed
	// event handles are still retained.
	ErrHandlesOutstanding = errors.New("eventqueue: event handles still retained")

	// ErrChainCycle is returned by [Queue.Chain] if the requested target
	// would (transitively) chain back to the queue itself.
	ErrChainCycle = errors.New("eventqueue: chain would form a cycle")

	// ErrEventPosted is the cause of the fatal error raised when a
	// [UserAllocatedEvent] is posted or destroyed while already posted.
	ErrEventPosted = errors.New("eventqueue: user allocated event is already posted")

	// ErrNoQueue is the cause of the fatal error raised when a
	// [UserAllocatedEvent] is posted without a target queue.
	ErrNoQueue = errors.New("eventqueue: user allocated event has no queue")

	// ErrReleased is the cause of the fatal error raised when an [Event]
	// handle is retained or released after its last reference was released.
	ErrReleased = errors.New("eventqueue: event handle already released")

	// ErrInvalidOption is returned by [New] for out of range option values,
	// and by the handle constructors for nil arguments.
	ErrInvalidOption = errors.New("eventqueue: invalid option")
)

// FatalError reports misuse that would otherwise corrupt scheduler state,
// e.g. destroying a [UserAllocatedEvent] that is still scheduled.
//
// FatalError values are passed to the queue's fatal handler, see
// [WithFatalHandler]. The default handler logs, then panics with the
// FatalError.
type FatalError struct {
	Cause error
	Op    string
	ID    ID
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("eventqueue: fatal: %s (id %d): %v", e.Op, e.ID, e.Cause)
	}
	return fmt.Sprintf("eventqueue: fatal: %s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *FatalError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a value recovered from a panicking callback. Callback
// panics never escape [Queue.Dispatch], they are logged using this type.
type PanicError struct {
	Value any
	ID    ID
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("eventqueue: callback (id %d) panicked: %v", e.ID, e.Value)
}

// Unwrap returns the panic value if it is an error, or nil.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
