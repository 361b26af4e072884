// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"sync"
)

// Shared is a lazily constructed queue, for state shared by independent
// components (e.g. a package level variable), that should only exist if it
// is used.
//
// Example:
//
//	var highPriority = eventqueue.NewShared(true, eventqueue.WithArenaSize(1024))
//
//	func post(cb eventqueue.Callback) eventqueue.ID {
//		q, err := highPriority.Queue()
//		if err != nil {
//			return 0
//		}
//		return q.Call(cb)
//	}
type Shared struct {
	opts     []Option
	q        *Queue
	err      error
	done     chan struct{}
	once     sync.Once
	dispatch bool
}

// NewShared prepares a Shared queue, which will be created, using opts, on
// the first call to [Shared.Queue]. If dispatch is true, a goroutine will
// run DispatchForever on it, until it is closed.
func NewShared(dispatch bool, opts ...Option) *Shared {
	return &Shared{
		opts:     opts,
		dispatch: dispatch,
		done:     make(chan struct{}),
	}
}

// Queue returns the shared queue, creating it on first use. Construction
// errors are sticky.
func (s *Shared) Queue() (*Queue, error) {
	s.once.Do(s.init)
	return s.q, s.err
}

func (s *Shared) init() {
	s.q, s.err = New(s.opts...)
	if s.err != nil || !s.dispatch {
		close(s.done)
		return
	}
	go func() {
		defer close(s.done)
		if err := s.q.DispatchForever(); err != nil && err != ErrQueueClosed {
			s.q.logger.Err().
				Err(err).
				Uint64(`queue`, s.q.id).
				Log(`eventqueue: shared dispatch failed`)
		}
	}()
}

// Close closes the shared queue, if it was created, waiting for the
// dispatch goroutine (if any) to exit. The Shared may not be used after it
// is closed.
func (s *Shared) Close() error {
	s.once.Do(func() { close(s.done) })
	if s.q == nil {
		return nil
	}
	if err := s.q.Close(); err != nil {
		return err
	}
	<-s.done
	return nil
}
