// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"github.com/benbjohnson/clock"
)

// sema wakes the dispatch loop. Signals coalesce: any number of signals
// before a wait cause at most one early return.
type sema interface {
	signal()
	// wait blocks until signalled or ms elapse, where ms < 0 waits
	// indefinitely, returning true if it was signalled.
	wait(ms int) bool
	close() error
}

// newSema selects the platform wake primitive, unless the clock is a mock,
// in which case timeouts must follow the mock.
func newSema(clk clock.Clock) (sema, error) {
	if _, ok := clk.(*clock.Mock); ok {
		return newClockSema(clk), nil
	}
	return newPlatformSema(clk)
}

// clockSema is a channel based sema, timed using a clock.Clock.
type clockSema struct {
	clk clock.Clock
	ch  chan struct{}
}

func newClockSema(clk clock.Clock) *clockSema {
	return &clockSema{
		clk: clk,
		ch:  make(chan struct{}, 1),
	}
}

func (s *clockSema) signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *clockSema) wait(ms int) bool {
	switch {
	case ms < 0:
		<-s.ch
		return true
	case ms == 0:
		select {
		case <-s.ch:
			return true
		default:
			return false
		}
	}

	t := s.clk.Timer(msDuration(ms))
	defer t.Stop()

	select {
	case <-s.ch:
		return true
	case <-t.C:
		return false
	}
}

func (s *clockSema) close() error {
	return nil
}
