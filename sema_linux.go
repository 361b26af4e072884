// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux

package eventqueue

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/benbjohnson/clock"
	"golang.org/x/sys/unix"
)

// eventfdSema is a sema backed by a non-blocking eventfd (Linux).
type eventfdSema struct {
	// mu guards fd against reuse after close, signal may race with it
	mu     sync.RWMutex
	closed bool
	fd     int
	// pfd is only used by the (single) waiter
	pfd [1]unix.PollFd
	buf [8]byte
}

func newPlatformSema(clock.Clock) (sema, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &eventfdSema{fd: fd}, nil
}

func (s *eventfdSema) signal() {
	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], 1)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	// EAGAIN means the counter is saturated, which is still a pending signal
	_, _ = unix.Write(s.fd, b[:])
}

func (s *eventfdSema) wait(ms int) bool {
	for {
		s.pfd[0] = unix.PollFd{Fd: int32(s.fd), Events: unix.POLLIN}
		n, err := unix.Poll(s.pfd[:], ms)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil || n <= 0 {
			return false
		}
		break
	}
	// drain, resetting the counter
	_, _ = unix.Read(s.fd, s.buf[:])
	return true
}

// close must not be called concurrently with wait.
func (s *eventfdSema) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return unix.Close(s.fd)
}
