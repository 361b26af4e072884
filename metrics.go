// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics is a snapshot of queue statistics, see [Queue.Metrics].
//
// The counters and Pool are always populated. Latency and Pending are only
// tracked if the queue was created using WithMetrics(true).
//
// Example:
//
//	q, _ := eventqueue.New(eventqueue.WithMetrics(true))
//	_ = q.DispatchOnce()
//	m := q.Metrics()
//	fmt.Printf("P99: %v, pending: %d\n", m.Latency.P99, m.Pending.Current)
type Metrics struct {
	// Latency is the distribution of callback execution time.
	Latency LatencyMetrics

	// Pending is the number of scheduled (not running) events.
	Pending PendingMetrics

	// Pool is the state of the event pool.
	Pool PoolStats

	// Dispatched counts callbacks executed, including ones that panicked.
	Dispatched uint64
	// Cancelled counts successful cancellations.
	Cancelled uint64
	// Panics counts callbacks that panicked.
	Panics uint64
}

// LatencyMetrics summarises callback execution time. The percentiles are
// streaming estimates.
type LatencyMetrics struct {
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
	Mean  time.Duration
	Count int
}

// PendingMetrics tracks the depth of the scheduler.
type PendingMetrics struct {
	Current int
	Max     int
	// Avg is an exponential moving average, updated on every change.
	Avg float64
}

const pendingEMAAlpha = 0.1

// metrics is the mutable state behind [Metrics].
//
// Thread Safety: counters are atomic, latency has its own lock (callbacks
// run outside the queue's critical section), pending is only updated while
// holding the queue's critical section.
type metrics struct {
	mu      sync.Mutex
	latency *quantiles

	pending    PendingMetrics
	pendingSet bool

	dispatched atomic.Uint64
	cancelled  atomic.Uint64
	panics     atomic.Uint64

	enabled bool
}

func newMetrics(enabled bool) *metrics {
	m := &metrics{enabled: enabled}
	if enabled {
		m.latency = newQuantiles(0.50, 0.90, 0.99)
	}
	return m
}

func (m *metrics) recordLatency(d time.Duration) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	m.latency.observe(float64(d))
	m.mu.Unlock()
}

// recordPending must be called with the queue's critical section held.
func (m *metrics) recordPending(depth int) {
	if !m.enabled {
		return
	}
	p := &m.pending
	p.Current = depth
	if depth > p.Max {
		p.Max = depth
	}
	if !m.pendingSet {
		// warm start, the first sample seeds the average
		p.Avg = float64(depth)
		m.pendingSet = true
	} else {
		p.Avg = pendingEMAAlpha*float64(depth) + (1-pendingEMAAlpha)*p.Avg
	}
}

// snapshot must be called with the queue's critical section held, for
// pending.
func (m *metrics) snapshot() Metrics {
	s := Metrics{
		Dispatched: m.dispatched.Load(),
		Cancelled:  m.cancelled.Load(),
		Panics:     m.panics.Load(),
	}
	if !m.enabled {
		return s
	}
	s.Pending = m.pending
	m.mu.Lock()
	s.Latency = LatencyMetrics{
		P50:   time.Duration(m.latency.value(0)),
		P90:   time.Duration(m.latency.value(1)),
		P99:   time.Duration(m.latency.value(2)),
		Max:   time.Duration(m.latency.maximum()),
		Mean:  time.Duration(m.latency.mean()),
		Count: m.latency.count,
	}
	m.mu.Unlock()
	return s
}
