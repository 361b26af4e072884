// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"math"
	"time"
)

// Ticks are milliseconds since the queue was created, truncated to 32 bits.
// They wrap after roughly 49.7 days, so every comparison goes through
// tickDiff, which is correct as long as the two ticks are less than 2^31 ms
// apart.

// Tick returns the queue's monotonic millisecond counter, which wraps at
// 2^32. It is derived from the configured clock, see [WithClock].
func (q *Queue) Tick() uint32 {
	return q.now()
}

func (q *Queue) now() uint32 {
	return uint32(q.clk.Since(q.epoch) / time.Millisecond)
}

// maxTicks is the longest representable delay or period, in ms. Anything
// longer would wrap past the half range tickDiff can order.
const maxTicks = math.MaxInt32

// clampTicks limits a delay or period to maxTicks.
func clampTicks(ms int) int {
	return min(ms, maxTicks)
}

// tickDiff returns a-b, interpreting the wrapped difference as signed.
func tickDiff(a, b uint32) int32 {
	return int32(a - b)
}

// clampDiff is tickDiff, clamped to zero.
func clampDiff(a, b uint32) int {
	if d := tickDiff(a, b); d > 0 {
		return int(d)
	}
	return 0
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
