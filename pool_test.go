// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockSize(t *testing.T) {
	for _, tc := range [...]struct {
		n, want int
	}{
		{0, minBlockSize},
		{1, minBlockSize},
		{32, 32},
		{33, 40},
		{40, 40},
		{41, 48},
		{100, 104},
	} {
		assert.Equal(t, tc.want, blockSize(tc.n), "blockSize(%d)", tc.n)
	}
}

func TestPool_sizeRoundedDown(t *testing.T) {
	assert.Equal(t, 96, newPool(100).stats().Size)
	assert.Equal(t, 0, newPool(7).stats().Size)
	assert.Equal(t, 0, newPool(-1).stats().Size)
}

func TestPool_zeroSize(t *testing.T) {
	p := newPool(0)
	_, ok := p.allocate(1)
	assert.False(t, ok)
	assert.Equal(t, PoolStats{Failures: 1}, p.stats())
}

func TestPool_exhaustion(t *testing.T) {
	p := newPool(96)

	a, ok := p.allocate(32)
	require.True(t, ok)
	b, ok := p.allocate(32)
	require.True(t, ok)
	c, ok := p.allocate(32)
	require.True(t, ok)

	before := p.stats()
	assert.Equal(t, 96, before.InUse)
	assert.Equal(t, 0, before.LargestFree)

	_, ok = p.allocate(1)
	assert.False(t, ok)

	after := p.stats()
	before.Failures++
	assert.Equal(t, before, after, "failed allocation must not change the pool")

	p.deallocate(b)
	p.deallocate(a)
	p.deallocate(c)

	s := p.stats()
	assert.Equal(t, 0, s.InUse)
	assert.Equal(t, 96, s.HighWater)
	assert.Equal(t, 1, s.FreeSpans)
	assert.Equal(t, 96, s.LargestFree)
}

func TestPool_coalesce(t *testing.T) {
	p := newPool(160)
	var blocks [5]block
	for i := range blocks {
		var ok bool
		blocks[i], ok = p.allocate(32)
		require.True(t, ok)
		assert.Equal(t, i*32, blocks[i].off)
	}

	// free 1 and 3, which cannot merge
	p.deallocate(blocks[1])
	p.deallocate(blocks[3])
	assert.Equal(t, 2, p.stats().FreeSpans)
	assert.Equal(t, 32, p.stats().LargestFree)

	// 2 bridges 1 and 3
	p.deallocate(blocks[2])
	assert.Equal(t, 1, p.stats().FreeSpans)
	assert.Equal(t, 96, p.stats().LargestFree)

	// merge with the next span
	p.deallocate(blocks[0])
	assert.Equal(t, []span{{off: 0, size: 128}}, p.free)

	// merge with the previous span
	p.deallocate(blocks[4])
	assert.Equal(t, []span{{off: 0, size: 160}}, p.free)
}

func TestPool_bestFit(t *testing.T) {
	p := newPool(256)
	a, _ := p.allocate(64)
	b, _ := p.allocate(32)
	c, _ := p.allocate(32)
	d, _ := p.allocate(32)
	_, _ = p.allocate(96)

	// holes: 64 at 0, 32 at 96
	p.deallocate(a)
	p.deallocate(c)
	_ = b
	_ = d

	got, ok := p.allocate(32)
	require.True(t, ok)
	assert.Equal(t, c.off, got.off, "should use the smallest hole that fits")

	got, ok = p.allocate(40)
	require.True(t, ok)
	assert.Equal(t, 0, got.off)
	assert.Equal(t, []span{{off: 40, size: 24}}, p.free)
}

func TestPool_churnNeverExceedsCapacity(t *testing.T) {
	const size = 1024
	p := newPool(size)
	capacity := cap(p.free)
	var live []block
	for i := 0; i < 2000; i++ {
		if n := (i * 7919) % 97; n%3 != 0 || len(live) == 0 {
			if b, ok := p.allocate(n); ok {
				live = append(live, b)
			}
		} else {
			j := (i * 31) % len(live)
			p.deallocate(live[j])
			live = append(live[:j], live[j+1:]...)
		}
		s := p.stats()
		require.LessOrEqual(t, s.InUse, size)
		require.Equal(t, capacity, cap(p.free))
	}
	for _, b := range live {
		p.deallocate(b)
	}
	assert.Equal(t, []span{{size: size}}, p.free)
}
