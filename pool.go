// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"sort"
)

const (
	// blockAlign is the granularity of every pool allocation.
	blockAlign = 8

	// minBlockSize bounds fragmentation, and therefore the number of free
	// spans the pool may ever need to track.
	minBlockSize = 32
)

// block is a region of the arena, owned by exactly one record (or handle
// template) between allocate and deallocate. The zero value is "no block".
type block struct {
	off  int
	size int
}

// span is a free region of the arena.
type span struct {
	off  int
	size int
}

// pool is a fixed capacity arena allocator. It never stores Go values in the
// arena: the arena is an address space, which bounds how much memory may be
// attached to scheduled events at any one time.
//
// Thread Safety: NOT thread-safe, every method must be called while holding
// the owning queue's critical section.
type pool struct {
	// free is sorted by offset, and never contains adjacent spans
	free      []span
	size      int
	inUse     int
	highWater int
	failures  uint64
}

// PoolStats is a snapshot of an event pool.
type PoolStats struct {
	// Size is the arena capacity in bytes.
	Size int
	// InUse is the number of bytes currently allocated.
	InUse int
	// HighWater is the maximum InUse observed.
	HighWater int
	// FreeSpans is the number of discontiguous free regions.
	FreeSpans int
	// LargestFree is the largest allocation that would currently succeed.
	LargestFree int
	// Failures counts allocations that could not be satisfied.
	Failures uint64
}

func newPool(size int) *pool {
	size -= size % blockAlign
	if size < 0 {
		size = 0
	}
	p := &pool{size: size}
	// preallocated, so deallocate never grows the slice
	p.free = make([]span, 0, size/(minBlockSize+blockAlign)+2)
	if size > 0 {
		p.free = append(p.free, span{size: size})
	}
	return p
}

func blockSize(n int) int {
	if n < minBlockSize {
		return minBlockSize
	}
	return (n + blockAlign - 1) &^ (blockAlign - 1)
}

// allocate carves a block of at least n bytes from the smallest free span
// that fits. On failure the pool is unchanged, apart from the failure count.
func (p *pool) allocate(n int) (block, bool) {
	n = blockSize(n)

	best := -1
	for i := range p.free {
		if s := p.free[i].size; s >= n && (best < 0 || s < p.free[best].size) {
			best = i
			if s == n {
				break
			}
		}
	}
	if best < 0 {
		p.failures++
		return block{}, false
	}

	s := p.free[best]
	b := block{off: s.off, size: n}
	if s.size == n {
		p.free = append(p.free[:best], p.free[best+1:]...)
	} else {
		p.free[best] = span{off: s.off + n, size: s.size - n}
	}

	p.inUse += n
	if p.inUse > p.highWater {
		p.highWater = p.inUse
	}
	return b, true
}

// deallocate returns b to the arena, merging it with any free neighbours.
func (p *pool) deallocate(b block) {
	if b.size == 0 {
		return
	}

	i := sort.Search(len(p.free), func(i int) bool { return p.free[i].off > b.off })
	prev := i > 0 && p.free[i-1].off+p.free[i-1].size == b.off
	next := i < len(p.free) && b.off+b.size == p.free[i].off

	switch {
	case prev && next:
		p.free[i-1].size += b.size + p.free[i].size
		p.free = append(p.free[:i], p.free[i+1:]...)
	case prev:
		p.free[i-1].size += b.size
	case next:
		p.free[i].off = b.off
		p.free[i].size += b.size
	default:
		p.free = append(p.free, span{})
		copy(p.free[i+1:], p.free[i:])
		p.free[i] = span{off: b.off, size: b.size}
	}

	p.inUse -= b.size
}

func (p *pool) stats() PoolStats {
	s := PoolStats{
		Size:      p.size,
		InUse:     p.inUse,
		HighWater: p.highWater,
		FreeSpans: len(p.free),
		Failures:  p.failures,
	}
	for _, f := range p.free {
		if f.size > s.LargestFree {
			s.LargestFree = f.size
		}
	}
	return s
}
