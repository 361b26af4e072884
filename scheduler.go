// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"container/heap"
)

// eventHeap is a min-heap of records, ordered by target tick, then by
// insertion sequence (FIFO for equal targets).
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if d := tickDiff(h[i].target, h[j].target); d != 0 {
		return d < 0
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	e := x.(*event)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// scheduler orders pending records by deadline, and tracks every live
// (scheduled or running) record by ID.
//
// Thread Safety: NOT thread-safe, guarded by the owning queue's critical
// section.
type scheduler struct {
	heap eventHeap
	live map[ID]*event
	// seq is the sequence of the most recent insert
	seq uint64
}

func newScheduler() scheduler {
	return scheduler{
		heap: make(eventHeap, 0, 16),
		live: make(map[ID]*event),
	}
}

// insert schedules e at e.target. Re-inserting a periodic record assigns a
// fresh sequence, so it orders after anything already inserted for the same
// instant.
func (s *scheduler) insert(e *event) {
	s.seq++
	e.seq = s.seq
	e.state = stateScheduled
	heap.Push(&s.heap, e)
	s.live[e.id] = e
}

// remove unschedules e, returning false if it was not scheduled.
func (s *scheduler) remove(e *event) bool {
	if e.state != stateScheduled || e.index < 0 || e.index >= len(s.heap) || s.heap[e.index] != e {
		return false
	}
	heap.Remove(&s.heap, e.index)
	return true
}

// forget drops e from the live index, on release.
func (s *scheduler) forget(e *event) {
	if s.live[e.id] == e {
		delete(s.live, e.id)
	}
}

func (s *scheduler) lookup(id ID) *event {
	if id == 0 {
		return nil
	}
	return s.live[id]
}

func (s *scheduler) head() *event {
	if len(s.heap) == 0 {
		return nil
	}
	return s.heap[0]
}

func (s *scheduler) nextDeadline() (uint32, bool) {
	if len(s.heap) == 0 {
		return 0, false
	}
	return s.heap[0].target, true
}

// popDue removes and returns the earliest record, if it is due at now and
// was inserted before fence.
func (s *scheduler) popDue(now uint32, fence uint64) *event {
	e := s.head()
	if e == nil || tickDiff(e.target, now) > 0 || e.seq >= fence {
		return nil
	}
	heap.Pop(&s.heap)
	e.state = stateRunning
	return e
}

func (s *scheduler) pending() int {
	return len(s.heap)
}
