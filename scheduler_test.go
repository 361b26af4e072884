// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvent(id ID, target uint32) *event {
	e := &event{id: id}
	e.reset(Func(func() {}), -1)
	e.id = id
	e.target = target
	return e
}

func drainDue(s *scheduler, now uint32) []ID {
	var ids []ID
	fence := s.seq + 1
	for e := s.popDue(now, fence); e != nil; e = s.popDue(now, fence) {
		ids = append(ids, e.id)
	}
	return ids
}

func TestTickDiff(t *testing.T) {
	assert.Equal(t, int32(5), tickDiff(10, 5))
	assert.Equal(t, int32(-5), tickDiff(5, 10))
	assert.Equal(t, int32(2), tickDiff(1, math.MaxUint32))
	assert.Equal(t, int32(-2), tickDiff(math.MaxUint32, 1))
	assert.Equal(t, 0, clampDiff(5, 10))
	assert.Equal(t, 3, clampDiff(2, math.MaxUint32))
}

func TestScheduler_deadlineOrder(t *testing.T) {
	s := newScheduler()
	s.insert(newTestEvent(1, 30))
	s.insert(newTestEvent(2, 10))
	s.insert(newTestEvent(3, 20))
	s.insert(newTestEvent(4, 10))

	target, ok := s.nextDeadline()
	require.True(t, ok)
	assert.Equal(t, uint32(10), target)

	assert.Equal(t, []ID{2, 4}, drainDue(&s, 15))
	assert.Equal(t, []ID{3, 1}, drainDue(&s, 30))

	_, ok = s.nextDeadline()
	assert.False(t, ok)
}

func TestScheduler_wrapAround(t *testing.T) {
	s := newScheduler()
	s.insert(newTestEvent(1, 5))                // after the wrap
	s.insert(newTestEvent(2, math.MaxUint32-5)) // before the wrap
	s.insert(newTestEvent(3, math.MaxUint32))

	assert.Empty(t, drainDue(&s, math.MaxUint32-10))
	assert.Equal(t, []ID{2, 3}, drainDue(&s, math.MaxUint32))
	assert.Equal(t, []ID{1}, drainDue(&s, 10))
}

func TestScheduler_fence(t *testing.T) {
	s := newScheduler()
	s.insert(newTestEvent(1, 0))
	fence := s.seq + 1
	s.insert(newTestEvent(2, 0))

	e := s.popDue(0, fence)
	require.NotNil(t, e)
	assert.Equal(t, ID(1), e.id)
	assert.Equal(t, stateRunning, e.state)

	assert.Nil(t, s.popDue(0, fence), "inserted after the fence")
	assert.Equal(t, 1, s.pending())
}

func TestScheduler_remove(t *testing.T) {
	s := newScheduler()
	events := make([]*event, 8)
	for i := range events {
		events[i] = newTestEvent(ID(i+1), uint32(i*10))
		s.insert(events[i])
	}

	assert.True(t, s.remove(events[0]))
	assert.True(t, s.remove(events[5]))
	assert.False(t, s.remove(events[5]), "already removed")
	assert.Equal(t, -1, events[5].index)

	// still indexed until released
	assert.Same(t, events[5], s.lookup(6))
	s.forget(events[5])
	assert.Nil(t, s.lookup(6))
	assert.Nil(t, s.lookup(0))

	assert.Equal(t, []ID{2, 3, 4, 5, 7, 8}, drainDue(&s, 100))
}

func TestScheduler_removeRunning(t *testing.T) {
	s := newScheduler()
	e := newTestEvent(1, 0)
	s.insert(e)
	require.Same(t, e, s.popDue(0, s.seq+1))
	assert.False(t, s.remove(e))
	assert.Same(t, e, s.lookup(1))
}

func TestScheduler_reinsertIsFIFO(t *testing.T) {
	s := newScheduler()
	periodic := newTestEvent(1, 10)
	s.insert(periodic)
	require.Same(t, periodic, s.popDue(10, s.seq+1))

	// a new post for the same instant, before the periodic event re-inserts
	s.insert(newTestEvent(2, 20))
	periodic.target = 20
	s.insert(periodic)

	assert.Equal(t, []ID{2, 1}, drainDue(&s, 20))
}

func TestEventState_String(t *testing.T) {
	assert.Equal(t, "Free", stateFree.String())
	assert.Equal(t, "Scheduled", stateScheduled.String())
	assert.Equal(t, "Running", stateRunning.String())
	assert.Equal(t, "Unknown(9)", eventState(9).String())
}
