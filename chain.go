// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"sync"
	"unsafe"
)

// chainContext drives a chained queue from its target. It is accounted for
// in the target's pool, for as long as the chain exists.
type chainContext struct {
	q      *Queue
	target *Queue
	blk    block
	// id is the pending dispatch event, in target
	id       ID
	dispatch Callback
}

// chainMu is held by Chain across the cycle check and installation, so the
// chain graph stays acyclic.
var chainMu sync.Mutex

// chainContextSize is charged against the target's pool by Chain.
var chainContextSize = blockSize(int(unsafe.Sizeof(chainContext{})))

// update is the chained queue's background hook, called with the chained
// queue's critical section held.
func (c *chainContext) update(ms int) {
	if c.id != 0 {
		c.target.Cancel(c.id)
		c.id = 0
	}

	if ms >= 0 {
		c.id = c.target.CallIn(ms, c.dispatch)
		if c.id == 0 && !c.target.closed.Load() {
			// no further dispatch until the head deadline changes
			c.q.allocFailed(`chain_dispatch`, Footprint(c.dispatch))
		}
		return
	}

	// retracted, and will not be reinstalled
	if c.q.chain == c {
		return
	}
	c.target.mu.Lock()
	c.target.pool.deallocate(c.blk)
	c.target.mu.Unlock()
	c.blk = block{}
}

func (c *chainContext) run() {
	if err := c.q.Dispatch(0); err != nil && err != ErrQueueClosed {
		c.q.logger.Debug().
			Err(err).
			Uint64(`queue`, c.q.id).
			Log(`eventqueue: chained dispatch skipped`)
	}
}

// Chain causes the queue to be dispatched by target: whenever the queue has
// an event due, target runs Dispatch(0) on it, as an event of its own. The
// queue must not be dispatched separately (such attempts will fail with
// [ErrReentrantDispatch] while the chained dispatch runs).
//
// Chain replaces any previous chain or [Queue.Background] hook. A nil target
// removes the chain. Chaining a queue to itself, or to a queue that is
// (transitively) chained to it, fails with [ErrChainCycle]. The chain
// consumes a small block of target's event pool, and fails with
// [ErrNoMemory] if that cannot be allocated.
//
// Locking: the queue's critical section is held while the target's is
// acquired, never the reverse.
func (q *Queue) Chain(target *Queue) error {
	if target == nil {
		q.mu.Lock()
		q.setBackground(nil, nil)
		q.mu.Unlock()
		return nil
	}

	chainMu.Lock()
	defer chainMu.Unlock()

	for t := target; t != nil; t = t.chainTarget.Load() {
		if t == q {
			return ErrChainCycle
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed.Load() {
		return ErrQueueClosed
	}

	target.mu.Lock()
	if target.closed.Load() {
		target.mu.Unlock()
		return ErrQueueClosed
	}
	blk, ok := target.pool.allocate(chainContextSize)
	target.mu.Unlock()
	if !ok {
		return ErrNoMemory
	}

	c := &chainContext{q: q, target: target, blk: blk}
	c.dispatch = Func(c.run)
	q.setBackground(c.update, c)

	q.logger.Debug().
		Uint64(`queue`, q.id).
		Uint64(`target`, target.id).
		Log(`eventqueue: chained`)

	return nil
}

// Background installs a hook that is notified of the queue's next deadline,
// for driving Dispatch from an external timer (see package bgtimer). The hook
// is called with the number of ms until the earliest deadline, or -1 if
// there is none: whenever that changes while the queue is not dispatching,
// at the end of each dispatch, and on install. Installing a hook (or nil)
// first calls the previous hook with -1. Background replaces any chain.
//
// The hook is called with the queue's critical section held, and must not
// call methods of the same queue.
func (q *Queue) Background(update func(ms int)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed.Load() {
		return
	}
	q.setBackground(update, nil)
	q.logger.Debug().
		Uint64(`queue`, q.id).
		Bool(`installed`, update != nil).
		Log(`eventqueue: background updated`)
}

// setBackground must be called with the critical section held.
func (q *Queue) setBackground(update func(ms int), chain *chainContext) {
	old := q.background
	q.background = update
	q.chain = chain
	if chain != nil {
		q.chainTarget.Store(chain.target)
	} else {
		q.chainTarget.Store(nil)
	}

	if old != nil {
		old(-1)
	}

	q.notifyBackground()
}
