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

	"github.com/benbjohnson/clock"
	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// queueIDCounter labels queues in log output.
var queueIDCounter atomic.Uint64

// Queue is a deferred callback queue: any goroutine may post callbacks, to
// run once or periodically after an optional delay, and a single dispatcher
// runs them, in deadline order, inside [Queue.Dispatch].
//
// Memory attached to pending callbacks is bounded by a fixed capacity event
// pool, see [WithArenaSize] and [Footprint]. Posting never blocks, and fails
// (returning an [ID] of 0) if the pool is exhausted.
//
// Thread Safety: every method is safe to call concurrently, including from
// within callbacks. Only one goroutine may dispatch at a time.
type Queue struct {
	_ [0]func() // Prevent copying

	// mu is the critical section, guarding pool, sched, background,
	// bgActive, handles, chain and nextID
	mu    sync.Mutex
	pool  *pool
	sched scheduler

	clk   clock.Clock
	epoch time.Time

	sema     sema
	semaOnce sync.Once

	logger           *logiface.Logger[logiface.Event]
	allocLimiter     *catrate.Limiter
	logAllocFailures bool
	fatal            func(error)
	metrics          *metrics

	background func(ms int)
	// chain is set if background is the hook installed by Chain
	chain *chainContext
	// chainTarget mirrors chain.target, for cycle detection without locking
	chainTarget atomic.Pointer[Queue]

	nextID  uint64
	handles int
	id      uint64

	// bgActive is false while dispatching, the end of the dispatch reports
	// the next deadline instead
	bgActive bool

	dispatching    atomic.Bool
	breakRequested atomic.Bool
	closed         atomic.Bool
}

// New creates a new Queue, see [Option] for configuration.
func New(opts ...Option) (*Queue, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	s, err := newSema(cfg.clock)
	if err != nil {
		return nil, err
	}

	q := &Queue{
		pool:     newPool(cfg.arenaSize),
		sched:    newScheduler(),
		clk:      cfg.clock,
		epoch:    cfg.clock.Now(),
		sema:     s,
		logger:   cfg.logger,
		fatal:    cfg.fatal,
		metrics:  newMetrics(cfg.metrics),
		id:       queueIDCounter.Add(1),
		bgActive: true,
	}

	if cfg.allocLogRate != nil {
		q.logAllocFailures = true
		if len(cfg.allocLogRate) != 0 {
			q.allocLimiter = catrate.NewLimiter(cfg.allocLogRate)
		}
	}

	return q, nil
}

// Call posts cb to run as soon as possible, returning its ID, or 0 if the
// queue is closed or the event pool is exhausted.
//
// Callbacks posted for the same instant run in the order they were posted.
func (q *Queue) Call(cb Callback) ID {
	return q.call(`call`, 0, -1, cb)
}

// CallIn posts cb to run once, after ms milliseconds. Delays and periods
// are limited to math.MaxInt32 ms (about 24.8 days), longer values are
// clamped.
func (q *Queue) CallIn(ms int, cb Callback) ID {
	return q.call(`call_in`, ms, -1, cb)
}

// CallEvery posts cb to run every ms milliseconds, first after ms
// milliseconds. Periodic events are rescheduled relative to their previous
// deadline, so they do not drift. A negative ms is equivalent to CallIn.
func (q *Queue) CallEvery(ms int, cb Callback) ID {
	return q.call(`call_every`, ms, ms, cb)
}

func (q *Queue) call(op string, delay, period int, cb Callback) ID {
	if cb == nil {
		return 0
	}

	size := Footprint(cb)

	q.mu.Lock()
	if q.closed.Load() {
		q.mu.Unlock()
		return 0
	}

	blk, ok := q.pool.allocate(size)
	if !ok {
		q.mu.Unlock()
		q.allocFailed(op, size)
		return 0
	}

	e := &event{blk: blk, owner: ownerPool}
	e.reset(cb, period)
	wake := q.schedule(e, delay)
	id := e.id
	q.mu.Unlock()

	if wake {
		q.sema.signal()
	}

	return id
}

// schedule assigns e an ID and inserts it, returning true if it became the
// earliest deadline. Must be called with the critical section held.
func (q *Queue) schedule(e *event, delay int) bool {
	if delay < 0 {
		delay = 0
	}
	delay = clampTicks(delay)
	q.nextID++
	e.id = ID(q.nextID)
	e.target = q.now() + uint32(delay)
	q.sched.insert(e)
	q.metrics.recordPending(q.sched.pending())

	if q.sched.head() != e {
		return false
	}
	q.notifyBackground()
	return true
}

// Cancel prevents a scheduled event from running, returning true if it was
// removed before it started. Cancelling an event that is currently running
// returns false, but stops a periodic event from being rescheduled. Unknown
// (including already completed) IDs return false.
func (q *Queue) Cancel(id ID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cancel(q.sched.lookup(id))
}

// cancel must be called with the critical section held.
func (q *Queue) cancel(e *event) bool {
	if e == nil {
		return false
	}

	switch e.state {
	case stateRunning:
		e.cancelled = true
		return false

	case stateScheduled:
		wasHead := q.sched.head() == e
		if !q.sched.remove(e) {
			return false
		}
		q.release(e)
		q.metrics.cancelled.Add(1)
		q.metrics.recordPending(q.sched.pending())
		if wasHead {
			q.notifyBackground()
		}
		return true

	default:
		return false
	}
}

// TimeLeft returns the milliseconds until the event is due, 0 if it is due
// or running, or -1 if the ID is unknown.
func (q *Queue) TimeLeft(id ID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	e := q.sched.lookup(id)
	if e == nil {
		return -1
	}
	if e.state == stateRunning {
		return 0
	}
	return clampDiff(e.target, q.now())
}

// release frees e, running its destructor. Must be called with the critical
// section held.
func (q *Queue) release(e *event) {
	q.sched.forget(e)
	e.state = stateFree
	dtor := e.dtor
	if e.owner == ownerPool {
		q.pool.deallocate(e.blk)
		e.blk = block{}
		e.cb = nil
		e.dtor = nil
	}
	if dtor != nil {
		dtor()
	}
}

// notifyBackground reports the next deadline to the background hook, if not
// dispatching. Must be called with the critical section held.
func (q *Queue) notifyBackground() {
	if !q.bgActive || q.background == nil {
		return
	}
	q.background(q.deadline())
}

// deadline returns the ms until the earliest deadline, or -1 if there are no
// scheduled events. Must be called with the critical section held.
func (q *Queue) deadline() int {
	if target, ok := q.sched.nextDeadline(); ok {
		return clampDiff(target, q.now())
	}
	return -1
}

// Close releases every scheduled event (running their destructors), retracts
// the background hook, and breaks any in-progress dispatch. All IDs are
// invalidated, and subsequent posts fail.
//
// Close fails with [ErrHandlesOutstanding] while any [Event] or
// [EventWith] handles are retained. Closing a closed queue is a no-op.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed.Load() {
		q.mu.Unlock()
		return nil
	}
	if q.handles > 0 {
		q.mu.Unlock()
		return ErrHandlesOutstanding
	}
	q.closed.Store(true)

	var released int
	for e := q.sched.head(); e != nil; e = q.sched.head() {
		q.sched.remove(e)
		q.release(e)
		released++
	}
	q.metrics.recordPending(0)

	if q.background != nil {
		q.setBackground(nil, nil)
	}
	q.mu.Unlock()

	q.sema.signal()
	if q.dispatching.CompareAndSwap(false, true) {
		q.closeSema()
	}

	q.logger.Info().
		Uint64(`queue`, q.id).
		Int(`released`, released).
		Log(`eventqueue: closed`)

	return nil
}

func (q *Queue) closeSema() {
	q.semaOnce.Do(func() {
		if err := q.sema.close(); err != nil {
			q.logger.Warning().
				Err(err).
				Uint64(`queue`, q.id).
				Log(`eventqueue: failed to close wake primitive`)
		}
	})
}

// Stats returns a snapshot of the event pool.
func (q *Queue) Stats() PoolStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pool.stats()
}

// Metrics returns a snapshot of the queue's statistics.
func (q *Queue) Metrics() Metrics {
	q.mu.Lock()
	defer q.mu.Unlock()
	m := q.metrics.snapshot()
	m.Pool = q.pool.stats()
	return m
}
