// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"fmt"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/joeycumines/logiface"
)

// DefaultArenaSize is the event pool capacity used if [WithArenaSize] is not
// provided.
const DefaultArenaSize = 4096

// queueOptions holds configuration options for Queue creation.
type queueOptions struct {
	clock        clock.Clock
	logger       *logiface.Logger[logiface.Event]
	fatal        func(error)
	allocLogRate map[time.Duration]int
	arenaSize    int
	metrics      bool
}

// Option configures a Queue instance.
type Option interface {
	applyQueue(*queueOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyQueueFunc func(*queueOptions) error
}

func (o *optionImpl) applyQueue(opts *queueOptions) error {
	return o.applyQueueFunc(opts)
}

// WithArenaSize sets the capacity, in bytes, of the queue's event pool.
// Zero is valid, and restricts the queue to caller-owned events
// ([UserAllocatedEvent]). The size is rounded down to a multiple of 8.
func WithArenaSize(size int) Option {
	return &optionImpl{func(opts *queueOptions) error {
		if size < 0 {
			return fmt.Errorf("%w: negative arena size %d", ErrInvalidOption, size)
		}
		opts.arenaSize = size
		return nil
	}}
}

// WithClock sets the time source for the queue's tick. Defaults to the wall
// clock. A [*clock.Mock] may be used for deterministic tests, in which case
// Dispatch waits on the mock's timers.
func WithClock(clk clock.Clock) Option {
	return &optionImpl{func(opts *queueOptions) error {
		opts.clock = clk
		return nil
	}}
}

// WithLogger sets the logger. A nil logger (the default) disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *queueOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithFatalHandler sets the handler for unrecoverable misuse, which will be
// passed a [*FatalError]. The default handler logs the error, then panics.
// If the handler returns, the offending operation is abandoned.
func WithFatalHandler(fn func(err error)) Option {
	return &optionImpl{func(opts *queueOptions) error {
		opts.fatal = fn
		return nil
	}}
}

// WithMetrics enables latency and pending depth tracking, see
// [Queue.Metrics].
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(opts *queueOptions) error {
		opts.metrics = enabled
		return nil
	}}
}

// WithAllocFailureLogRate configures the rate limit applied to the warning
// logged when the event pool is exhausted, as a map of window to maximum
// count, e.g. {time.Second: 4, time.Minute: 30}. Each count must be greater
// than zero, and must increase with the window, while the effective rate
// (count per window) decreases. A nil map disables the warning, an empty map
// removes the limit.
func WithAllocFailureLogRate(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *queueOptions) error {
		if err := validateRates(rates); err != nil {
			return err
		}
		opts.allocLogRate = rates
		return nil
	}}
}

func validateRates(rates map[time.Duration]int) error {
	windows := make([]time.Duration, 0, len(rates))
	for window, count := range rates {
		if window <= 0 || count <= 0 {
			return fmt.Errorf("%w: invalid rate %d per %s", ErrInvalidOption, count, window)
		}
		windows = append(windows, window)
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i] < windows[j] })
	for i := 1; i < len(windows); i++ {
		long, short := windows[i], windows[i-1]
		// counts increase with the window, while the per-unit rate decreases
		if rates[long] <= rates[short] ||
			float64(rates[long])/float64(long) >= float64(rates[short])/float64(short) {
			return fmt.Errorf("%w: rate for %s is redundant with the rate for %s", ErrInvalidOption, long, short)
		}
	}
	return nil
}

// resolveOptions applies Option instances to queueOptions.
func resolveOptions(opts []Option) (*queueOptions, error) {
	cfg := &queueOptions{
		arenaSize:    DefaultArenaSize,
		allocLogRate: defaultAllocLogRate(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyQueue(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.clock == nil {
		cfg.clock = clock.New()
	}
	return cfg, nil
}
