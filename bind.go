// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"unsafe"
)

// Callback is a type-erased call: a function, plus any arguments bound to
// it, invoked with no arguments by the dispatch loop.
//
// Callback is sealed. Values are created using [Func], or the generic
// [Bind1] through [Bind5] constructors, which store the bound arguments
// inline, so the size of the closure is known when it is posted (see
// [Footprint]).
type Callback interface {
	invoke()
	// footprint is the size of the closure, excluding the record header
	footprint() int
}

// Func adapts a plain function to a [Callback]. Any state it captures is
// not accounted for by [Footprint], use the BindN constructors if that
// matters.
type Func func()

func (f Func) invoke() { f() }

func (f Func) footprint() int { return int(unsafe.Sizeof(f)) }

type bound1[A any] struct {
	fn func(A)
	a  A
}

func (b *bound1[A]) invoke() { b.fn(b.a) }

func (b *bound1[A]) footprint() int { return int(unsafe.Sizeof(*b)) }

type bound2[A, B any] struct {
	fn func(A, B)
	a  A
	b  B
}

func (b *bound2[A, B]) invoke() { b.fn(b.a, b.b) }

func (b *bound2[A, B]) footprint() int { return int(unsafe.Sizeof(*b)) }

type bound3[A, B, C any] struct {
	fn func(A, B, C)
	a  A
	b  B
	c  C
}

func (b *bound3[A, B, C]) invoke() { b.fn(b.a, b.b, b.c) }

func (b *bound3[A, B, C]) footprint() int { return int(unsafe.Sizeof(*b)) }

type bound4[A, B, C, D any] struct {
	fn func(A, B, C, D)
	a  A
	b  B
	c  C
	d  D
}

func (b *bound4[A, B, C, D]) invoke() { b.fn(b.a, b.b, b.c, b.d) }

func (b *bound4[A, B, C, D]) footprint() int { return int(unsafe.Sizeof(*b)) }

type bound5[A, B, C, D, E any] struct {
	fn func(A, B, C, D, E)
	a  A
	b  B
	c  C
	d  D
	e  E
}

func (b *bound5[A, B, C, D, E]) invoke() { b.fn(b.a, b.b, b.c, b.d, b.e) }

func (b *bound5[A, B, C, D, E]) footprint() int { return int(unsafe.Sizeof(*b)) }

// Bind1 binds one argument to fn.
func Bind1[A any](fn func(A), a A) Callback {
	return &bound1[A]{fn, a}
}

// Bind2 binds two arguments to fn, in order.
func Bind2[A, B any](fn func(A, B), a A, b B) Callback {
	return &bound2[A, B]{fn, a, b}
}

// Bind3 binds three arguments to fn, in order.
func Bind3[A, B, C any](fn func(A, B, C), a A, b B, c C) Callback {
	return &bound3[A, B, C]{fn, a, b, c}
}

// Bind4 binds four arguments to fn, in order.
func Bind4[A, B, C, D any](fn func(A, B, C, D), a A, b B, c C, d D) Callback {
	return &bound4[A, B, C, D]{fn, a, b, c, d}
}

// Bind5 binds five arguments to fn, in order.
func Bind5[A, B, C, D, E any](fn func(A, B, C, D, E), a A, b B, c C, d D, e E) Callback {
	return &bound5[A, B, C, D, E]{fn, a, b, c, d, e}
}

// posted binds a handle's function to the argument given at post time.
type posted[P any] struct {
	fn  func(P)
	arg P
}

func (b *posted[P]) invoke() { b.fn(b.arg) }

func (b *posted[P]) footprint() int { return int(unsafe.Sizeof(*b)) }

// Footprint returns the number of pool bytes a single post of cb consumes:
// the record header plus the closure, rounded up to the pool's block size.
// A queue created using WithArenaSize(Footprint(cb)) can hold exactly one
// pending post of cb.
func Footprint(cb Callback) int {
	if cb == nil {
		return blockSize(eventHeaderSize)
	}
	return blockSize(eventHeaderSize + cb.footprint())
}
