// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestBind_invoke(t *testing.T) {
	var got []any
	record := func(vs ...any) { got = append(got, vs) }

	Func(func() { record() }).invoke()
	Bind1(func(a int) { record(a) }, 1).invoke()
	Bind2(func(a int, b string) { record(a, b) }, 1, "b").invoke()
	Bind3(func(a int, b string, c bool) { record(a, b, c) }, 1, "b", true).invoke()
	Bind4(func(a, b, c, d int) { record(a, b, c, d) }, 1, 2, 3, 4).invoke()
	Bind5(func(a, b, c, d, e int) { record(a, b, c, d, e) }, 1, 2, 3, 4, 5).invoke()

	assert.Equal(t, []any{
		[]any(nil),
		[]any{1},
		[]any{1, "b"},
		[]any{1, "b", true},
		[]any{1, 2, 3, 4},
		[]any{1, 2, 3, 4, 5},
	}, got)
}

func TestBind_argumentsCapturedAtBind(t *testing.T) {
	var got int
	v := 1
	cb := Bind1(func(n int) { got = n }, v)
	v = 2
	cb.invoke()
	assert.Equal(t, 1, got)
	_ = v
}

func TestFootprint(t *testing.T) {
	ptr := int(unsafe.Sizeof(uintptr(0)))

	assert.Equal(t, blockSize(eventHeaderSize), Footprint(nil))
	assert.Equal(t, blockSize(eventHeaderSize+ptr), Footprint(Func(func() {})))
	assert.Equal(t, blockSize(eventHeaderSize+ptr+8), Footprint(Bind1(func(int64) {}, 0)))
	assert.Equal(t, blockSize(eventHeaderSize+ptr+24), Footprint(Bind3(func(a, b, c int64) {}, 0, 0, 0)))

	small := Footprint(Bind1(func(byte) {}, 0))
	large := Footprint(Bind1(func([64]byte) {}, [64]byte{}))
	assert.Greater(t, large, small)
	assert.Zero(t, large%blockAlign)
}
