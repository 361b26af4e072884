// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventqueue_test

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	eventqueue "github.com/joeycumines/go-eventqueue"
)

// Example demonstrates posting and dispatching callbacks.
func Example() {
	q, err := eventqueue.New()
	if err != nil {
		panic(err)
	}
	defer q.Close()

	q.Call(eventqueue.Bind1(func(s string) { fmt.Println(s) }, "first"))
	q.Call(eventqueue.Bind2(func(a, b int) { fmt.Println(a + b) }, 1, 2))

	if err := q.DispatchOnce(); err != nil {
		panic(err)
	}

	// Output:
	// first
	// 3
}

// ExampleQueue_CallEvery shows periodic events, using a mock clock.
func ExampleQueue_CallEvery() {
	mock := clock.NewMock()
	q, err := eventqueue.New(eventqueue.WithClock(mock))
	if err != nil {
		panic(err)
	}
	defer q.Close()

	id := q.CallEvery(100, eventqueue.Func(func() {
		fmt.Println("tick at", q.Tick())
	}))

	for i := 0; i < 3; i++ {
		mock.Add(100 * time.Millisecond)
		_ = q.DispatchOnce()
	}

	fmt.Println("cancelled:", q.Cancel(id))

	// Output:
	// tick at 100
	// tick at 200
	// tick at 300
	// cancelled: true
}

// ExampleFootprint sizes a queue to hold exactly one pending callback.
func ExampleFootprint() {
	cb := eventqueue.Bind3(func(a, b, c int64) { fmt.Println(a, b, c) }, 1, 2, 3)

	q, err := eventqueue.New(eventqueue.WithArenaSize(eventqueue.Footprint(cb)))
	if err != nil {
		panic(err)
	}
	defer q.Close()

	fmt.Println(q.Call(cb) != 0)
	fmt.Println(q.Call(cb) != 0)
	_ = q.DispatchOnce()
	fmt.Println(q.Call(cb) != 0)
	_ = q.DispatchOnce()

	// Output:
	// true
	// false
	// 1 2 3
	// true
	// 1 2 3
}

// ExampleUserAllocatedEvent demonstrates the single post guard.
func ExampleUserAllocatedEvent() {
	q, err := eventqueue.New(eventqueue.WithArenaSize(0))
	if err != nil {
		panic(err)
	}
	defer q.Close()

	e := eventqueue.MakeUserAllocatedEvent(q, eventqueue.Func(func() { fmt.Println("ran") }))
	fmt.Println(e.TryCall())
	fmt.Println(e.TryCall())
	_ = q.DispatchOnce()
	fmt.Println(e.TryCall())
	_ = q.DispatchOnce()

	// Output:
	// true
	// false
	// ran
	// true
	// ran
}

// ExampleMakeEventWith demonstrates a reusable handle with a post argument.
func ExampleMakeEventWith() {
	q, err := eventqueue.New()
	if err != nil {
		panic(err)
	}
	defer q.Close()

	greet, err := eventqueue.MakeEventWith(q, func(name string) { fmt.Println("hello", name) })
	if err != nil {
		panic(err)
	}
	greet.Post("alice")
	greet.Post("bob")
	greet.Release()

	_ = q.DispatchOnce()

	// Output:
	// hello alice
	// hello bob
}
