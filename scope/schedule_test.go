package scope

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func TestLoop_Drain(t *testing.T) {
	loop := NewLoop()

	var order []int

	loop.Defer(func() { order = append(order, 1) })
	cancel := loop.Defer(func() { order = append(order, 2) })
	loop.Defer(func() {
		order = append(order, 3)
		loop.Defer(func() { order = append(order, 4) })
	})

	cancel()

	if loop.Len() != 3 {
		t.Fatalf("Len = %d, want 3", loop.Len())
	}

	if n := loop.Drain(); n != 3 {
		t.Errorf("Drain = %d, want 3", n)
	}

	if !slices.Equal(order, []int{1, 3, 4}) {
		t.Errorf("order = %v, want [1 3 4]", order)
	}

	if loop.Len() != 0 || loop.Drain() != 0 {
		t.Error("queue should be empty")
	}
}

func TestLoop_Run(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error)

	go func() { done <- loop.Run(ctx) }()

	ran := make(chan struct{})

	go loop.Defer(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("deferred callback never ran")
	}

	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestLoop_DrivesScope(t *testing.T) {
	loop := NewLoop()
	root := NewRoot(WithScheduler(loop))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	fired := make(chan any, 1)

	if _, err := root.Watch("a", func(newValue, _ any, _ *Scope) {
		if newValue == 1.0 {
			fired <- newValue
		}
	}, false); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := root.EvalAsync("a = 1"); err != nil {
		t.Fatalf("EvalAsync failed: %v", err)
	}

	go func() { _ = loop.Run(ctx) }()

	select {
	case v := <-fired:
		if v != 1.0 {
			t.Errorf("listener got %v", v)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled digest never ran")
	}
}
