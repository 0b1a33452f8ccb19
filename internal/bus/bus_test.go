package bus

import (
	"context"
	"testing"
)

type eventA struct{ N int }
type eventB struct{ N int }

func TestPublishIsSynchronousAndTyped(t *testing.T) {
	b := New()

	var gotA, gotB []int
	Subscribe(b, "test", func(_ context.Context, e eventA) error {
		gotA = append(gotA, e.N)
		return nil
	})
	Subscribe(b, "test", func(_ context.Context, e eventB) error {
		gotB = append(gotB, e.N)
		return nil
	})

	Publish(b, eventA{N: 1})
	// Delivery happens on the publisher's stack, so the effect is visible
	// immediately after Publish returns.
	if len(gotA) != 1 || gotA[0] != 1 {
		t.Fatalf("gotA = %v, want [1]", gotA)
	}
	if len(gotB) != 0 {
		t.Fatalf("gotB = %v, want none", gotB)
	}

	Publish(b, eventB{N: 2})
	if len(gotB) != 1 || gotB[0] != 2 {
		t.Fatalf("gotB = %v, want [2]", gotB)
	}
}

func TestMultipleSubscribersInOrder(t *testing.T) {
	b := New()

	var order []string
	Subscribe(b, "first", func(_ context.Context, _ eventA) error {
		order = append(order, "first")
		return nil
	})
	Subscribe(b, "second", func(_ context.Context, _ eventA) error {
		order = append(order, "second")
		return nil
	})

	Publish(b, eventA{})
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v, want [first second]", order)
	}
}

func TestHubFanout(t *testing.T) {
	ctx := context.Background()
	b := New()
	hub := NewHub[eventA]().Register(b)

	events, cancel := hub.Subscribe(ctx)
	defer cancel()

	go Publish(b, eventA{N: 7})
	if got := <-events; got.N != 7 {
		t.Fatalf("got %d, want 7", got.N)
	}

	cancel()
	// After cancel the broadcast no longer targets our channel.
	Publish(b, eventA{N: 8})
	select {
	case got := <-events:
		t.Fatalf("got %v after cancel", got)
	default:
	}
}
