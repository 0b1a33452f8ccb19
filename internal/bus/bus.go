// Package bus is a typed publish/subscribe mechanism for the handful of
// cross-entity notifications in the shell core. Events are delivered
// synchronously on the publisher's call stack, never queued for a later turn.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

func New() *Bus {
	return &Bus{
		subs: make(map[string][]func(ctx context.Context, event any)),
	}
}

type Bus struct {
	ctx  context.Context
	subs map[string][]func(ctx context.Context, event any)
}

func (b *Bus) SetContext(ctx context.Context) {
	b.ctx = ctx
}

func (b *Bus) context() context.Context {
	if b.ctx == nil {
		return context.Background()
	}
	return b.ctx
}

func Subscribe[T any](b *Bus, name string, fn func(ctx context.Context, event T) error) {
	topic := fmt.Sprintf("%T", *new(T))
	b.subs[topic] = append(b.subs[topic], func(ctx context.Context, event any) {
		if err := fn(ctx, event.(T)); err != nil {
			slog.Error("Failed to handle event", "package", "bus", "name", name, "error", err)
		}
	})
}

func Publish[T any](b *Bus, event T) {
	for _, fn := range b.subs[fmt.Sprintf("%T", event)] {
		fn(b.context(), event)
	}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		mu:   sync.Mutex{},
		subs: make(map[*chan T]struct{}),
	}
}

// Hub fans a single event type out to channel subscribers, used by streaming
// consumers like the event websocket.
type Hub[T any] struct {
	mu   sync.Mutex
	subs map[*chan T]struct{}
}

func (h *Hub[T]) Broadcast(ctx context.Context, event T) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case <-ctx.Done():
		case *sub <- event:
		}
	}

	return nil
}

func (h *Hub[T]) Register(b *Bus) *Hub[T] {
	Subscribe(b, "bus.Hub", h.Broadcast)
	return h
}

func (h *Hub[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	h.mu.Lock()
	c := make(chan T)

	key := &c
	h.subs[key] = struct{}{}
	h.mu.Unlock()

	return c, func() {
		h.mu.Lock()
		delete(h.subs, key)
		h.mu.Unlock()
	}
}
