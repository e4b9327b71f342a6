package engine

import (
	"context"
	"sync"
)

// EventSink receives stream events as the engine produces them.
// Publish must respect emission order and is allowed to block: the
// engine stalls node progression rather than dropping events.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

// discardSink drops every event. Used by RunSync, where streaming is
// not requested; the final state is identical either way.
type discardSink struct{}

func (discardSink) Publish(context.Context, Event) error { return nil }

// Bus is an ordered, append-only event channel for exactly one
// consumer. Events are pushed as produced, never batched; when the
// consumer lags, Publish blocks until it catches up or the run
// context ends.
type Bus struct {
	ch        chan Event
	closeOnce sync.Once
}

// NewBus creates a bus. The buffer only smooths bursts; ordering and
// backpressure semantics are identical for any size.
func NewBus(buffer int) *Bus {
	if buffer < 0 {
		buffer = 0
	}
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish implements EventSink.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	select {
	case b.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the consumer side of the bus. The channel is closed
// after the terminal event has been published.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Close closes the bus. Safe to call more than once.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.ch) })
}
