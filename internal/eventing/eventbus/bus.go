// Package eventbus fans claim lifecycle events out to in-process
// subscribers. The outbox dispatcher publishes onto it after a row is
// persisted, so handlers here run at-least-once and rely on the
// processed-event guard for idempotency.
package eventbus

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

// EventHandler consumes one delivered event.
type EventHandler func(ctx context.Context, event any) error

// EventBus delivers claim events to subscribed handlers.
type EventBus interface {
	Publish(ctx context.Context, event any) error
	Subscribe(eventType string, handler EventHandler)
}

var (
	// ErrNilEvent is returned when a nil event is published.
	ErrNilEvent = errors.New("eventbus: nil event")
	// ErrInvalidEventType is returned when the event type cannot be determined.
	ErrInvalidEventType = errors.New("eventbus: invalid event type")
)

// InMemoryBus routes events by their Go type name. Handlers for one type
// run sequentially in subscription order; the first handler error is
// reported after the remaining handlers have still run, so one failing
// consumer cannot starve the others.
type InMemoryBus struct {
	mu   sync.RWMutex
	subs map[string][]EventHandler
}

// NewInMemoryBus constructs an empty bus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{subs: make(map[string][]EventHandler)}
}

// Publish dispatches an event to every handler subscribed to its type.
func (b *InMemoryBus) Publish(ctx context.Context, event any) error {
	if event == nil {
		return ErrNilEvent
	}
	eventType := EventType(event)
	if eventType == "" {
		return ErrInvalidEventType
	}

	var firstErr error
	for _, handler := range b.snapshot(eventType) {
		if err := handler(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Subscribe registers a handler for an event type. Empty types and nil
// handlers are ignored.
func (b *InMemoryBus) Subscribe(eventType string, handler EventHandler) {
	if eventType == "" || handler == nil {
		return
	}
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], handler)
	b.mu.Unlock()
}

// snapshot copies the handler list so a Subscribe during delivery cannot
// race the iteration.
func (b *InMemoryBus) snapshot(eventType string) []EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]EventHandler(nil), b.subs[eventType]...)
}

// EventType returns the routing key for an event instance, the
// fully-qualified name of its underlying type.
func EventType(event any) string {
	if event == nil {
		return ""
	}
	t := reflect.TypeOf(event)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// EventTypeOf returns the routing key for a type parameter, letting
// subscribers name the event type without constructing a value.
func EventTypeOf[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
