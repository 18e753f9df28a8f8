package eventing

import (
	"context"
	"testing"

	"uppf-engine/internal/eventing/eventbus"
)

type memProcessed struct {
	seen map[string]bool
}

func newMemProcessed() *memProcessed {
	return &memProcessed{seen: make(map[string]bool)}
}

func (m *memProcessed) HasProcessed(_ context.Context, eventID, consumerName string) (bool, error) {
	return m.seen[consumerName+"|"+eventID], nil
}

func (m *memProcessed) MarkProcessed(_ context.Context, eventID, consumerName string) error {
	m.seen[consumerName+"|"+eventID] = true
	return nil
}

type paidEvent struct {
	ClaimID string
}

func TestSubscribe_DuplicateDeliverySkipped(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	store := newMemProcessed()

	count := 0
	Subscribe(bus, eventbus.EventTypeOf[paidEvent](), "claims.notify", func(ctx context.Context, event any) error {
		count++
		return nil
	}, store)

	env := Envelope{EventID: "evt-001"}
	ctx := WithEnvelope(context.Background(), env)
	for i := 0; i < 2; i++ {
		if err := bus.Publish(ctx, paidEvent{ClaimID: "c1"}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if count != 1 {
		t.Fatalf("expected handler once, got %d", count)
	}
}

func TestSubscribe_ConsumersDedupeIndependently(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	store := newMemProcessed()
	eventType := eventbus.EventTypeOf[paidEvent]()

	var notify, audit int
	Subscribe(bus, eventType, "claims.notify", func(ctx context.Context, event any) error {
		notify++
		return nil
	}, store)
	Subscribe(bus, eventType, "claims.audit", func(ctx context.Context, event any) error {
		audit++
		return nil
	}, store)

	ctx := WithEnvelope(context.Background(), Envelope{EventID: "evt-002"})
	if err := bus.Publish(ctx, paidEvent{ClaimID: "c2"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if notify != 1 || audit != 1 {
		t.Fatalf("expected both consumers once, got notify=%d audit=%d", notify, audit)
	}
}

func TestWrapHandler_NoEnvelopePassesThrough(t *testing.T) {
	store := newMemProcessed()
	count := 0
	wrapped := WrapHandler("claims.notify", func(ctx context.Context, event any) error {
		count++
		return nil
	}, store)

	for i := 0; i < 2; i++ {
		if err := wrapped(context.Background(), paidEvent{ClaimID: "c3"}); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}
	if count != 2 {
		t.Fatalf("expected passthrough on every delivery, got %d", count)
	}
}
