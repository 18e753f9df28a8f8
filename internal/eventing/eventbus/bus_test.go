package eventbus

import (
	"context"
	"errors"
	"testing"
)

type claimCreated struct {
	ClaimID string
}

func TestInMemoryBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryBus()

	var got string
	bus.Subscribe(EventTypeOf[claimCreated](), func(ctx context.Context, event any) error {
		got = event.(claimCreated).ClaimID
		return nil
	})
	bus.Subscribe("other.Type", func(ctx context.Context, event any) error {
		t.Fatal("handler for unrelated type invoked")
		return nil
	})

	if err := bus.Publish(context.Background(), claimCreated{ClaimID: "UPPF-2026-W06-000001-001"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got != "UPPF-2026-W06-000001-001" {
		t.Fatalf("handler saw claim %q", got)
	}
}

func TestInMemoryBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryBus()
	eventType := EventTypeOf[claimCreated]()

	boom := errors.New("boom")
	ran := false
	bus.Subscribe(eventType, func(ctx context.Context, event any) error {
		return boom
	})
	bus.Subscribe(eventType, func(ctx context.Context, event any) error {
		ran = true
		return nil
	})

	err := bus.Publish(context.Background(), claimCreated{ClaimID: "c1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected first handler error, got %v", err)
	}
	if !ran {
		t.Fatal("second handler did not run")
	}
}

func TestInMemoryBus_RejectsNilAndUntyped(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("nil event: got %v", err)
	}
	if got := EventType((*claimCreated)(nil)); got != EventTypeOf[claimCreated]() {
		t.Fatalf("pointer type key %q", got)
	}
}
