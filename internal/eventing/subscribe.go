package eventing

import (
	"context"

	"uppf-engine/internal/eventing/eventbus"
)

// ProcessedStore records which claim events a consumer has already
// handled. Consumers are named (for example "claims.notify") so two
// subscribers of the same event keep independent idempotency ledgers.
type ProcessedStore interface {
	HasProcessed(ctx context.Context, eventID, consumerName string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, consumerName string) error
}

// Subscribe registers a claim event consumer on the bus. With a store the
// handler is made idempotent; without one it runs on every redelivery,
// which only suits handlers that are naturally idempotent such as logging.
func Subscribe(bus eventbus.EventBus, eventType, consumerName string, handler eventbus.EventHandler, store ProcessedStore) {
	if store == nil {
		bus.Subscribe(eventType, handler)
		return
	}
	bus.Subscribe(eventType, WrapHandler(consumerName, handler, store))
}

// WrapHandler guards a handler with the consumer's processed-event
// ledger. Events delivered without an envelope carry no event id and are
// passed straight through, since there is nothing to deduplicate on.
func WrapHandler(consumerName string, handler eventbus.EventHandler, store ProcessedStore) eventbus.EventHandler {
	return func(ctx context.Context, event any) error {
		env, ok := EnvelopeFromContext(ctx)
		if !ok || env.EventID == "" {
			return handler(ctx, event)
		}
		seen, err := store.HasProcessed(ctx, env.EventID, consumerName)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
		// Marking after the handler keeps delivery at-least-once. A crash
		// between the two replays the event on restart.
		return store.MarkProcessed(ctx, env.EventID, consumerName)
	}
}
