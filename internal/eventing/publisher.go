package eventing

import (
	"context"

	"uppf-engine/internal/eventing/eventbus"
)

// Publisher is the outbox-backed publish path for claim lifecycle
// events. Publish persists the envelope first and only then nudges the
// dispatcher, so an event is never delivered without a durable record of
// it. A nil Publisher publishes nowhere, which lets the claim service run
// without eventing in tests.
type Publisher struct {
	outbox   OutboxWriter
	dispatch *Dispatcher
	tenantID string
	sub      Subscriber
}

// OutboxWriter inserts outbox records.
type OutboxWriter interface {
	Insert(ctx context.Context, env Envelope) (string, error)
}

// Subscriber registers handlers.
type Subscriber interface {
	Subscribe(eventType string, handler eventbus.EventHandler)
}

// NewPublisher constructs a publisher stamping tenantID on events whose
// context carries no tenant of its own.
func NewPublisher(outbox OutboxWriter, dispatch *Dispatcher, tenantID string, sub Subscriber) *Publisher {
	return &Publisher{outbox: outbox, dispatch: dispatch, tenantID: tenantID, sub: sub}
}

// Publish stores the event in the outbox and triggers an immediate
// dispatch pass. Dispatch failures are not surfaced here; the pending row
// stays in the outbox and the next pass retries it.
func (p *Publisher) Publish(ctx context.Context, event any) error {
	if p == nil || p.outbox == nil {
		return nil
	}
	env, err := BuildEnvelope(event, MetaFromContext(ctx, p.tenantID))
	if err != nil {
		return err
	}
	if _, err := p.outbox.Insert(ctx, env); err != nil {
		return err
	}
	if p.dispatch != nil {
		_ = p.dispatch.Dispatch(ctx, 1)
	}
	return nil
}

// Subscribe delegates to the underlying bus when one is wired.
func (p *Publisher) Subscribe(eventType string, handler eventbus.EventHandler) {
	if p == nil || p.sub == nil {
		return
	}
	p.sub.Subscribe(eventType, handler)
}
