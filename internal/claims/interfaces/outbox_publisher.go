package interfaces

import (
	"context"

	"uppf-engine/internal/eventing"
)

// OutboxPublisher writes claim lifecycle events to the transactional outbox.
type OutboxPublisher struct {
	publisher *eventing.Publisher
	tenantID  string
}

// NewOutboxPublisher constructs an outbox publisher.
func NewOutboxPublisher(publisher *eventing.Publisher, tenantID string) *OutboxPublisher {
	return &OutboxPublisher{publisher: publisher, tenantID: tenantID}
}

// Publish writes the event to the outbox.
func (p *OutboxPublisher) Publish(ctx context.Context, event any) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	ctx = eventing.WithTenantID(ctx, p.tenantID)
	return p.publisher.Publish(ctx, event)
}
