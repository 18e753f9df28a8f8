package eventing

import "context"

type contextKey string

const (
	contextKeyEnvelope contextKey = "uppf.eventing.envelope"
	contextKeyTenant   contextKey = "uppf.eventing.tenant_id"
	contextKeyCorr     contextKey = "uppf.eventing.correlation_id"
	contextKeyEventID  contextKey = "uppf.eventing.event_id"
)

// WithEnvelope attaches the delivered envelope so idempotent claim
// consumers can read the event id they are processing.
func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, contextKeyEnvelope, env)
}

// EnvelopeFromContext returns the envelope a handler is running under.
func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(contextKeyEnvelope).(Envelope)
	return env, ok
}

// WithTenantID pins the OMC tenant for events published downstream.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, contextKeyTenant, tenantID)
}

// WithCorrelationID threads a correlation id through a claim workflow so
// the create, submit and payment events of one claim can be tied together.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, contextKeyCorr, correlationID)
}

// WithEventID fixes the event id of the next publish, used when replaying.
func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, contextKeyEventID, eventID)
}

// MetaFromContext assembles publish metadata from the request context,
// falling back to the service's default tenant when none was set by the
// auth layer.
func MetaFromContext(ctx context.Context, defaultTenantID string) Meta {
	meta := Meta{}
	if tenantID, ok := ctx.Value(contextKeyTenant).(string); ok {
		meta.TenantID = tenantID
	}
	if meta.TenantID == "" {
		meta.TenantID = defaultTenantID
	}
	if corr, ok := ctx.Value(contextKeyCorr).(string); ok {
		meta.CorrelationID = corr
	}
	if id, ok := ctx.Value(contextKeyEventID).(string); ok {
		meta.EventID = id
	}
	return meta
}
