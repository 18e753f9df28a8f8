package application

import (
	"context"
	"time"
)

// EventPublisher is the outbound event port. Satisfied by the eventing
// outbox publisher in production and by stubs in tests.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// ClaimCreated is emitted after a claim lands in its initial state.
type ClaimCreated struct {
	ClaimID    string    `json:"claim_id"`
	DeliveryID string    `json:"delivery_id"`
	RouteID    string    `json:"route_id"`
	AmountDue  float64   `json:"amount_due"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ClaimVarianceFlagged is emitted when reconciliation routes a claim to review.
type ClaimVarianceFlagged struct {
	ClaimID    string    `json:"claim_id"`
	Variances  []string  `json:"variances"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ClaimsBatchSubmitted is emitted once per window batch submission.
type ClaimsBatchSubmitted struct {
	WindowID            string    `json:"window_id"`
	SubmissionReference string    `json:"submission_reference"`
	ClaimCount          int       `json:"claim_count"`
	TotalAmount         float64   `json:"total_amount"`
	OccurredAt          time.Time `json:"occurred_at"`
}

// ClaimAgingAlert is emitted per submitted-but-unpaid claim past the aging
// threshold.
type ClaimAgingAlert struct {
	ClaimID    string    `json:"claim_id"`
	WindowID   string    `json:"window_id"`
	AmountDue  float64   `json:"amount_due"`
	DaysAging  int       `json:"days_aging"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ClaimPaid is emitted on payment confirmation, short-pays included.
type ClaimPaid struct {
	ClaimID    string    `json:"claim_id"`
	AmountPaid float64   `json:"amount_paid"`
	Shortfall  float64   `json:"shortfall"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentConfirmation is consumed from the payments collaborator to drive
// submitted -> paid.
type PaymentConfirmation struct {
	ClaimID    string    `json:"claim_id"`
	AmountPaid float64   `json:"amount_paid"`
	PaidAt     time.Time `json:"paid_at"`
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
