package claims

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// Claim statuses. A claim is a financial record: it is never deleted,
// terminal statuses are never left.
const (
	StatusDraft         = "draft"
	StatusReadyToSubmit = "ready_to_submit"
	StatusUnderReview   = "under_review"
	StatusSubmitted     = "submitted"
	StatusPaid          = "paid"
	StatusDisputed      = "disputed"
	StatusRejected      = "rejected"
)

// allowedTransitions is the full lifecycle graph. ready_to_submit -> submitted
// is additionally restricted to batch submission (enforced in the application
// layer, not here).
var allowedTransitions = map[string][]string{
	StatusDraft:         {StatusReadyToSubmit, StatusUnderReview},
	StatusUnderReview:   {StatusReadyToSubmit, StatusRejected},
	StatusReadyToSubmit: {StatusSubmitted},
	StatusSubmitted:     {StatusPaid, StatusDisputed},
	StatusDisputed:      {StatusPaid},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UPPFClaim is the core aggregate: one monetary claim against the fund for
// one delivery leg. Amount and tariff are frozen at creation time.
type UPPFClaim struct {
	ClaimID              string
	TenantID             string
	WindowID             string
	DeliveryID           string
	RouteID              string
	KmBeyondEqualisation float64
	LitresMoved          float64
	TariffPerLitreKm     float64
	AmountDue            float64
	Currency             string
	Status               string
	EvidenceLinks        []string
	GPSTraceID           string
	Notes                string
	SubmissionReference  string
	SubmittedAt          time.Time
	SubmittedBy          string
	AmountPaid           float64
	PaidAt               time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
	CreatedBy            string
}

// TransitionTo moves the claim to the target status, or fails with
// InvalidStateTransitionError leaving the claim unchanged.
func (c *UPPFClaim) TransitionTo(target string, now time.Time) error {
	if c == nil {
		return ErrNilClaim
	}
	if !CanTransition(c.Status, target) {
		return &InvalidStateTransitionError{ClaimID: c.ClaimID, From: c.Status, To: target}
	}
	c.Status = target
	c.UpdatedAt = now.UTC()
	return nil
}

// RecordSubmission stamps the batch submission fields. Only legal from
// ready_to_submit.
func (c *UPPFClaim) RecordSubmission(reference, actor string, now time.Time) error {
	if err := c.TransitionTo(StatusSubmitted, now); err != nil {
		return err
	}
	c.SubmissionReference = reference
	c.SubmittedAt = now.UTC()
	c.SubmittedBy = actor
	return nil
}

// RecordPayment settles the claim. A short-pay (amountPaid < AmountDue) still
// succeeds; the shortfall is surfaced by the variance dashboard.
func (c *UPPFClaim) RecordPayment(amountPaid float64, paidAt time.Time) error {
	if amountPaid < 0 {
		return ErrNegativeAmount
	}
	if err := c.TransitionTo(StatusPaid, paidAt); err != nil {
		return err
	}
	c.AmountPaid = amountPaid
	c.PaidAt = paidAt.UTC()
	return nil
}

// Shortfall returns the unpaid remainder for paid claims, zero otherwise.
func (c *UPPFClaim) Shortfall() float64 {
	if c == nil || c.Status != StatusPaid {
		return 0
	}
	if c.AmountPaid >= c.AmountDue {
		return 0
	}
	return c.AmountDue - c.AmountPaid
}

// NewClaimID builds a window-scoped human-readable claim identifier.
func NewClaimID(windowID string, now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	suffix := "000"
	if err == nil {
		suffix = fmt.Sprintf("%03d", n.Int64())
	}
	return "UPPF-" + windowID + "-" + millis + "-" + suffix
}

// NewSubmissionReference builds the shared reference for one window batch.
func NewSubmissionReference(windowID string, now time.Time) string {
	return "UPPF-" + windowID + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}
