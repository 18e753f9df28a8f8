package claims

import (
	"errors"
	"fmt"
)

var (
	// ErrDeliveryNotFound is returned when the delivery consignment does not exist.
	ErrDeliveryNotFound = errors.New("claims: delivery consignment not found")
	// ErrEqualisationNotFound is returned when no equalisation point covers the route.
	ErrEqualisationNotFound = errors.New("claims: equalisation point not found for route")
	// ErrClaimNotFound is returned when a claim id does not resolve.
	ErrClaimNotFound = errors.New("claims: claim not found")
	// ErrTraceNotFound is returned when no GPS trace was captured for a claim.
	ErrTraceNotFound = errors.New("claims: gps trace not found")
	// ErrNoClaimApplicable is a business outcome, not a failure: the actual
	// distance does not exceed the equalisation threshold.
	ErrNoClaimApplicable = errors.New("claims: no claim applicable, distance within equalisation threshold")
	// ErrNoSubmittableClaims is returned when a window has no ready_to_submit claims.
	ErrNoSubmittableClaims = errors.New("claims: no claims ready to submit for window")
	// ErrDuplicateDelivery is returned when a claim already exists for the delivery.
	ErrDuplicateDelivery = errors.New("claims: claim already exists for delivery")
	// ErrBatchSubmitOnly is returned when a caller tries to submit a single
	// claim: the regulator reconciles at batch granularity, so submission
	// only happens per window with one shared reference.
	ErrBatchSubmitOnly = errors.New("claims: claims are submitted per window batch, not individually")
	// ErrNilClaim is returned when operating on a nil aggregate.
	ErrNilClaim = errors.New("claims: nil claim")
	// ErrNegativeAmount is returned when a payment amount is negative.
	ErrNegativeAmount = errors.New("claims: negative amount")
	// ErrInvalidInput is returned when claim creation input fails validation.
	ErrInvalidInput = errors.New("claims: invalid input")
)

// InvalidStateTransitionError names the current and attempted states of a
// rejected lifecycle move. The claim is left unchanged.
type InvalidStateTransitionError struct {
	ClaimID string
	From    string
	To      string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("claims: invalid state transition %s -> %s for claim %s", e.From, e.To, e.ClaimID)
}

// IsBusinessRejection reports whether the error is an expected business
// outcome rather than a technical failure. Callers use it to pick the
// user-facing response shape.
func IsBusinessRejection(err error) bool {
	return errors.Is(err, ErrNoClaimApplicable) || errors.Is(err, ErrNoSubmittableClaims)
}
