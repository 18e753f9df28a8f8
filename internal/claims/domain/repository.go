package claims

import (
	"context"
	"time"
)

// DeliveryRepository reads delivery consignments owned by logistics.
type DeliveryRepository interface {
	Get(ctx context.Context, deliveryID string) (*DeliveryConsignment, error)
}

// EqualisationRepository resolves the equalisation point in force for a route
// at a point in time. The backing table is append-only.
type EqualisationRepository interface {
	LatestForRoute(ctx context.Context, routeID string, asOf time.Time) (*EqualisationPoint, error)
}

// ClaimRepository persists claims and their GPS traces.
type ClaimRepository interface {
	// CreateWithTrace inserts the claim and optional trace in one
	// transaction, serialized per delivery id. A second claim for the same
	// delivery fails with ErrDuplicateDelivery.
	CreateWithTrace(ctx context.Context, claim *UPPFClaim, trace *GPSTrace) error
	GetByClaimID(ctx context.Context, claimID string) (*UPPFClaim, error)
	// UpdateStatus applies a transition with compare-and-set semantics on the
	// source status; a concurrent move fails the update.
	UpdateStatus(ctx context.Context, claim *UPPFClaim, fromStatus string) error
	// SubmitWindow transitions every ready_to_submit claim in the window to
	// submitted in one all-or-nothing transaction and returns the stamped
	// claims. Empty windows fail with ErrNoSubmittableClaims.
	SubmitWindow(ctx context.Context, windowID, reference, actor string, now time.Time) ([]UPPFClaim, error)
	ListBySubmissionReference(ctx context.Context, reference string) ([]UPPFClaim, error)
	ListSubmittedBefore(ctx context.Context, cutoff time.Time) ([]UPPFClaim, error)
	// ListSubmittedOrSettled returns claims that ever reached submission,
	// newest first, for the variance dashboard.
	ListSubmittedOrSettled(ctx context.Context, limit int) ([]UPPFClaim, error)
}

// GPSTraceRepository reads finalized traces.
type GPSTraceRepository interface {
	GetByDeliveryID(ctx context.Context, deliveryID string) (*GPSTrace, error)
}
