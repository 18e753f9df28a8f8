package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	claims "uppf-engine/internal/claims/domain"
)

// ClaimRepository is an in-memory claim store.
type ClaimRepository struct {
	mu         sync.RWMutex
	data       map[string]*claims.UPPFClaim
	traces     map[string]*claims.GPSTrace
	byDelivery map[string]string
}

// NewClaimRepository constructs a repository.
func NewClaimRepository() *ClaimRepository {
	return &ClaimRepository{
		data:       make(map[string]*claims.UPPFClaim),
		traces:     make(map[string]*claims.GPSTrace),
		byDelivery: make(map[string]string),
	}
}

// CreateWithTrace stores the claim and optional trace atomically.
func (r *ClaimRepository) CreateWithTrace(ctx context.Context, claim *claims.UPPFClaim, trace *claims.GPSTrace) error {
	_ = ctx
	if claim == nil {
		return claims.ErrNilClaim
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existingID, ok := r.byDelivery[claim.DeliveryID]; ok {
		if existing := r.data[existingID]; existing != nil && existing.Status != claims.StatusRejected {
			return fmt.Errorf("%w: delivery %s", claims.ErrDuplicateDelivery, claim.DeliveryID)
		}
	}
	copied := *claim
	r.data[claim.ClaimID] = &copied
	r.byDelivery[claim.DeliveryID] = claim.ClaimID
	if trace != nil {
		copiedTrace := *trace
		r.traces[trace.DeliveryID] = &copiedTrace
	}
	return nil
}

// GetByClaimID fetches a claim.
func (r *ClaimRepository) GetByClaimID(ctx context.Context, claimID string) (*claims.UPPFClaim, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	claim, ok := r.data[claimID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", claims.ErrClaimNotFound, claimID)
	}
	copied := *claim
	return &copied, nil
}

// UpdateStatus applies a compare-and-set status move.
func (r *ClaimRepository) UpdateStatus(ctx context.Context, claim *claims.UPPFClaim, fromStatus string) error {
	_ = ctx
	if claim == nil {
		return claims.ErrNilClaim
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.data[claim.ClaimID]
	if !ok {
		return fmt.Errorf("%w: %s", claims.ErrClaimNotFound, claim.ClaimID)
	}
	if current.Status != fromStatus {
		return &claims.InvalidStateTransitionError{ClaimID: claim.ClaimID, From: fromStatus, To: claim.Status}
	}
	copied := *claim
	r.data[claim.ClaimID] = &copied
	return nil
}

// SubmitWindow stamps every ready_to_submit claim in the window.
func (r *ClaimRepository) SubmitWindow(ctx context.Context, windowID, reference, actor string, now time.Time) ([]claims.UPPFClaim, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var submitted []claims.UPPFClaim
	for _, claim := range r.data {
		if claim.WindowID != windowID || claim.Status != claims.StatusReadyToSubmit {
			continue
		}
		claim.Status = claims.StatusSubmitted
		claim.SubmissionReference = reference
		claim.SubmittedAt = now
		claim.SubmittedBy = actor
		claim.UpdatedAt = now
		submitted = append(submitted, *claim)
	}
	if len(submitted) == 0 {
		return nil, fmt.Errorf("%w: window %s", claims.ErrNoSubmittableClaims, windowID)
	}
	sort.Slice(submitted, func(i, j int) bool {
		return submitted[i].CreatedAt.Before(submitted[j].CreatedAt)
	})
	return submitted, nil
}

// ListBySubmissionReference returns claims stamped with the reference.
func (r *ClaimRepository) ListBySubmissionReference(ctx context.Context, reference string) ([]claims.UPPFClaim, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []claims.UPPFClaim
	for _, claim := range r.data {
		if claim.SubmissionReference == reference {
			result = append(result, *claim)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// ListSubmittedBefore returns unpaid submitted claims older than the cutoff.
func (r *ClaimRepository) ListSubmittedBefore(ctx context.Context, cutoff time.Time) ([]claims.UPPFClaim, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []claims.UPPFClaim
	for _, claim := range r.data {
		if claim.Status == claims.StatusSubmitted && claim.SubmittedAt.Before(cutoff) {
			result = append(result, *claim)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmittedAt.Before(result[j].SubmittedAt)
	})
	return result, nil
}

// ListSubmittedOrSettled returns claims that reached submission.
func (r *ClaimRepository) ListSubmittedOrSettled(ctx context.Context, limit int) ([]claims.UPPFClaim, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []claims.UPPFClaim
	for _, claim := range r.data {
		switch claim.Status {
		case claims.StatusSubmitted, claims.StatusPaid, claims.StatusDisputed:
			result = append(result, *claim)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmittedAt.After(result[j].SubmittedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetByDeliveryID returns the stored trace, or nil.
func (r *ClaimRepository) GetByDeliveryID(ctx context.Context, deliveryID string) (*claims.GPSTrace, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	trace, ok := r.traces[deliveryID]
	if !ok {
		return nil, nil
	}
	copied := *trace
	return &copied, nil
}

// DeliveryRepository is an in-memory consignment store.
type DeliveryRepository struct {
	mu   sync.RWMutex
	data map[string]*claims.DeliveryConsignment
}

// NewDeliveryRepository constructs a repository.
func NewDeliveryRepository() *DeliveryRepository {
	return &DeliveryRepository{data: make(map[string]*claims.DeliveryConsignment)}
}

// Put stores a consignment.
func (r *DeliveryRepository) Put(delivery *claims.DeliveryConsignment) {
	if delivery == nil {
		return
	}
	copied := *delivery
	r.mu.Lock()
	r.data[delivery.ID] = &copied
	r.mu.Unlock()
}

// Get fetches one consignment.
func (r *DeliveryRepository) Get(ctx context.Context, deliveryID string) (*claims.DeliveryConsignment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	delivery, ok := r.data[deliveryID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", claims.ErrDeliveryNotFound, deliveryID)
	}
	copied := *delivery
	return &copied, nil
}

// EqualisationRepository is an in-memory append-only point store.
type EqualisationRepository struct {
	mu     sync.RWMutex
	points []claims.EqualisationPoint
}

// NewEqualisationRepository constructs a repository.
func NewEqualisationRepository() *EqualisationRepository {
	return &EqualisationRepository{}
}

// Append adds a point.
func (r *EqualisationRepository) Append(point claims.EqualisationPoint) {
	r.mu.Lock()
	r.points = append(r.points, point)
	r.mu.Unlock()
}

// LatestForRoute resolves the point in force for the route at asOf.
func (r *EqualisationRepository) LatestForRoute(ctx context.Context, routeID string, asOf time.Time) (*claims.EqualisationPoint, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *claims.EqualisationPoint
	for i := range r.points {
		point := &r.points[i]
		if point.RouteID != routeID || point.EffectiveFrom.After(asOf) {
			continue
		}
		if best == nil || point.EffectiveFrom.After(best.EffectiveFrom) {
			best = point
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: route %s", claims.ErrEqualisationNotFound, routeID)
	}
	copied := *best
	return &copied, nil
}
