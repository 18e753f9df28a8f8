package application

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"uppf-engine/internal/audit"
	claims "uppf-engine/internal/claims/domain"
	"uppf-engine/internal/observability/metrics"
)

// ClaimService orchestrates claim creation and lifecycle transitions. The
// engines it calls are pure; all I/O happens here, so many claims can run
// concurrently across different deliveries without contention.
type ClaimService struct {
	repo         claims.ClaimRepository
	deliveries   claims.DeliveryRepository
	equalisation claims.EqualisationRepository
	traces       claims.GPSTraceRepository
	analyzer     *GeoTraceAnalyzer
	reconciler   *ReconciliationEngine
	publisher    EventPublisher
	auditLogger  audit.Logger
	clock        Clock
	logger       *log.Logger
	tenantID     string
	currency     string
}

// ClaimServiceOption configures the service.
type ClaimServiceOption func(*ClaimService)

// WithAuditLogger records manual decisions in the audit log.
func WithAuditLogger(logger audit.Logger) ClaimServiceOption {
	return func(s *ClaimService) { s.auditLogger = logger }
}

// WithCurrency overrides the claim currency.
func WithCurrency(currency string) ClaimServiceOption {
	return func(s *ClaimService) {
		if currency != "" {
			s.currency = currency
		}
	}
}

// WithTraceReader enables GPS trace retrieval for settled claims.
func WithTraceReader(traces claims.GPSTraceRepository) ClaimServiceOption {
	return func(s *ClaimService) { s.traces = traces }
}

// WithClock overrides the clock.
func WithClock(clock Clock) ClaimServiceOption {
	return func(s *ClaimService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewClaimService constructs the service.
func NewClaimService(
	repo claims.ClaimRepository,
	deliveries claims.DeliveryRepository,
	equalisation claims.EqualisationRepository,
	analyzer *GeoTraceAnalyzer,
	reconciler *ReconciliationEngine,
	publisher EventPublisher,
	tenantID string,
	logger *log.Logger,
	opts ...ClaimServiceOption,
) (*ClaimService, error) {
	if repo == nil {
		return nil, errors.New("claim service: nil claim repository")
	}
	if deliveries == nil {
		return nil, errors.New("claim service: nil delivery repository")
	}
	if equalisation == nil {
		return nil, errors.New("claim service: nil equalisation repository")
	}
	if analyzer == nil {
		analyzer = NewGeoTraceAnalyzer(nil)
	}
	if reconciler == nil {
		reconciler = NewReconciliationEngine(DefaultTolerances())
	}
	service := &ClaimService{
		repo:         repo,
		deliveries:   deliveries,
		equalisation: equalisation,
		analyzer:     analyzer,
		reconciler:   reconciler,
		publisher:    publisher,
		clock:        SystemClock{},
		logger:       logger,
		tenantID:     tenantID,
		currency:     "GHS",
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// CreateClaim computes and persists one claim for a delivery. Compute,
// reconcile and initial-state assignment land in a single repository
// transaction; a failure leaves no partial claim record.
func (s *ClaimService) CreateClaim(ctx context.Context, in ClaimInput, actor string) (*claims.UPPFClaim, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveClaimCreate(result, time.Since(start))
	}()

	claim, trace, reconciliation, err := s.buildClaim(ctx, in, actor)
	if err != nil {
		if claims.IsBusinessRejection(err) {
			result = metrics.ResultRejected
		} else {
			result = metrics.ResultError
		}
		return nil, err
	}

	if err := s.repo.CreateWithTrace(ctx, claim, trace); err != nil {
		result = metrics.ResultError
		return nil, err
	}

	now := s.clock.Now()
	if reconciliation.HasVariances {
		metrics.CountVarianceFlagged(len(reconciliation.Variances))
		s.publish(ctx, ClaimVarianceFlagged{
			ClaimID:    claim.ClaimID,
			Variances:  reconciliation.Variances,
			OccurredAt: now,
		})
	}
	s.publish(ctx, ClaimCreated{
		ClaimID:    claim.ClaimID,
		DeliveryID: claim.DeliveryID,
		RouteID:    claim.RouteID,
		AmountDue:  claim.AmountDue,
		OccurredAt: now,
	})

	if s.logger != nil {
		s.logger.Printf("claim created: id=%s %.1fkm x %.0fL x %s%.4f = %s%.2f status=%s",
			claim.ClaimID, claim.KmBeyondEqualisation, claim.LitresMoved,
			claim.Currency, claim.TariffPerLitreKm, claim.Currency, claim.AmountDue, claim.Status)
	}
	return claim, nil
}

// buildClaim runs the pure pipeline: lookup, compute, analyze, reconcile,
// initial state. No persistence happens here.
func (s *ClaimService) buildClaim(ctx context.Context, in ClaimInput, actor string) (*claims.UPPFClaim, *claims.GPSTrace, ReconciliationResult, error) {
	var empty ReconciliationResult
	if err := in.Validate(); err != nil {
		return nil, nil, empty, err
	}

	delivery, err := s.deliveries.Get(ctx, in.DeliveryID)
	if err != nil {
		return nil, nil, empty, err
	}
	if delivery == nil {
		return nil, nil, empty, claims.ErrDeliveryNotFound
	}

	now := s.clock.Now()
	point, err := s.equalisation.LatestForRoute(ctx, in.RouteID, now)
	if err != nil {
		return nil, nil, empty, err
	}

	claim, err := ComputeClaim(in, point, s.tenantID, s.currency, actor, now)
	if err != nil {
		return nil, nil, empty, err
	}

	var trace *claims.GPSTrace
	var analysis *TraceAnalysis
	if len(in.GPSPoints) > 0 {
		result := s.analyzer.Analyze(in.GPSPoints)
		analysis = &result
		trace = claims.NewGPSTrace("", s.tenantID, in.DeliveryID, in.GPSPoints, result.TotalKm, now)
	}

	reconciliation := s.reconciler.Reconcile(delivery, in.LitresMoved, in.KmActual, analysis)
	findings := append([]string(nil), reconciliation.Variances...)
	if analysis != nil {
		findings = append(findings, analysis.Anomalies...)
	}
	reconciliation.Variances = findings
	reconciliation.HasVariances = len(findings) > 0

	if reconciliation.HasVariances {
		if err := claim.TransitionTo(claims.StatusUnderReview, now); err != nil {
			return nil, nil, empty, err
		}
		claim.Notes = "Variances detected: " + strings.Join(findings, ", ")
	} else {
		if err := claim.TransitionTo(claims.StatusReadyToSubmit, now); err != nil {
			return nil, nil, empty, err
		}
	}
	if trace != nil {
		claim.GPSTraceID = trace.ID
	}
	return claim, trace, reconciliation, nil
}

// Get loads a claim by id.
func (s *ClaimService) Get(ctx context.Context, claimID string) (*claims.UPPFClaim, error) {
	claim, err := s.repo.GetByClaimID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, claims.ErrClaimNotFound
	}
	return claim, nil
}

// Trace returns the GPS trace captured for a claim's delivery.
func (s *ClaimService) Trace(ctx context.Context, claimID string) (*claims.GPSTrace, error) {
	if s.traces == nil {
		return nil, claims.ErrTraceNotFound
	}
	claim, err := s.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	trace, err := s.traces.GetByDeliveryID(ctx, claim.DeliveryID)
	if err != nil {
		return nil, err
	}
	if trace == nil {
		return nil, claims.ErrTraceNotFound
	}
	return trace, nil
}

// Transition applies a manual review decision. Submission is refused here:
// claims reach submitted only through the batch manager.
func (s *ClaimService) Transition(ctx context.Context, claimID, target, actor, notes string) (*claims.UPPFClaim, error) {
	if target == claims.StatusSubmitted {
		return nil, claims.ErrBatchSubmitOnly
	}
	claim, err := s.repo.GetByClaimID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, claims.ErrClaimNotFound
	}

	from := claim.Status
	if err := claim.TransitionTo(target, s.clock.Now()); err != nil {
		return nil, err
	}
	if notes != "" {
		if claim.Notes != "" {
			claim.Notes += "\n"
		}
		claim.Notes += notes
	}
	if err := s.repo.UpdateStatus(ctx, claim, from); err != nil {
		return nil, err
	}
	s.logAudit(ctx, actor, "claim.transition", claim.ClaimID, map[string]any{
		"from": from, "to": target, "notes": notes,
	})
	if s.logger != nil {
		s.logger.Printf("claim transition: id=%s %s -> %s actor=%s", claim.ClaimID, from, target, actor)
	}
	return claim, nil
}

// HandlePaymentConfirmed consumes a payment confirmation and settles the
// claim. A short-pay succeeds; the shortfall is left to the variance
// dashboard to surface.
func (s *ClaimService) HandlePaymentConfirmed(ctx context.Context, confirmation PaymentConfirmation) error {
	claim, err := s.repo.GetByClaimID(ctx, confirmation.ClaimID)
	if err != nil {
		return err
	}
	if claim == nil {
		return claims.ErrClaimNotFound
	}

	from := claim.Status
	paidAt := confirmation.PaidAt
	if paidAt.IsZero() {
		paidAt = s.clock.Now()
	}
	if err := claim.RecordPayment(confirmation.AmountPaid, paidAt); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, claim, from); err != nil {
		return err
	}

	shortfall := claim.Shortfall()
	if shortfall > 0 {
		metrics.CountShortPay()
		if s.logger != nil {
			s.logger.Printf("short-pay: claim=%s expected=%.2f received=%.2f", claim.ClaimID, claim.AmountDue, claim.AmountPaid)
		}
	}
	s.publish(ctx, ClaimPaid{
		ClaimID:    claim.ClaimID,
		AmountPaid: claim.AmountPaid,
		Shortfall:  shortfall,
		OccurredAt: paidAt,
	})
	return nil
}

func (s *ClaimService) publish(ctx context.Context, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.Printf("event publish error: %v", err)
	}
}

func (s *ClaimService) logAudit(ctx context.Context, actor, action, resourceID string, metadata map[string]any) {
	if s.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(metadata)
	_ = s.auditLogger.Log(ctx, audit.Entry{
		TenantID:     s.tenantID,
		Actor:        actor,
		Action:       action,
		ResourceType: "uppf_claim",
		ResourceID:   resourceID,
		Metadata:     payload,
	})
}
