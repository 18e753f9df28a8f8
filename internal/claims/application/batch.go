package application

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"uppf-engine/internal/audit"
	claims "uppf-engine/internal/claims/domain"
	"uppf-engine/internal/observability/metrics"
)

// BatchResult is returned from a successful window submission.
type BatchResult struct {
	SubmittedClaimIDs   []string
	TotalAmount         float64
	SubmissionReference string
}

// SubmissionLine is one claim in the regulator filing.
type SubmissionLine struct {
	ClaimID              string
	WindowID             string
	RouteID              string
	DeliveryID           string
	KmBeyondEqualisation float64
	LitresMoved          float64
	TariffPerLitreKm     float64
	AmountDue            float64
	EvidenceLinks        []string
}

// SubmissionPackage contains everything required for regulator filing.
type SubmissionPackage struct {
	SubmissionReference string
	SubmissionDate      time.Time
	WindowID            string
	ClaimCount          int
	TotalAmount         float64
	Currency            string
	Lines               []SubmissionLine
}

// BatchSubmissionService groups all ready claims in a pricing window into one
// regulator submission with a single shared reference.
type BatchSubmissionService struct {
	repo        claims.ClaimRepository
	publisher   EventPublisher
	auditLogger audit.Logger
	clock       Clock
	logger      *log.Logger
	tenantID    string
	currency    string
}

// NewBatchSubmissionService constructs the service.
func NewBatchSubmissionService(repo claims.ClaimRepository, publisher EventPublisher, auditLogger audit.Logger, tenantID, currency string, clock Clock, logger *log.Logger) (*BatchSubmissionService, error) {
	if repo == nil {
		return nil, errors.New("batch submission: nil claim repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if currency == "" {
		currency = "GHS"
	}
	return &BatchSubmissionService{
		repo:        repo,
		publisher:   publisher,
		auditLogger: auditLogger,
		clock:       clock,
		logger:      logger,
		tenantID:    tenantID,
		currency:    currency,
	}, nil
}

// SubmitBatch transitions every ready_to_submit claim in the window to
// submitted under one reference, all-or-nothing. An empty window fails with
// ErrNoSubmittableClaims and changes nothing.
func (s *BatchSubmissionService) SubmitBatch(ctx context.Context, windowID, actor string) (*BatchResult, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveBatchSubmit(result, time.Since(start))
	}()

	if windowID == "" {
		result = metrics.ResultError
		return nil, errors.New("batch submission: window id required")
	}

	now := s.clock.Now()
	reference := claims.NewSubmissionReference(windowID, now)
	submitted, err := s.repo.SubmitWindow(ctx, windowID, reference, actor, now)
	if err != nil {
		if claims.IsBusinessRejection(err) {
			result = metrics.ResultRejected
		} else {
			result = metrics.ResultError
		}
		return nil, err
	}

	batch := &BatchResult{SubmissionReference: reference}
	for _, claim := range submitted {
		batch.SubmittedClaimIDs = append(batch.SubmittedClaimIDs, claim.ClaimID)
		batch.TotalAmount += claim.AmountDue
	}

	if s.publisher != nil {
		event := ClaimsBatchSubmitted{
			WindowID:            windowID,
			SubmissionReference: reference,
			ClaimCount:          len(submitted),
			TotalAmount:         batch.TotalAmount,
			OccurredAt:          now,
		}
		if err := s.publisher.Publish(ctx, event); err != nil && s.logger != nil {
			s.logger.Printf("event publish error: %v", err)
		}
	}
	if s.auditLogger != nil {
		payload, _ := json.Marshal(map[string]any{
			"window_id": windowID, "claim_count": len(submitted), "total_amount": batch.TotalAmount,
		})
		_ = s.auditLogger.Log(ctx, audit.Entry{
			TenantID:     s.tenantID,
			Actor:        actor,
			Action:       "claims.batch_submit",
			ResourceType: "uppf_submission",
			ResourceID:   reference,
			Metadata:     payload,
		})
	}
	if s.logger != nil {
		s.logger.Printf("batch submitted: window=%s ref=%s claims=%d total=%s%.2f",
			windowID, reference, len(submitted), s.currency, batch.TotalAmount)
	}
	return batch, nil
}

// BuildPackage assembles the regulator filing for a past submission.
func (s *BatchSubmissionService) BuildPackage(ctx context.Context, reference string) (*SubmissionPackage, error) {
	if reference == "" {
		return nil, errors.New("batch submission: reference required")
	}
	submitted, err := s.repo.ListBySubmissionReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if len(submitted) == 0 {
		return nil, claims.ErrClaimNotFound
	}

	pkg := &SubmissionPackage{
		SubmissionReference: reference,
		SubmissionDate:      submitted[0].SubmittedAt,
		WindowID:            submitted[0].WindowID,
		ClaimCount:          len(submitted),
		Currency:            s.currency,
	}
	for _, claim := range submitted {
		pkg.TotalAmount += claim.AmountDue
		pkg.Lines = append(pkg.Lines, SubmissionLine{
			ClaimID:              claim.ClaimID,
			WindowID:             claim.WindowID,
			RouteID:              claim.RouteID,
			DeliveryID:           claim.DeliveryID,
			KmBeyondEqualisation: claim.KmBeyondEqualisation,
			LitresMoved:          claim.LitresMoved,
			TariffPerLitreKm:     claim.TariffPerLitreKm,
			AmountDue:            claim.AmountDue,
			EvidenceLinks:        claim.EvidenceLinks,
		})
	}
	return pkg, nil
}
