package application

import (
	"context"
	"testing"
	"time"

	claims "uppf-engine/internal/claims/domain"
	"uppf-engine/internal/claims/infrastructure/memory"
)

type capturingSink struct {
	alerts []ClaimAgingAlert
}

func (s *capturingSink) NotifyAging(ctx context.Context, alert ClaimAgingAlert) error {
	_ = ctx
	s.alerts = append(s.alerts, alert)
	return nil
}

func seedSubmittedClaim(t *testing.T, repo *memory.ClaimRepository, claimID string, amount float64, submittedAt time.Time) {
	t.Helper()
	err := repo.CreateWithTrace(context.Background(), &claims.UPPFClaim{
		ClaimID:             claimID,
		TenantID:            "tenant-1",
		WindowID:            "2026-W01",
		DeliveryID:          "del-" + claimID,
		RouteID:             "route-1",
		AmountDue:           amount,
		Currency:            "GHS",
		Status:              claims.StatusSubmitted,
		SubmissionReference: "UPPF-2026-W01-1",
		SubmittedAt:         submittedAt,
		CreatedAt:           submittedAt,
		UpdatedAt:           submittedAt,
	}, nil)
	if err != nil {
		t.Fatalf("seed claim %s: %v", claimID, err)
	}
}

func TestCheckAgingClaims(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := memory.NewClaimRepository()
	publisher := &capturingPublisher{}
	sink := &capturingSink{}
	seedSubmittedClaim(t, repo, "old", 1000, now.AddDate(0, 0, -45))
	seedSubmittedClaim(t, repo, "fresh", 2000, now.AddDate(0, 0, -5))

	monitor, err := NewVarianceAgingMonitor(repo, publisher, fixedClock{now: now}, nil, WithAgingAlertSink(sink))
	if err != nil {
		t.Fatalf("monitor construction failed: %v", err)
	}
	alerts, err := monitor.CheckAgingClaims(context.Background())
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].ClaimID != "old" || alerts[0].DaysAging != 45 {
		t.Fatalf("unexpected alert: %+v", alerts[0])
	}
	if len(sink.alerts) != 1 {
		t.Fatalf("sink received %d alerts, want 1", len(sink.alerts))
	}
	if events := publisher.byType(func(e any) bool { _, ok := e.(ClaimAgingAlert); return ok }); len(events) != 1 {
		t.Fatalf("expected 1 published alert, got %d", len(events))
	}
}

func TestCheckAgingClaims_Idempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := memory.NewClaimRepository()
	seedSubmittedClaim(t, repo, "old", 1000, now.AddDate(0, 0, -31))

	monitor, err := NewVarianceAgingMonitor(repo, nil, fixedClock{now: now}, nil)
	if err != nil {
		t.Fatalf("monitor construction failed: %v", err)
	}
	first, err := monitor.CheckAgingClaims(context.Background())
	if err != nil {
		t.Fatalf("first check failed: %v", err)
	}
	second, err := monitor.CheckAgingClaims(context.Background())
	if err != nil {
		t.Fatalf("second check failed: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("aging check not deterministic: %d then %d", len(first), len(second))
	}
	if first[0].ClaimID != second[0].ClaimID || first[0].DaysAging != second[0].DaysAging {
		t.Fatalf("alert drifted between runs: %+v vs %+v", first[0], second[0])
	}
}

func TestDashboard(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := memory.NewClaimRepository()
	seedSubmittedClaim(t, repo, "pending-young", 500, now.AddDate(0, 0, -10))
	seedSubmittedClaim(t, repo, "pending-mid", 600, now.AddDate(0, 0, -40))
	seedSubmittedClaim(t, repo, "pending-old", 700, now.AddDate(0, 0, -70))
	seedSubmittedClaim(t, repo, "pending-ancient", 800, now.AddDate(0, 0, -120))
	seedSubmittedClaim(t, repo, "shortpaid", 1000, now.AddDate(0, 0, -50))

	shortpaid, err := repo.GetByClaimID(context.Background(), "shortpaid")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := shortpaid.RecordPayment(800, now.AddDate(0, 0, -2)); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if err := repo.UpdateStatus(context.Background(), shortpaid, claims.StatusSubmitted); err != nil {
		t.Fatalf("update: %v", err)
	}

	monitor, err := NewVarianceAgingMonitor(repo, nil, fixedClock{now: now}, nil)
	if err != nil {
		t.Fatalf("monitor construction failed: %v", err)
	}
	snapshot, err := monitor.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}

	if snapshot.Summary.TotalSubmitted != 3600 {
		t.Fatalf("total submitted = %.2f, want 3600", snapshot.Summary.TotalSubmitted)
	}
	if snapshot.Summary.TotalPaid != 800 {
		t.Fatalf("total paid = %.2f, want 800", snapshot.Summary.TotalPaid)
	}
	if snapshot.Summary.TotalPending != 2600 {
		t.Fatalf("total pending = %.2f, want 2600", snapshot.Summary.TotalPending)
	}
	if snapshot.Summary.ShortPayAmount != 200 {
		t.Fatalf("short pay = %.2f, want 200", snapshot.Summary.ShortPayAmount)
	}

	if snapshot.Aging.Under30Days != 1 || snapshot.Aging.Days30to60 != 1 ||
		snapshot.Aging.Days60to90 != 1 || snapshot.Aging.Over90Days != 1 {
		t.Fatalf("unexpected aging histogram: %+v", snapshot.Aging)
	}

	if len(snapshot.PaymentVariances) != 1 {
		t.Fatalf("expected 1 payment variance, got %d", len(snapshot.PaymentVariances))
	}
	variance := snapshot.PaymentVariances[0]
	if variance.Expected != 1000 || variance.Received != 800 || variance.Variance != 200 {
		t.Fatalf("unexpected variance entry: %+v", variance)
	}
}

func TestDashboard_Empty(t *testing.T) {
	repo := memory.NewClaimRepository()
	monitor, err := NewVarianceAgingMonitor(repo, nil, nil, nil)
	if err != nil {
		t.Fatalf("monitor construction failed: %v", err)
	}
	snapshot, err := monitor.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if snapshot.Summary.TotalSubmitted != 0 || snapshot.Summary.TotalPending != 0 {
		t.Fatalf("expected zero summary: %+v", snapshot.Summary)
	}
	if snapshot.PaymentVariances == nil || len(snapshot.PaymentVariances) != 0 {
		t.Fatal("payment variances must be an empty slice, not nil")
	}
}
