package application

import (
	"errors"
	"math"
	"testing"
	"time"

	claims "uppf-engine/internal/claims/domain"
)

func testPoint(threshold, tariff float64) *claims.EqualisationPoint {
	return &claims.EqualisationPoint{
		ID:               "eq-1",
		TenantID:         "tenant-1",
		RouteID:          "route-tema-kumasi",
		KmThreshold:      threshold,
		TariffPerLitreKm: tariff,
		EffectiveFrom:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestComputeClaim_Formula(t *testing.T) {
	now := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	in := ClaimInput{
		DeliveryID:  "del-1",
		RouteID:     "route-tema-kumasi",
		KmActual:    120,
		LitresMoved: 9960,
		WindowID:    "2026-W06",
	}
	claim, err := ComputeClaim(in, testPoint(80, 0.05), "tenant-1", "GHS", "ops", now)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if claim.KmBeyondEqualisation != 40 {
		t.Fatalf("km beyond = %.1f, want 40", claim.KmBeyondEqualisation)
	}
	if math.Abs(claim.AmountDue-19920) > 0.0001 {
		t.Fatalf("amount due = %.4f, want 19920", claim.AmountDue)
	}
	if claim.Status != claims.StatusDraft {
		t.Fatalf("status = %s, want draft", claim.Status)
	}
	if claim.TariffPerLitreKm != 0.05 {
		t.Fatalf("tariff not snapshotted: %.4f", claim.TariffPerLitreKm)
	}
}

func TestComputeClaim_WithinThreshold(t *testing.T) {
	now := time.Now().UTC()
	in := ClaimInput{
		DeliveryID:  "del-1",
		RouteID:     "route-short",
		KmActual:    75,
		LitresMoved: 5000,
		WindowID:    "2026-W06",
	}
	_, err := ComputeClaim(in, testPoint(80, 0.05), "tenant-1", "GHS", "ops", now)
	if !errors.Is(err, claims.ErrNoClaimApplicable) {
		t.Fatalf("expected ErrNoClaimApplicable, got %v", err)
	}
	if !claims.IsBusinessRejection(err) {
		t.Fatal("no-claim outcome should classify as business rejection")
	}
}

func TestComputeClaim_ExactThreshold(t *testing.T) {
	in := ClaimInput{
		DeliveryID:  "del-1",
		RouteID:     "route-short",
		KmActual:    80,
		LitresMoved: 5000,
		WindowID:    "2026-W06",
	}
	_, err := ComputeClaim(in, testPoint(80, 0.05), "tenant-1", "GHS", "ops", time.Now().UTC())
	if !errors.Is(err, claims.ErrNoClaimApplicable) {
		t.Fatalf("distance equal to threshold must not claim, got %v", err)
	}
}

func TestComputeClaim_Validation(t *testing.T) {
	now := time.Now().UTC()
	cases := []ClaimInput{
		{RouteID: "r", WindowID: "w", KmActual: 100, LitresMoved: 100},
		{DeliveryID: "d", WindowID: "w", KmActual: 100, LitresMoved: 100},
		{DeliveryID: "d", RouteID: "r", KmActual: 100, LitresMoved: 100},
		{DeliveryID: "d", RouteID: "r", WindowID: "w", KmActual: 0, LitresMoved: 100},
		{DeliveryID: "d", RouteID: "r", WindowID: "w", KmActual: 100, LitresMoved: -1},
	}
	for i, in := range cases {
		if _, err := ComputeClaim(in, testPoint(80, 0.05), "tenant-1", "GHS", "ops", now); !errors.Is(err, claims.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestEqualisationPoint_KmBeyondFloor(t *testing.T) {
	point := testPoint(150, 0.05)
	if got := point.KmBeyond(100); got != 0 {
		t.Fatalf("km beyond = %.1f, want 0", got)
	}
	if got := point.KmBeyond(151.5); math.Abs(got-1.5) > 0.0001 {
		t.Fatalf("km beyond = %.2f, want 1.5", got)
	}
}
