package application

import (
	"strings"
	"testing"

	claims "uppf-engine/internal/claims/domain"
)

func testDelivery(loaded, received float64) *claims.DeliveryConsignment {
	return &claims.DeliveryConsignment{
		ID:             "del-1",
		TenantID:       "tenant-1",
		RouteID:        "route-1",
		LitresLoaded:   loaded,
		LitresReceived: received,
		ReceivedKnown:  true,
	}
}

func TestReconcile_Clean(t *testing.T) {
	engine := NewReconciliationEngine(DefaultTolerances())
	result := engine.Reconcile(testDelivery(10000, 9960), 9960, 120, nil)
	if result.HasVariances {
		t.Fatalf("unexpected variances: %v", result.Variances)
	}
	if result.Detail.VolumeVariance != 40 {
		t.Fatalf("volume variance = %.1f, want 40", result.Detail.VolumeVariance)
	}
}

func TestReconcile_VolumeVarianceAtBoundary(t *testing.T) {
	engine := NewReconciliationEngine(DefaultTolerances())
	// Exactly 50L is within tolerance, 50.1L is not.
	if result := engine.Reconcile(testDelivery(10000, 9950), 9950, 120, nil); result.HasVariances {
		t.Fatalf("50L variance should pass: %v", result.Variances)
	}
	result := engine.Reconcile(testDelivery(10000, 9949.9), 9949.9, 120, nil)
	if !result.HasVariances {
		t.Fatal("expected volume variance past tolerance")
	}
	if !strings.HasPrefix(result.Variances[0], "Volume variance:") {
		t.Fatalf("unexpected variance text: %s", result.Variances[0])
	}
}

func TestReconcile_ClaimedLitresMismatch(t *testing.T) {
	engine := NewReconciliationEngine(DefaultTolerances())
	result := engine.Reconcile(testDelivery(10000, 9960), 9800, 120, nil)
	if !result.HasVariances {
		t.Fatal("expected claimed-litres variance")
	}
	found := false
	for _, variance := range result.Variances {
		if strings.Contains(variance, "don't match delivery records") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing claimed-litres message: %v", result.Variances)
	}
}

func TestReconcile_DistanceVariance(t *testing.T) {
	engine := NewReconciliationEngine(DefaultTolerances())
	// Claimed 120km, GPS shows 100km: 20km gap exceeds the 10% band (12km).
	trace := &TraceAnalysis{TotalKm: 100, PointCount: 12}
	result := engine.Reconcile(testDelivery(10000, 9960), 9960, 120, trace)
	if !result.HasVariances {
		t.Fatal("expected distance variance")
	}
	if !strings.Contains(result.Variances[0], "100.0km vs claimed 120.0km") {
		t.Fatalf("unexpected variance text: %s", result.Variances[0])
	}
}

func TestReconcile_DistanceWithinBand(t *testing.T) {
	engine := NewReconciliationEngine(DefaultTolerances())
	trace := &TraceAnalysis{TotalKm: 112, PointCount: 12}
	result := engine.Reconcile(testDelivery(10000, 9960), 9960, 120, trace)
	if result.HasVariances {
		t.Fatalf("8km gap on a 120km claim is inside 10%%: %v", result.Variances)
	}
}

func TestReconcile_SinglePointTraceSkipsDistanceCheck(t *testing.T) {
	engine := NewReconciliationEngine(DefaultTolerances())
	// One GPS point yields a zero distance; comparing it against the claimed
	// distance would always flag, so the check only runs on real trajectories.
	trace := &TraceAnalysis{TotalKm: 0, PointCount: 1}
	result := engine.Reconcile(testDelivery(10000, 9960), 9960, 120, trace)
	for _, variance := range result.Variances {
		if strings.HasPrefix(variance, "Distance variance:") {
			t.Fatalf("distance check should be skipped for a single point: %v", result.Variances)
		}
	}
	if result.Detail.GPSDistanceKm != 0 || result.Detail.DistanceVariance != 0 {
		t.Fatalf("distance detail should stay zero: %+v", result.Detail)
	}
}

func TestReconcile_ReceivedUnknownDefaultsToLoaded(t *testing.T) {
	engine := NewReconciliationEngine(DefaultTolerances())
	delivery := &claims.DeliveryConsignment{
		ID:           "del-1",
		LitresLoaded: 10000,
	}
	result := engine.Reconcile(delivery, 10000, 120, nil)
	if result.HasVariances {
		t.Fatalf("unknown receipt should reconcile against loaded volume: %v", result.Variances)
	}
	if result.Detail.StationReceived != 10000 {
		t.Fatalf("station received = %.1f, want loaded volume", result.Detail.StationReceived)
	}
}

func TestNewReconciliationEngine_ZeroTolerancesDefault(t *testing.T) {
	engine := NewReconciliationEngine(Tolerances{})
	if engine.tolerances.VolumeLitres != 50 || engine.tolerances.DistancePct != 0.10 {
		t.Fatalf("defaults not applied: %+v", engine.tolerances)
	}
}
