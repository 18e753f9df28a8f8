package application

import (
	"fmt"
	"math"

	claims "uppf-engine/internal/claims/domain"
)

const (
	defaultVolumeToleranceLitres = 50.0
	defaultDistanceTolerancePct  = 0.10
)

// Tolerances bounds acceptable variance between data sources.
type Tolerances struct {
	VolumeLitres float64 `yaml:"volume_litres"`
	DistancePct  float64 `yaml:"distance_pct"`
}

// DefaultTolerances returns the regulatory defaults.
func DefaultTolerances() Tolerances {
	return Tolerances{
		VolumeLitres: defaultVolumeToleranceLitres,
		DistancePct:  defaultDistanceTolerancePct,
	}
}

// ReconciliationDetail carries the raw figures behind each check.
type ReconciliationDetail struct {
	DepotLoaded         float64
	StationReceived     float64
	ClaimedMoved        float64
	VolumeVariance      float64
	ClaimVolumeVariance float64
	GPSDistanceKm       float64
	DistanceVariance    float64
}

// ReconciliationResult is a soft-fail annotation, never an error: variances
// route the claim to review, they do not abort creation.
type ReconciliationResult struct {
	HasVariances bool
	Variances    []string
	Detail       ReconciliationDetail
}

// ReconciliationEngine three-way checks depot load, station receipt and the
// claimed figures against tolerances.
type ReconciliationEngine struct {
	tolerances Tolerances
}

// NewReconciliationEngine constructs an engine. Zero tolerance fields fall
// back to defaults.
func NewReconciliationEngine(tolerances Tolerances) *ReconciliationEngine {
	if tolerances.VolumeLitres <= 0 {
		tolerances.VolumeLitres = defaultVolumeToleranceLitres
	}
	if tolerances.DistancePct <= 0 {
		tolerances.DistancePct = defaultDistanceTolerancePct
	}
	return &ReconciliationEngine{tolerances: tolerances}
}

// Reconcile runs the three independent checks. The trace check only applies
// when an analyzed trace exists.
func (e *ReconciliationEngine) Reconcile(delivery *claims.DeliveryConsignment, claimedLitres, claimedKm float64, trace *TraceAnalysis) ReconciliationResult {
	result := ReconciliationResult{
		Detail: ReconciliationDetail{
			ClaimedMoved: claimedLitres,
		},
	}
	if delivery != nil {
		received := delivery.EffectiveReceived()
		result.Detail.DepotLoaded = delivery.LitresLoaded
		result.Detail.StationReceived = received

		result.Detail.VolumeVariance = math.Abs(delivery.LitresLoaded - received)
		if result.Detail.VolumeVariance > e.tolerances.VolumeLitres {
			result.Variances = append(result.Variances, fmt.Sprintf(
				"Volume variance: %.1fL exceeds tolerance of %.0fL",
				result.Detail.VolumeVariance, e.tolerances.VolumeLitres))
		}

		result.Detail.ClaimVolumeVariance = math.Abs(claimedLitres - received)
		if result.Detail.ClaimVolumeVariance > e.tolerances.VolumeLitres {
			result.Variances = append(result.Variances, fmt.Sprintf(
				"Claimed litres (%.1fL) don't match delivery records", claimedLitres))
		}
	}

	// A trace with fewer than two points has no usable distance; the
	// insufficient-points anomaly already routes the claim to review.
	if trace != nil && trace.PointCount > 1 {
		result.Detail.GPSDistanceKm = trace.TotalKm
		result.Detail.DistanceVariance = math.Abs(claimedKm - trace.TotalKm)
		if result.Detail.DistanceVariance > claimedKm*e.tolerances.DistancePct {
			result.Variances = append(result.Variances, fmt.Sprintf(
				"Distance variance: GPS trace shows %.1fkm vs claimed %.1fkm",
				trace.TotalKm, claimedKm))
		}
	}

	result.HasVariances = len(result.Variances) > 0
	return result
}
