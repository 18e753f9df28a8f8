package application

import (
	"math"
	"time"

	claims "uppf-engine/internal/claims/domain"
)

const (
	earthRadiusKm = 6371.0

	stationaryRadiusMeters = 100.0
	stationaryMinGap       = 2 * time.Hour
	stationaryMaxTotal     = 4 * time.Hour

	confidenceClean      = 1.0
	confidenceStructural = 0.9
	confidenceHeuristic  = 0.7
)

// TraceAnalysis is the GeoTraceAnalyzer output. Anomalies are review
// triggers from a baseline detector, not ground truth.
type TraceAnalysis struct {
	TotalKm    float64
	PointCount int
	Anomalies  []string
	Confidence float64
}

// HasAnomalies reports whether the trace needs review.
func (a TraceAnalysis) HasAnomalies() bool { return len(a.Anomalies) > 0 }

// AnomalyDetector flags suspicious trajectories. The stationary-time rule is
// the baseline implementation; a learned model can replace it behind this
// interface.
type AnomalyDetector interface {
	Detect(points []claims.GPSPoint) (anomalies []string, confidence float64)
}

// GeoTraceAnalyzer derives trip distance and anomalies from an ordered GPS
// point sequence.
type GeoTraceAnalyzer struct {
	detector AnomalyDetector
}

// NewGeoTraceAnalyzer constructs an analyzer. A nil detector falls back to
// the stationary-time baseline.
func NewGeoTraceAnalyzer(detector AnomalyDetector) *GeoTraceAnalyzer {
	if detector == nil {
		detector = StationaryTimeDetector{}
	}
	return &GeoTraceAnalyzer{detector: detector}
}

// Analyze computes cumulative great-circle distance and runs anomaly
// detection. Fewer than two points is reported as an anomaly, not rejected:
// the trace is still stored for audit.
func (a *GeoTraceAnalyzer) Analyze(points []claims.GPSPoint) TraceAnalysis {
	analysis := TraceAnalysis{
		TotalKm:    TotalDistanceKm(points),
		PointCount: len(points),
		Confidence: confidenceClean,
	}
	if len(points) < 2 {
		analysis.Anomalies = []string{"Insufficient GPS points for route validation"}
		analysis.Confidence = confidenceStructural
		return analysis
	}
	anomalies, confidence := a.detector.Detect(points)
	if len(anomalies) > 0 {
		analysis.Anomalies = anomalies
		analysis.Confidence = confidence
	}
	return analysis
}

// TotalDistanceKm sums haversine distances between consecutive points.
func TotalDistanceKm(points []claims.GPSPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += haversineKm(points[i-1], points[i])
	}
	return total
}

// StationaryTimeDetector is the rule-based baseline: accumulate time spent
// where consecutive points sit within 100 m of each other for more than two
// hours; over four cumulative hours the trace is flagged.
type StationaryTimeDetector struct{}

// Detect implements AnomalyDetector.
func (StationaryTimeDetector) Detect(points []claims.GPSPoint) ([]string, float64) {
	var stationary time.Duration
	for i := 1; i < len(points); i++ {
		distMeters := haversineKm(points[i-1], points[i]) * 1000
		gap := points[i].Timestamp.Sub(points[i-1].Timestamp)
		if distMeters < stationaryRadiusMeters && gap > stationaryMinGap {
			stationary += gap
		}
	}
	if stationary > stationaryMaxTotal {
		return []string{"Excessive stationary time detected - possible unauthorized stops"}, confidenceHeuristic
	}
	return nil, confidenceClean
}

func haversineKm(a, b claims.GPSPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
