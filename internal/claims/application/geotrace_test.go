package application

import (
	"math"
	"testing"
	"time"

	claims "uppf-engine/internal/claims/domain"
)

func TestTotalDistanceKm_Haversine(t *testing.T) {
	// Accra to Kumasi is roughly 200 km great-circle.
	points := []claims.GPSPoint{
		{Latitude: 5.6037, Longitude: -0.1870},
		{Latitude: 6.6885, Longitude: -1.6244},
	}
	got := TotalDistanceKm(points)
	if math.Abs(got-200) > 10 {
		t.Fatalf("distance = %.1fkm, want ~200km", got)
	}
}

func TestTotalDistanceKm_Cumulative(t *testing.T) {
	points := []claims.GPSPoint{
		{Latitude: 5.0, Longitude: 0.0},
		{Latitude: 5.5, Longitude: 0.0},
		{Latitude: 6.0, Longitude: 0.0},
	}
	direct := TotalDistanceKm([]claims.GPSPoint{points[0], points[2]})
	viaMiddle := TotalDistanceKm(points)
	if math.Abs(direct-viaMiddle) > 0.001 {
		t.Fatalf("collinear legs should sum to the direct distance: %.3f vs %.3f", viaMiddle, direct)
	}
}

func TestAnalyze_InsufficientPoints(t *testing.T) {
	analyzer := NewGeoTraceAnalyzer(nil)
	analysis := analyzer.Analyze([]claims.GPSPoint{{Latitude: 5.6, Longitude: -0.18}})
	if !analysis.HasAnomalies() {
		t.Fatal("expected anomaly for single-point trace")
	}
	if analysis.Anomalies[0] != "Insufficient GPS points for route validation" {
		t.Fatalf("unexpected anomaly: %s", analysis.Anomalies[0])
	}
	if analysis.Confidence != 0.9 {
		t.Fatalf("confidence = %.2f, want 0.9", analysis.Confidence)
	}
}

func TestAnalyze_CleanTrace(t *testing.T) {
	base := time.Date(2026, 1, 10, 6, 0, 0, 0, time.UTC)
	points := []claims.GPSPoint{
		{Latitude: 5.0, Longitude: 0.0, Timestamp: base},
		{Latitude: 5.5, Longitude: 0.0, Timestamp: base.Add(time.Hour)},
		{Latitude: 6.0, Longitude: 0.0, Timestamp: base.Add(2 * time.Hour)},
	}
	analysis := NewGeoTraceAnalyzer(nil).Analyze(points)
	if analysis.HasAnomalies() {
		t.Fatalf("unexpected anomalies: %v", analysis.Anomalies)
	}
	if analysis.Confidence != 1.0 {
		t.Fatalf("confidence = %.2f, want 1.0", analysis.Confidence)
	}
}

func TestStationaryTimeDetector_Flags(t *testing.T) {
	base := time.Date(2026, 1, 10, 6, 0, 0, 0, time.UTC)
	// Two gaps within 100m lasting 2.5h each: cumulative 5h exceeds the 4h cap.
	points := []claims.GPSPoint{
		{Latitude: 5.00000, Longitude: 0.0, Timestamp: base},
		{Latitude: 5.00010, Longitude: 0.0, Timestamp: base.Add(150 * time.Minute)},
		{Latitude: 5.50000, Longitude: 0.0, Timestamp: base.Add(180 * time.Minute)},
		{Latitude: 5.50010, Longitude: 0.0, Timestamp: base.Add(330 * time.Minute)},
	}
	anomalies, confidence := StationaryTimeDetector{}.Detect(points)
	if len(anomalies) != 1 {
		t.Fatalf("expected one anomaly, got %v", anomalies)
	}
	if anomalies[0] != "Excessive stationary time detected - possible unauthorized stops" {
		t.Fatalf("unexpected anomaly text: %s", anomalies[0])
	}
	if confidence != 0.7 {
		t.Fatalf("confidence = %.2f, want 0.7", confidence)
	}
}

func TestStationaryTimeDetector_ShortStopsPass(t *testing.T) {
	base := time.Date(2026, 1, 10, 6, 0, 0, 0, time.UTC)
	// A 90 minute stop is under the 2h minimum gap and never accumulates.
	points := []claims.GPSPoint{
		{Latitude: 5.00000, Longitude: 0.0, Timestamp: base},
		{Latitude: 5.00010, Longitude: 0.0, Timestamp: base.Add(90 * time.Minute)},
		{Latitude: 5.60000, Longitude: 0.0, Timestamp: base.Add(4 * time.Hour)},
	}
	anomalies, confidence := StationaryTimeDetector{}.Detect(points)
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %v", anomalies)
	}
	if confidence != 1.0 {
		t.Fatalf("confidence = %.2f, want 1.0", confidence)
	}
}
