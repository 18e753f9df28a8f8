package claims

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// GPSPoint is one sample of a delivery trajectory.
type GPSPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// GPSTrace is the finalized trajectory for one delivery. Created once from a
// submitted point list and never mutated, so the derived distance stays a
// pure function of trace content.
type GPSTrace struct {
	ID         string
	TenantID   string
	DeliveryID string
	Points     []GPSPoint
	TotalKm    float64
	StartTime  time.Time
	EndTime    time.Time
	CreatedAt  time.Time
}

// NewTraceID generates a random trace id.
func NewTraceID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return "trace-" + hex.EncodeToString(buf)
}

// NewGPSTrace finalizes a trace from an ordered point list. An empty id gets
// a generated one.
func NewGPSTrace(id, tenantID, deliveryID string, points []GPSPoint, totalKm float64, now time.Time) *GPSTrace {
	if id == "" {
		id = NewTraceID()
	}
	trace := &GPSTrace{
		ID:         id,
		TenantID:   tenantID,
		DeliveryID: deliveryID,
		Points:     append([]GPSPoint(nil), points...),
		TotalKm:    totalKm,
		CreatedAt:  now.UTC(),
	}
	if len(points) > 0 {
		trace.StartTime = points[0].Timestamp
		trace.EndTime = points[len(points)-1].Timestamp
	}
	return trace
}
