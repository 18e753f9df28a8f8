package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	claims "uppf-engine/internal/claims/domain"
)

// DeliveryRepository reads delivery consignments recorded by logistics.
type DeliveryRepository struct {
	db *sql.DB
}

// NewDeliveryRepository constructs a repository.
func NewDeliveryRepository(db *sql.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// Get fetches one consignment.
func (r *DeliveryRepository) Get(ctx context.Context, deliveryID string) (*claims.DeliveryConsignment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("delivery repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, route_id, litres_loaded, litres_received, loaded_at, arrived_at
FROM delivery_consignments
WHERE id = $1
LIMIT 1`, deliveryID)

	var delivery claims.DeliveryConsignment
	var received sql.NullFloat64
	var arrived sql.NullTime
	err := row.Scan(&delivery.ID, &delivery.TenantID, &delivery.RouteID,
		&delivery.LitresLoaded, &received, &delivery.LoadedAt, &arrived)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", claims.ErrDeliveryNotFound, deliveryID)
	}
	if err != nil {
		return nil, err
	}
	if received.Valid {
		delivery.LitresReceived = received.Float64
		delivery.ReceivedKnown = true
	}
	if arrived.Valid {
		delivery.ArrivedAt = arrived.Time.UTC()
	}
	delivery.LoadedAt = delivery.LoadedAt.UTC()
	return &delivery, nil
}

// GPSTraceRepository reads finalized traces.
type GPSTraceRepository struct {
	db *sql.DB
}

// NewGPSTraceRepository constructs a repository.
func NewGPSTraceRepository(db *sql.DB) *GPSTraceRepository {
	return &GPSTraceRepository{db: db}
}

// GetByDeliveryID returns the trace captured for a delivery, or nil when
// none was recorded.
func (r *GPSTraceRepository) GetByDeliveryID(ctx context.Context, deliveryID string) (*claims.GPSTrace, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("gps trace repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, delivery_id, points, total_km, created_at
FROM gps_traces
WHERE delivery_id = $1
ORDER BY created_at DESC
LIMIT 1`, deliveryID)

	var trace claims.GPSTrace
	var points []byte
	err := row.Scan(&trace.ID, &trace.TenantID, &trace.DeliveryID, &points, &trace.TotalKm, &trace.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(points) > 0 {
		if err := json.Unmarshal(points, &trace.Points); err != nil {
			return nil, err
		}
	}
	trace.CreatedAt = trace.CreatedAt.UTC()
	return &trace, nil
}
