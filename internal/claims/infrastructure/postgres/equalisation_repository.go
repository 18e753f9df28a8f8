package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	claims "uppf-engine/internal/claims/domain"
)

// EqualisationRepository reads the append-only equalisation point table.
type EqualisationRepository struct {
	db *sql.DB
}

// NewEqualisationRepository constructs a repository.
func NewEqualisationRepository(db *sql.DB) *EqualisationRepository {
	return &EqualisationRepository{db: db}
}

// LatestForRoute returns the point in force for the route at asOf.
func (r *EqualisationRepository) LatestForRoute(ctx context.Context, routeID string, asOf time.Time) (*claims.EqualisationPoint, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("equalisation repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, route_id, km_threshold, tariff_per_litre_km, effective_from, created_at
FROM equalisation_points
WHERE route_id = $1 AND effective_from <= $2
ORDER BY effective_from DESC
LIMIT 1`, routeID, asOf)

	var point claims.EqualisationPoint
	err := row.Scan(&point.ID, &point.TenantID, &point.RouteID, &point.KmThreshold,
		&point.TariffPerLitreKm, &point.EffectiveFrom, &point.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: route %s", claims.ErrEqualisationNotFound, routeID)
	}
	if err != nil {
		return nil, err
	}
	point.EffectiveFrom = point.EffectiveFrom.UTC()
	point.CreatedAt = point.CreatedAt.UTC()
	return &point, nil
}

// Insert appends a new equalisation point. Existing rows are never updated.
func (r *EqualisationRepository) Insert(ctx context.Context, point *claims.EqualisationPoint) error {
	if r == nil || r.db == nil {
		return errors.New("equalisation repo: nil db")
	}
	if point == nil {
		return errors.New("equalisation repo: nil point")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO equalisation_points (
	id, tenant_id, route_id, km_threshold, tariff_per_litre_km, effective_from, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		point.ID, point.TenantID, point.RouteID, point.KmThreshold,
		point.TariffPerLitreKm, point.EffectiveFrom, point.CreatedAt)
	return err
}
