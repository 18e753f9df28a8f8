package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	claims "uppf-engine/internal/claims/domain"
)

const (
	defaultClaimsTable = "uppf_claims"
	defaultTracesTable = "gps_traces"
)

const claimColumns = `claim_id, tenant_id, window_id, delivery_id, route_id,
	km_beyond_equalisation, litres_moved, tariff_per_litre_km, amount_due, currency,
	status, evidence_links, gps_trace_id, notes, submission_reference,
	submitted_at, submitted_by, amount_paid, paid_at, created_at, updated_at, created_by`

// ClaimRepository persists UPPF claims and their GPS traces.
type ClaimRepository struct {
	db *sql.DB
}

// NewClaimRepository constructs a repository.
func NewClaimRepository(db *sql.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// CreateWithTrace inserts the claim and its trace in one transaction.
// Writers for the same delivery serialize on an advisory lock so only
// the first active claim per delivery wins.
func (r *ClaimRepository) CreateWithTrace(ctx context.Context, claim *claims.UPPFClaim, trace *claims.GPSTrace) error {
	if r == nil || r.db == nil {
		return errors.New("claim repo: nil db")
	}
	if claim == nil {
		return claims.ErrNilClaim
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, claim.DeliveryID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	var existing int
	err = tx.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM uppf_claims
WHERE delivery_id = $1 AND status <> 'rejected'`, claim.DeliveryID).Scan(&existing)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if existing > 0 {
		_ = tx.Rollback()
		return fmt.Errorf("%w: delivery %s", claims.ErrDuplicateDelivery, claim.DeliveryID)
	}

	evidence, err := json.Marshal(claim.EvidenceLinks)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO uppf_claims (
	claim_id, tenant_id, window_id, delivery_id, route_id,
	km_beyond_equalisation, litres_moved, tariff_per_litre_km, amount_due, currency,
	status, evidence_links, gps_trace_id, notes, submission_reference,
	submitted_at, submitted_by, amount_paid, paid_at, created_at, updated_at, created_by
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22
)`,
		claim.ClaimID, claim.TenantID, claim.WindowID, claim.DeliveryID, claim.RouteID,
		claim.KmBeyondEqualisation, claim.LitresMoved, claim.TariffPerLitreKm, claim.AmountDue, claim.Currency,
		claim.Status, evidence, nullString(claim.GPSTraceID), claim.Notes, nullString(claim.SubmissionReference),
		nullTime(claim.SubmittedAt), nullString(claim.SubmittedBy), nullFloat(claim.AmountPaid), nullTime(claim.PaidAt),
		claim.CreatedAt, claim.UpdatedAt, claim.CreatedBy,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if trace != nil {
		points, err := json.Marshal(trace.Points)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO gps_traces (
	id, tenant_id, delivery_id, points, total_km, created_at
) VALUES ($1,$2,$3,$4,$5,$6)`,
			trace.ID, trace.TenantID, trace.DeliveryID, points, trace.TotalKm, trace.CreatedAt)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetByClaimID fetches a claim.
func (r *ClaimRepository) GetByClaimID(ctx context.Context, claimID string) (*claims.UPPFClaim, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("claim repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+claimColumns+`
FROM uppf_claims
WHERE claim_id = $1
LIMIT 1`, claimID)
	claim, err := scanClaim(row)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: %s", claims.ErrClaimNotFound, claimID)
	}
	return claim, nil
}

// UpdateStatus moves a claim from one status to another. The update is
// a compare-and-set on the expected current status; a stale expectation
// reports an invalid transition.
func (r *ClaimRepository) UpdateStatus(ctx context.Context, claim *claims.UPPFClaim, fromStatus string) error {
	if r == nil || r.db == nil {
		return errors.New("claim repo: nil db")
	}
	if claim == nil {
		return claims.ErrNilClaim
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE uppf_claims
SET status = $1, notes = $2, submission_reference = $3,
	submitted_at = $4, submitted_by = $5, amount_paid = $6, paid_at = $7, updated_at = $8
WHERE claim_id = $9 AND status = $10`,
		claim.Status, claim.Notes, nullString(claim.SubmissionReference),
		nullTime(claim.SubmittedAt), nullString(claim.SubmittedBy), nullFloat(claim.AmountPaid), nullTime(claim.PaidAt),
		claim.UpdatedAt, claim.ClaimID, fromStatus)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &claims.InvalidStateTransitionError{ClaimID: claim.ClaimID, From: fromStatus, To: claim.Status}
	}
	return nil
}

// SubmitWindow stamps every ready_to_submit claim in the window with the
// submission reference. All rows move together or none do.
func (r *ClaimRepository) SubmitWindow(ctx context.Context, windowID, reference, actor string, now time.Time) ([]claims.UPPFClaim, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("claim repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, `
SELECT `+claimColumns+`
FROM uppf_claims
WHERE window_id = $1 AND status = $2
ORDER BY created_at ASC
FOR UPDATE`, windowID, claims.StatusReadyToSubmit)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	submitted, err := collectClaims(rows)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if len(submitted) == 0 {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%w: window %s", claims.ErrNoSubmittableClaims, windowID)
	}
	_, err = tx.ExecContext(ctx, `
UPDATE uppf_claims
SET status = $1, submission_reference = $2, submitted_at = $3, submitted_by = $4, updated_at = $3
WHERE window_id = $5 AND status = $6`,
		claims.StatusSubmitted, reference, now, actor, windowID, claims.StatusReadyToSubmit)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	for i := range submitted {
		submitted[i].Status = claims.StatusSubmitted
		submitted[i].SubmissionReference = reference
		submitted[i].SubmittedAt = now
		submitted[i].SubmittedBy = actor
		submitted[i].UpdatedAt = now
	}
	return submitted, nil
}

// ListBySubmissionReference returns claims stamped with the reference.
func (r *ClaimRepository) ListBySubmissionReference(ctx context.Context, reference string) ([]claims.UPPFClaim, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("claim repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+claimColumns+`
FROM uppf_claims
WHERE submission_reference = $1
ORDER BY created_at ASC`, reference)
	if err != nil {
		return nil, err
	}
	return collectClaims(rows)
}

// ListSubmittedBefore returns claims submitted and still unpaid past the cutoff.
func (r *ClaimRepository) ListSubmittedBefore(ctx context.Context, cutoff time.Time) ([]claims.UPPFClaim, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("claim repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+claimColumns+`
FROM uppf_claims
WHERE status = $1 AND submitted_at < $2
ORDER BY submitted_at ASC`, claims.StatusSubmitted, cutoff)
	if err != nil {
		return nil, err
	}
	return collectClaims(rows)
}

// ListSubmittedOrSettled returns claims that reached submission and beyond.
func (r *ClaimRepository) ListSubmittedOrSettled(ctx context.Context, limit int) ([]claims.UPPFClaim, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("claim repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+claimColumns+`
FROM uppf_claims
WHERE status IN ($1, $2, $3)
ORDER BY submitted_at DESC
LIMIT $4`, claims.StatusSubmitted, claims.StatusPaid, claims.StatusDisputed, limit)
	if err != nil {
		return nil, err
	}
	return collectClaims(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*claims.UPPFClaim, error) {
	var claim claims.UPPFClaim
	var evidence []byte
	var traceID sql.NullString
	var notes sql.NullString
	var reference sql.NullString
	var submittedAt sql.NullTime
	var submittedBy sql.NullString
	var amountPaid sql.NullFloat64
	var paidAt sql.NullTime
	err := row.Scan(
		&claim.ClaimID, &claim.TenantID, &claim.WindowID, &claim.DeliveryID, &claim.RouteID,
		&claim.KmBeyondEqualisation, &claim.LitresMoved, &claim.TariffPerLitreKm, &claim.AmountDue, &claim.Currency,
		&claim.Status, &evidence, &traceID, &notes, &reference,
		&submittedAt, &submittedBy, &amountPaid, &paidAt,
		&claim.CreatedAt, &claim.UpdatedAt, &claim.CreatedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &claim.EvidenceLinks); err != nil {
			return nil, err
		}
	}
	claim.GPSTraceID = traceID.String
	claim.Notes = notes.String
	claim.SubmissionReference = reference.String
	if submittedAt.Valid {
		claim.SubmittedAt = submittedAt.Time.UTC()
	}
	claim.SubmittedBy = submittedBy.String
	if amountPaid.Valid {
		claim.AmountPaid = amountPaid.Float64
	}
	if paidAt.Valid {
		claim.PaidAt = paidAt.Time.UTC()
	}
	claim.CreatedAt = claim.CreatedAt.UTC()
	claim.UpdatedAt = claim.UpdatedAt.UTC()
	return &claim, nil
}

func collectClaims(rows *sql.Rows) ([]claims.UPPFClaim, error) {
	defer rows.Close()
	var result []claims.UPPFClaim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		if claim != nil {
			result = append(result, *claim)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value
}

func nullFloat(value float64) any {
	if value == 0 {
		return nil
	}
	return value
}
