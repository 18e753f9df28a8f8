package application

import (
	"fmt"
	"time"

	claims "uppf-engine/internal/claims/domain"
)

// ClaimInput carries everything needed to compute one claim.
type ClaimInput struct {
	DeliveryID    string
	RouteID       string
	KmActual      float64
	LitresMoved   float64
	WindowID      string
	GPSPoints     []claims.GPSPoint
	EvidenceLinks []string
}

// Validate checks field constraints at construction time.
func (in ClaimInput) Validate() error {
	switch {
	case in.DeliveryID == "":
		return fmt.Errorf("%w: delivery id required", claims.ErrInvalidInput)
	case in.RouteID == "":
		return fmt.Errorf("%w: route id required", claims.ErrInvalidInput)
	case in.WindowID == "":
		return fmt.Errorf("%w: window id required", claims.ErrInvalidInput)
	case in.KmActual <= 0:
		return fmt.Errorf("%w: km actual must be positive", claims.ErrInvalidInput)
	case in.LitresMoved <= 0:
		return fmt.Errorf("%w: litres moved must be positive", claims.ErrInvalidInput)
	}
	return nil
}

// ComputeClaim applies the regulatory formula:
//
//	kmBeyondEqualisation = max(0, kmActual - kmThreshold)
//	amountDue            = kmBeyondEqualisation * litresMoved * tariffPerLitreKm
//
// The tariff is snapshotted onto the claim so later rate rows never alter it.
// A distance within the threshold fails with ErrNoClaimApplicable, which is a
// legitimate business outcome.
func ComputeClaim(in ClaimInput, point *claims.EqualisationPoint, tenantID, currency, actor string, now time.Time) (*claims.UPPFClaim, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if point == nil {
		return nil, claims.ErrEqualisationNotFound
	}

	kmBeyond := point.KmBeyond(in.KmActual)
	if kmBeyond <= 0 {
		return nil, fmt.Errorf("%w: actual %.1fkm, threshold %.1fkm",
			claims.ErrNoClaimApplicable, in.KmActual, point.KmThreshold)
	}

	now = now.UTC()
	return &claims.UPPFClaim{
		ClaimID:              claims.NewClaimID(in.WindowID, now),
		TenantID:             tenantID,
		WindowID:             in.WindowID,
		DeliveryID:           in.DeliveryID,
		RouteID:              in.RouteID,
		KmBeyondEqualisation: kmBeyond,
		LitresMoved:          in.LitresMoved,
		TariffPerLitreKm:     point.TariffPerLitreKm,
		AmountDue:            kmBeyond * in.LitresMoved * point.TariffPerLitreKm,
		Currency:             currency,
		Status:               claims.StatusDraft,
		EvidenceLinks:        append([]string(nil), in.EvidenceLinks...),
		CreatedAt:            now,
		UpdatedAt:            now,
		CreatedBy:            actor,
	}, nil
}
