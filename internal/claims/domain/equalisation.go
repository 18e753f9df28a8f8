package claims

import "time"

// EqualisationPoint is the regulatory reference for a route. Rows are
// append-only: new rates are new rows, never in-place edits, so claims
// computed at different times resolve the rate that was in force.
type EqualisationPoint struct {
	ID               string
	TenantID         string
	RouteID          string
	KmThreshold      float64
	TariffPerLitreKm float64
	EffectiveFrom    time.Time
	CreatedAt        time.Time
}

// KmBeyond returns the billable excess distance, floored at zero.
func (p EqualisationPoint) KmBeyond(kmActual float64) float64 {
	excess := kmActual - p.KmThreshold
	if excess < 0 {
		return 0
	}
	return excess
}
