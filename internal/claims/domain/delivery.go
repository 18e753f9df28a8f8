package claims

import "time"

// DeliveryConsignment is one fuel movement leg, owned by the logistics
// subsystem. Read-only to this engine.
type DeliveryConsignment struct {
	ID             string
	TenantID       string
	RouteID        string
	LitresLoaded   float64
	LitresReceived float64
	ReceivedKnown  bool
	LoadedAt       time.Time
	ArrivedAt      time.Time
}

// EffectiveReceived returns the station-received volume, defaulting to the
// depot-loaded volume until confirmation lands. Preserved source behavior:
// shortfalls may only surface at later reconciliation.
func (d DeliveryConsignment) EffectiveReceived() float64 {
	if d.ReceivedKnown {
		return d.LitresReceived
	}
	return d.LitresLoaded
}
