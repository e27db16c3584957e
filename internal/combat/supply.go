package combat

import "math"

// Supply line tuning.
const (
	supplyBandKm      = 500.0
	supplyBandPenalty = 0.10
	seaAccessFactor   = 0.7
	airSupplyFactor   = 0.5
	supplyCutPenalty  = 0.5
	supplyCap         = 3.0
	supplyCutCap      = 5.0
)

// Supply describes the attacker's line back to its capital.
type Supply struct {
	DistanceKm float64 `json:"distance_km"`
	SeaAccess  bool    `json:"sea_access"`
	AirSupply  bool    `json:"air_supply"`
	Cut        bool    `json:"cut"`
}

// Attrition returns the casualty multiplier for the attacker. Each 500 km band
// adds 10%; sea access and air supply shrink that excess; a cut line adds a
// flat 0.5. Never below 1.0.
func (s Supply) Attrition() float64 {
	bands := math.Floor(finiteNonNegative(s.DistanceKm) / supplyBandKm)
	excess := bands * supplyBandPenalty
	if s.SeaAccess {
		excess *= seaAccessFactor
	}
	if s.AirSupply {
		excess *= airSupplyFactor
	}
	m := 1 + excess
	if s.Cut {
		return math.Min(m+supplyCutPenalty, supplyCutCap)
	}
	return math.Min(m, supplyCap)
}
