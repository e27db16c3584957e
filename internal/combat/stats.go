package combat

import "math"

// ArmyStats is the quality bundle of one side's forces.
type ArmyStats struct {
	Attack   float64 `json:"attack"`
	Defense  float64 `json:"defense"`
	Mobility float64 `json:"mobility"`
	Morale   float64 `json:"morale"`
}

// DefaultArmyStats returns the baseline bundle: 10/10/10/100.
func DefaultArmyStats() ArmyStats {
	return ArmyStats{Attack: 10, Defense: 10, Mobility: 10, Morale: 100}
}

// Normalize replaces non-positive or non-finite fields with their defaults.
func (s ArmyStats) Normalize() ArmyStats {
	def := DefaultArmyStats()
	return ArmyStats{
		Attack:   positiveOr(s.Attack, def.Attack),
		Defense:  positiveOr(s.Defense, def.Defense),
		Mobility: positiveOr(s.Mobility, def.Mobility),
		Morale:   positiveOr(s.Morale, def.Morale),
	}
}

func positiveOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fallback
	}
	return v
}

// nonNegative clamps negative counts to zero.
func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// finiteNonNegative clamps NaN, infinities and negatives to zero.
func finiteNonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
