package combat

import "math"

// Exhaustion tuning.
const (
	exhaustionMonthlyRate   = 2.0
	exhaustionLongWarMonths = 12
	exhaustionLongWarFactor = 1.5
	casualtyRateWeight      = 200.0
	maxExhaustion           = 100.0
	exhaustionPerUnrest     = 20.0
)

// Exhaustion is the accumulated strain of a war on one belligerent.
type Exhaustion struct {
	Level        float64 `json:"level"` // 0–100
	MonthsAtWar  int     `json:"months_at_war"`
	Casualties   int     `json:"casualties"`
	UnrestImpact int     `json:"unrest_impact"`
}

// ComputeExhaustion derives exhaustion from war duration and cumulative
// casualties relative to the population that bears them.
func ComputeExhaustion(monthsAtWar, casualties, population int) Exhaustion {
	months := nonNegative(monthsAtWar)
	lost := nonNegative(casualties)
	pop := nonNegative(population)

	duration := float64(min(months, exhaustionLongWarMonths)) * exhaustionMonthlyRate
	if months > exhaustionLongWarMonths {
		duration += float64(months-exhaustionLongWarMonths) * exhaustionMonthlyRate * exhaustionLongWarFactor
	}

	var casualtyRate float64
	if pop > 0 {
		casualtyRate = float64(lost) / float64(pop)
	}

	level := math.Min(duration+casualtyRate*casualtyRateWeight, maxExhaustion)
	return Exhaustion{
		Level:        level,
		MonthsAtWar:  months,
		Casualties:   lost,
		UnrestImpact: int(math.Floor(level / exhaustionPerUnrest)),
	}
}
