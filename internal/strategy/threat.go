package strategy

import "github.com/talgya/conquest/internal/social"

// Threat is the danger a nation perceives this cycle. Components and Total are 0–100.
type Threat struct {
	Military float64 `json:"military"`
	Economic float64 `json:"economic"`
	Internal float64 `json:"internal"`
	Total    float64 `json:"total"`
}

// AssessThreat scores military, economic and internal danger and blends them 0.5/0.3/0.2.
func AssessThreat(self *social.Nation, world *social.Snapshot, rivalPower float64) Threat {
	selfPower := max(1, finite(self.Power))

	military := 0.0
	for _, code := range self.Enemies {
		enemy, ok := world.Get(code)
		if !ok || enemy.Annexed {
			continue
		}
		military += 25 * finite(enemy.Power) / selfPower
	}
	if rival := finite(rivalPower); rival > finite(self.Power) {
		military += 15 * rival / selfPower
	}
	if self.AtWar {
		military += 30
	}

	economic := flag(self.Embargoed, 30) + flag(self.HighTariffs, 15) + flag(finite(self.Economy) < 30, 20)

	internal := 0.6*finite(self.Unrest) + 0.8*max(0, 50-finite(self.LeaderPopularity))

	t := Threat{
		Military: clamp100(military),
		Economic: clamp100(economic),
		Internal: clamp100(internal),
	}
	t.Total = 0.5*t.Military + 0.3*t.Economic + 0.2*t.Internal
	return t
}

func clamp100(v float64) float64 {
	return max(0, min(100, finite(v)))
}
