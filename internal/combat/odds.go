package combat

import "github.com/talgya/conquest/internal/entropy"

// Odds is a Monte-Carlo projection of a matchup.
type Odds struct {
	Trials             int     `json:"trials"`
	AttackerWinRate    float64 `json:"attacker_win_rate"`
	MeanDecisiveness   float64 `json:"mean_decisiveness"`
	MeanAttackerLosses float64 `json:"mean_attacker_losses"`
	MeanDefenderLosses float64 `json:"mean_defender_losses"`
}

// EstimateOdds runs SimulateWar trials times on the same stream and averages
// the outcomes. trials below one runs a single trial.
func EstimateOdds(rng entropy.Source, trials, attackers, defenders int, intensity Intensity, defenseBonus bool, opts Options) Odds {
	trials = max(1, trials)
	// Projections must not count toward anyone's exhaustion.
	opts.MonthsAtWar, opts.ExistingCasualties, opts.AttackerPopulation = 0, 0, 0

	var wins int
	var dec, aLoss, dLoss float64
	for i := 0; i < trials; i++ {
		r := SimulateWar(rng, attackers, defenders, intensity, defenseBonus, opts)
		if r.Winner == Attacker {
			wins++
		}
		dec += r.Decisiveness
		aLoss += float64(r.AttackerLosses)
		dLoss += float64(r.DefenderLosses)
	}

	n := float64(trials)
	return Odds{
		Trials:             trials,
		AttackerWinRate:    float64(wins) / n,
		MeanDecisiveness:   dec / n,
		MeanAttackerLosses: aLoss / n,
		MeanDefenderLosses: dLoss / n,
	}
}
