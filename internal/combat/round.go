package combat

import (
	"math"

	"github.com/talgya/conquest/internal/entropy"
)

// fortificationFactor cuts defender losses when a defense bonus is active.
const fortificationFactor = 0.7

// Round is one exchange of dice. Never mutated after creation.
type Round struct {
	AttackerDice   []int `json:"attacker_dice"`
	DefenderDice   []int `json:"defender_dice"`
	AttackerLosses int   `json:"attacker_losses"`
	DefenderLosses int   `json:"defender_losses"`
}

// RoundInput is the state of both sides going into a round.
type RoundInput struct {
	AttackerSoldiers int
	DefenderSoldiers int
	AttackerStats    ArmyStats
	DefenderStats    ArmyStats
	Intensity        float64 // intensity multiplier, see Intensity.Multiplier
	DefenseBonus     bool
	Terrain          Terrain
	SupplyAttrition  float64 // attacker supply multiplier, 1.0 = home ground
}

// ResolveRound rolls one round and converts the comparison into casualties.
// Losses are clamped to each side's current strength; the caller applies them.
func ResolveRound(rng entropy.Source, in RoundInput) Round {
	attackers := nonNegative(in.AttackerSoldiers)
	defenders := nonNegative(in.DefenderSoldiers)
	aStats := in.AttackerStats.Normalize()
	dStats := in.DefenderStats.Normalize()
	intensity := finiteNonNegative(in.Intensity)
	supply := max(1.0, finiteNonNegative(in.SupplyAttrition))

	defenderDice := DefenderDice
	if in.DefenseBonus {
		defenderDice = FortifiedDefenderDice
	}
	aRoll := RollDice(rng, AttackerDice)
	dRoll := RollDice(rng, defenderDice)
	aBase, dBase := compareDice(aRoll, dRoll)

	size := float64(sizeMultiplier(attackers + defenders))
	terrain := in.Terrain.Modifiers()

	aRatio := dStats.Attack / max(1, aStats.Defense)
	dRatio := aStats.Attack / max(1, dStats.Defense)

	aLoss := casualties(float64(aBase) * size * (intensity + terrain.AttackerPenalty) * supply * aRatio)
	dFactor := float64(dBase) * size * intensity * terrain.DefenderModifier * dRatio
	if in.DefenseBonus {
		dFactor *= fortificationFactor
	}
	dLoss := casualties(dFactor)

	return Round{
		AttackerDice:   aRoll,
		DefenderDice:   dRoll,
		AttackerLosses: min(aLoss, attackers),
		DefenderLosses: min(dLoss, defenders),
	}
}

// sizeMultiplier scales base losses with the combined size of both armies.
// Larger wars are bloodier per round.
func sizeMultiplier(total int) int {
	var m int
	switch {
	case total < 100:
		m = 1
	case total < 1_000:
		m = total / 100
	case total < 10_000:
		m = total / 200
	default:
		m = total / 500
	}
	return max(1, m)
}

func casualties(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Ceil(v))
}
