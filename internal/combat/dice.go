// Package combat resolves battles between two armies: dice rounds scaled by
// army size, terrain, supply lines and unit quality, driven to completion by
// SimulateWar. Every function is pure over its inputs and the injected
// random source.
package combat

import (
	"sort"

	"github.com/talgya/conquest/internal/entropy"
)

// Dice per side in one round.
const (
	AttackerDice          = 3
	DefenderDice          = 2
	FortifiedDefenderDice = 3
	dieSides              = 6
)

// RollDice rolls n six-sided dice and returns them sorted highest first.
func RollDice(rng entropy.Source, n int) []int {
	if n <= 0 {
		return []int{}
	}
	dice := make([]int, n)
	for i := range dice {
		dice[i] = rng.Intn(dieSides) + 1
	}
	sort.Sort(sort.Reverse(sort.IntSlice(dice)))
	return dice
}

// compareDice pairs dice position by position up to the shorter list and
// counts base loss points. Ties go to the defender.
func compareDice(attacker, defender []int) (attackerLoss, defenderLoss int) {
	n := min(len(attacker), len(defender))
	for i := 0; i < n; i++ {
		if defender[i] >= attacker[i] {
			attackerLoss++
		} else {
			defenderLoss++
		}
	}
	return attackerLoss, defenderLoss
}
