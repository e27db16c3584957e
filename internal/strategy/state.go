package strategy

import (
	"time"

	"github.com/talgya/conquest/internal/entropy"
	"github.com/talgya/conquest/internal/social"
)

// State is one nation's full decision bundle for a cycle. Personality carries
// over between cycles; everything else is recomputed.
type State struct {
	Personality Personality `json:"personality"`
	Focus       Focus       `json:"focus"`
	Threat      Threat      `json:"threat"`
	Opportunity Opportunity `json:"opportunity"`
	Actions     []Action    `json:"actions"`
	AssessedAt  time.Time   `json:"assessed_at"`
}

// Top returns the highest-priority action, if any.
func (s State) Top() (Action, bool) {
	if len(s.Actions) == 0 {
		return Action{}, false
	}
	return s.Actions[0], true
}

// Assess runs one decision cycle with the default doctrine.
func Assess(rng entropy.Source, self *social.Nation, personality Personality, world *social.Snapshot, rivalPower float64, now time.Time) State {
	return defaultDoctrine.Assess(rng, self, personality, world, rivalPower, now)
}

// Assess runs one decision cycle for self against a frozen snapshot. The
// personality is drawn from rng only when it is Unassigned; otherwise rng is
// not consumed and the given personality is kept.
func (d *Doctrine) Assess(rng entropy.Source, self *social.Nation, personality Personality, world *social.Snapshot, rivalPower float64, now time.Time) State {
	if personality == Unassigned {
		personality = AssignPersonality(rng, SignalsOf(self))
	}

	threat := AssessThreat(self, world, rivalPower)
	opp := AssessOpportunity(self, world)
	focus := SelectFocus(personality, threat, opp, self.AtWar)

	env := Env{
		Focus:           focus.String(),
		Personality:     personality.String(),
		Opportunity:     opp.Best.String(),
		AtWar:           self.AtWar,
		Threat:          threat.Total,
		MilitaryThreat:  threat.Military,
		InternalThreat:  threat.Internal,
		Economy:         finite(self.Economy),
		Unrest:          finite(self.Unrest),
		Power:           finite(self.Power),
		Soldiers:        max(0, self.Soldiers),
		Aggression:      self.Aggression,
		WeakNeighbors:   len(opp.WeakNeighbors),
		AllianceGaps:    len(opp.AllianceGaps),
		TradeCandidates: len(opp.TradeCandidates),
	}

	return State{
		Personality: personality,
		Focus:       focus,
		Threat:      threat,
		Opportunity: opp,
		Actions:     d.GenerateActions(env, opp),
		AssessedAt:  now,
	}
}
