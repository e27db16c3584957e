// Package diplomacy scores declared war aims for international legitimacy and
// derives the backlash a declaration provokes.
package diplomacy

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/talgya/conquest/internal/social"
)

// ErrUnknownGoalType is returned by ParseGoalType for unrecognized names.
var ErrUnknownGoalType = errors.New("unknown war goal type")

// GoalType is the declared aim of a war.
type GoalType uint8

const (
	GoalDefensive GoalType = iota
	GoalReconquest
	GoalTerritorial
	GoalLiberation
	GoalRegimeChange
	GoalHumiliation
	GoalAggression
)

// GoalTypes lists every goal type.
var GoalTypes = [...]GoalType{
	GoalDefensive, GoalReconquest, GoalTerritorial, GoalLiberation,
	GoalRegimeChange, GoalHumiliation, GoalAggression,
}

func (g GoalType) String() string {
	switch g {
	case GoalDefensive:
		return "DEFENSIVE"
	case GoalReconquest:
		return "RECONQUEST"
	case GoalTerritorial:
		return "TERRITORIAL"
	case GoalLiberation:
		return "LIBERATION"
	case GoalRegimeChange:
		return "REGIME_CHANGE"
	case GoalHumiliation:
		return "HUMILIATION"
	case GoalAggression:
		return "AGGRESSION"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the goal type by name.
func (g GoalType) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText decodes a goal type name.
func (g *GoalType) UnmarshalText(b []byte) error {
	parsed, err := ParseGoalType(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseGoalType maps a case-insensitive goal name to its value.
func ParseGoalType(s string) (GoalType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	for _, g := range GoalTypes {
		if g.String() == norm {
			return g, nil
		}
	}
	return GoalAggression, fmt.Errorf("parse war goal %q: %w", s, ErrUnknownGoalType)
}

// Legitimacy is how acceptable the goal is to other nations. Higher is better.
func (g GoalType) Legitimacy() int {
	switch g {
	case GoalDefensive:
		return 50
	case GoalLiberation:
		return 20
	case GoalReconquest:
		return 5
	case GoalTerritorial:
		return -15
	case GoalRegimeChange:
		return -25
	case GoalHumiliation:
		return -35
	default:
		return -50
	}
}

func (g GoalType) justification() string {
	switch g {
	case GoalDefensive:
		return "repel aggression against %s"
	case GoalReconquest:
		return "recover lands held by %s"
	case GoalTerritorial:
		return "seize territory from %s"
	case GoalLiberation:
		return "free the people of %s"
	case GoalRegimeChange:
		return "overthrow the government of %s"
	case GoalHumiliation:
		return "humble %s"
	default:
		return "conquer %s"
	}
}

// WarGoal is an immutable declared aim. Legitimacy always follows Type.
type WarGoal struct {
	Type            GoalType          `json:"type"`
	Target          social.NationCode `json:"target"`
	TargetTerritory string            `json:"target_territory,omitempty"`
	Legitimacy      int               `json:"legitimacy"`
	Justification   string            `json:"justification"`
}

// NewWarGoal creates a war goal against target. territory may be empty.
func NewWarGoal(t GoalType, target social.NationCode, territory string) WarGoal {
	just := fmt.Sprintf(t.justification(), target)
	if territory != "" {
		just += " (" + territory + ")"
	}
	return WarGoal{
		Type:            t,
		Target:          target,
		TargetTerritory: territory,
		Legitimacy:      t.Legitimacy(),
		Justification:   just,
	}
}

// Reaction is the diplomatic backlash to a declaration. Penalties are zero or negative.
type Reaction struct {
	RelationsPenalty int    `json:"relations_penalty"`
	CoalitionPenalty int    `json:"coalition_penalty"`
	Description      string `json:"description"`
}

// Reaction derives the backlash from the goal's type.
func (g WarGoal) Reaction() Reaction {
	return ReactionFor(g.Type.Legitimacy())
}

// ReactionFor maps any legitimacy score to exactly one backlash bracket.
func ReactionFor(legitimacy int) Reaction {
	switch {
	case legitimacy >= 10:
		return Reaction{Description: "the world accepts the cause as just"}
	case legitimacy >= 0:
		return Reaction{RelationsPenalty: -5, Description: "neighbours voice mild concern"}
	case legitimacy >= -30:
		return Reaction{RelationsPenalty: -15, CoalitionPenalty: -10, Description: "the declaration is widely condemned"}
	default:
		return Reaction{RelationsPenalty: -30, CoalitionPenalty: -25, Description: "the world rallies against naked aggression"}
	}
}

const (
	regimeChangeDistance = 80.0
	oppressedFreedom     = 20.0
	liberalFreedom       = 60.0
	friendlyRelation     = 25.0
)

// ChooseGoalType picks the aim an attacker declares against target.
// ideological is true when the attacker holds the IDEOLOGICAL personality.
func ChooseGoalType(attacker, target *social.Nation, ideological bool) GoalType {
	switch {
	case attacker.HasClaim(target.Code):
		return GoalReconquest
	case attacker.IsEnemy(target.Code) && target.IsEnemy(attacker.Code):
		return GoalDefensive
	case ideological && math.Abs(attacker.Ideology-target.Ideology) >= regimeChangeDistance:
		return GoalRegimeChange
	case target.Freedom < oppressedFreedom && attacker.Freedom >= liberalFreedom:
		return GoalLiberation
	case attacker.Relation(target.Code) > friendlyRelation:
		return GoalAggression
	default:
		return GoalTerritorial
	}
}
