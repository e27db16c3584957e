// Package social holds the political entities of the campaign: nations, their
// relations, and the read-only world snapshot the strategy core assesses.
package social

import (
	"slices"

	"github.com/talgya/conquest/internal/combat"
	"github.com/talgya/conquest/internal/world"
)

// NationCode is the short unique identifier of a nation.
type NationCode string

// Nation is one autonomous political entity.
type Nation struct {
	Code NationCode `json:"code"`
	Name string     `json:"name"`

	// Political signals.
	Aggression       int     `json:"aggression"` // 1–5
	Military         int     `json:"military"`   // 1–5
	Freedom          float64 `json:"freedom"`    // 0–100
	Ideology         float64 `json:"ideology"`   // -100 collectivist, +100 liberal
	Economy          float64 `json:"economy"`    // 0–100
	Unrest           float64 `json:"unrest"`     // 0–100
	LeaderPopularity float64 `json:"leader_popularity"`
	Embargoed        bool    `json:"embargoed"`
	HighTariffs      bool    `json:"high_tariffs"`

	// Forces.
	Population int              `json:"population"`
	Soldiers   int              `json:"soldiers"`
	Stats      combat.ArmyStats `json:"stats"`
	Power      float64          `json:"power"` // 0–100 relative to the strongest nation
	Fortified  bool             `json:"fortified"`

	Capital world.HexCoord `json:"capital"`

	// Diplomacy. Relations run -100 to +100.
	Allies        []NationCode           `json:"allies"`
	Enemies       []NationCode           `json:"enemies"`
	TradePartners []NationCode           `json:"trade_partners"`
	Relations     map[NationCode]float64 `json:"relations"`
	// Claims lists nations holding territory this nation considers its own.
	Claims []NationCode `json:"claims,omitempty"`

	AtWar   bool `json:"at_war"`
	Annexed bool `json:"annexed"`
}

// Relation returns the relation toward another nation, 0 if none recorded.
func (n *Nation) Relation(other NationCode) float64 {
	return n.Relations[other]
}

// AdjustRelation shifts the relation toward another nation, clamped to ±100.
func (n *Nation) AdjustRelation(other NationCode, delta float64) {
	if n.Relations == nil {
		n.Relations = make(map[NationCode]float64)
	}
	v := n.Relations[other] + delta
	n.Relations[other] = max(-100, min(100, v))
}

// IsAlly reports whether other is a formal ally.
func (n *Nation) IsAlly(other NationCode) bool { return slices.Contains(n.Allies, other) }

// IsEnemy reports whether the nation is at war with other.
func (n *Nation) IsEnemy(other NationCode) bool { return slices.Contains(n.Enemies, other) }

// IsTradePartner reports whether a trade agreement with other is in force.
func (n *Nation) IsTradePartner(other NationCode) bool { return slices.Contains(n.TradePartners, other) }

// HasClaim reports whether other holds territory this nation considers its own.
func (n *Nation) HasClaim(other NationCode) bool { return slices.Contains(n.Claims, other) }

// IsHostile reports whether the other nation is an enemy or deeply distrusted.
func (n *Nation) IsHostile(other NationCode) bool {
	return n.IsEnemy(other) || n.Relation(other) <= -50
}

// AddAlly records an alliance. Duplicate entries are ignored.
func (n *Nation) AddAlly(other NationCode) { n.Allies = addUnique(n.Allies, other) }

// AddEnemy records a hostile belligerent and marks the nation at war.
func (n *Nation) AddEnemy(other NationCode) {
	n.Enemies = addUnique(n.Enemies, other)
	n.AtWar = true
}

// RemoveEnemy ends hostilities with one nation.
func (n *Nation) RemoveEnemy(other NationCode) {
	n.Enemies = slices.DeleteFunc(n.Enemies, func(c NationCode) bool { return c == other })
	n.AtWar = len(n.Enemies) > 0
}

// RemoveAlly dissolves an alliance.
func (n *Nation) RemoveAlly(other NationCode) {
	n.Allies = slices.DeleteFunc(n.Allies, func(c NationCode) bool { return c == other })
}

// AddTradePartner records a trade agreement.
func (n *Nation) AddTradePartner(other NationCode) {
	n.TradePartners = addUnique(n.TradePartners, other)
}

// Forget removes every reference to another nation, used after annexation.
func (n *Nation) Forget(other NationCode) {
	drop := func(c NationCode) bool { return c == other }
	n.Allies = slices.DeleteFunc(n.Allies, drop)
	n.Enemies = slices.DeleteFunc(n.Enemies, drop)
	n.TradePartners = slices.DeleteFunc(n.TradePartners, drop)
	n.Claims = slices.DeleteFunc(n.Claims, drop)
	delete(n.Relations, other)
	n.AtWar = len(n.Enemies) > 0
}

// Clone returns a deep copy.
func (n *Nation) Clone() Nation {
	c := *n
	c.Allies = slices.Clone(n.Allies)
	c.Enemies = slices.Clone(n.Enemies)
	c.TradePartners = slices.Clone(n.TradePartners)
	c.Claims = slices.Clone(n.Claims)
	c.Relations = make(map[NationCode]float64, len(n.Relations))
	for k, v := range n.Relations {
		c.Relations[k] = v
	}
	return c
}

// EffectiveStrength is the raw fighting weight: soldiers scaled by unit quality.
func (n *Nation) EffectiveStrength() float64 {
	s := n.Stats.Normalize()
	return float64(n.Soldiers) * (s.Attack + s.Defense) / 20 * s.Morale / 100
}

// RecomputePower rescales every living nation's Power so the strongest is 100.
func RecomputePower(nations []*Nation) {
	var strongest float64
	for _, n := range nations {
		if !n.Annexed {
			strongest = max(strongest, n.EffectiveStrength())
		}
	}
	for _, n := range nations {
		if n.Annexed || strongest <= 0 {
			n.Power = 0
			continue
		}
		n.Power = n.EffectiveStrength() / strongest * 100
	}
}

func addUnique(list []NationCode, c NationCode) []NationCode {
	if slices.Contains(list, c) {
		return list
	}
	return append(list, c)
}
