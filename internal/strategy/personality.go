// Package strategy is the strategic decision core: it classifies a nation's
// personality, scores threats and opportunities, picks a focus and turns that
// focus into a prioritized action queue.
package strategy

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/talgya/conquest/internal/entropy"
	"github.com/talgya/conquest/internal/social"
)

// ErrUnknownPersonality is returned by ParsePersonality for unrecognized names.
var ErrUnknownPersonality = errors.New("unknown personality")

// Personality is a nation's behavioral archetype.
type Personality uint8

const (
	Unassigned Personality = iota
	Expansionist
	Defensive
	TradingPower
	Ideological
	Opportunist
	Isolationist
)

// Personalities lists the six archetypes in draw order.
var Personalities = [...]Personality{
	Expansionist, Defensive, TradingPower, Ideological, Opportunist, Isolationist,
}

// minWeight keeps every archetype possible.
const minWeight = 5.0

func (p Personality) String() string {
	switch p {
	case Expansionist:
		return "EXPANSIONIST"
	case Defensive:
		return "DEFENSIVE"
	case TradingPower:
		return "TRADING_POWER"
	case Ideological:
		return "IDEOLOGICAL"
	case Opportunist:
		return "OPPORTUNIST"
	case Isolationist:
		return "ISOLATIONIST"
	default:
		return "UNASSIGNED"
	}
}

// MarshalText encodes the personality by name.
func (p Personality) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a personality name.
func (p *Personality) UnmarshalText(b []byte) error {
	parsed, err := ParsePersonality(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePersonality maps a case-insensitive archetype name to its value.
func ParsePersonality(s string) (Personality, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	if norm == "" || norm == "UNASSIGNED" {
		return Unassigned, nil
	}
	for _, p := range Personalities {
		if p.String() == norm {
			return p, nil
		}
	}
	return Unassigned, fmt.Errorf("parse personality %q: %w", s, ErrUnknownPersonality)
}

// Signals are the political traits personality is drawn from.
type Signals struct {
	Aggression    int     // 1–5
	Military      int     // 1–5
	Freedom       float64 // 0–100
	TradePartners int
	Ideology      float64 // -100–100
}

// SignalsOf extracts the personality signals of a nation.
func SignalsOf(n *social.Nation) Signals {
	return Signals{
		Aggression:    n.Aggression,
		Military:      n.Military,
		Freedom:       n.Freedom,
		TradePartners: len(n.TradePartners),
		Ideology:      n.Ideology,
	}
}

func (s Signals) sanitize() Signals {
	s.Aggression = max(0, s.Aggression)
	s.Military = max(0, s.Military)
	s.TradePartners = max(0, s.TradePartners)
	if math.IsNaN(s.Freedom) || math.IsInf(s.Freedom, 0) || s.Freedom < 0 {
		s.Freedom = 0
	}
	if math.IsNaN(s.Ideology) || math.IsInf(s.Ideology, 0) {
		s.Ideology = 0
	}
	return s
}

// PersonalityWeight is the unnormalized likelihood of an archetype given the
// signals, never below minWeight.
func PersonalityWeight(p Personality, s Signals) float64 {
	s = s.sanitize()
	w := 0.0
	switch p {
	case Expansionist:
		w = flag(s.Aggression >= 4, 30) + flag(s.Military >= 4, 20) + 5*float64(s.Aggression)
	case Defensive:
		w = flag(s.Aggression <= 2, 25) + flag(s.Military >= 3, 15) + 5*float64(5-s.Aggression)
	case TradingPower:
		w = 8*float64(min(s.TradePartners, 5)) + flag(s.Freedom >= 60, 20) + flag(s.Aggression <= 2, 10)
	case Ideological:
		ideo := math.Abs(s.Ideology)
		w = flag(ideo >= 60, 30) + ideo/5
	case Opportunist:
		w = 10 + flag(s.Aggression == 3, 20) + flag(s.Military >= 3, 10)
	case Isolationist:
		w = flag(s.TradePartners == 0, 25) + flag(s.Freedom < 30, 15) + flag(s.Aggression <= 1, 10)
	default:
		return 0
	}
	return max(minWeight, w)
}

// AssignPersonality draws one archetype by cumulative-sum roulette over the
// weights. It samples, so repeated calls differ; callers cache the result.
func AssignPersonality(rng entropy.Source, s Signals) Personality {
	var weights [len(Personalities)]float64
	total := 0.0
	for i, p := range Personalities {
		weights[i] = PersonalityWeight(p, s)
		total += weights[i]
	}

	roll := rng.Float64() * total
	for i, p := range Personalities {
		roll -= weights[i]
		if roll < 0 {
			return p
		}
	}
	return Personalities[len(Personalities)-1]
}

func flag(cond bool, v float64) float64 {
	if cond {
		return v
	}
	return 0
}
