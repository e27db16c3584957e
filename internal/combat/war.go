package combat

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/talgya/conquest/internal/entropy"
)

// Parse errors for intensity and side names.
var (
	ErrUnknownIntensity = errors.New("unknown intensity")
	ErrUnknownSide      = errors.New("unknown side")
)

// Side identifies a belligerent.
type Side uint8

const (
	Attacker Side = iota
	Defender
)

func (s Side) String() string {
	if s == Attacker {
		return "attacker"
	}
	return "defender"
}

// MarshalText encodes the side by name.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes "attacker" or "defender".
func (s *Side) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "attacker":
		*s = Attacker
	case "defender":
		*s = Defender
	default:
		return fmt.Errorf("parse side %q: %w", b, ErrUnknownSide)
	}
	return nil
}

// Intensity is the scale at which a war is fought.
type Intensity uint8

const (
	Skirmish Intensity = iota
	Battle
	AllOutWar
)

// allOutWarBonus amplifies decisive all-out victories.
const allOutWarBonus = 1.2

// MaxRounds returns the round cap for the intensity.
func (i Intensity) MaxRounds() int {
	switch i {
	case Skirmish:
		return 25
	case AllOutWar:
		return 120
	default:
		return 60
	}
}

// Multiplier returns the casualty multiplier for the intensity.
func (i Intensity) Multiplier() float64 {
	switch i {
	case Skirmish:
		return 0.5
	case AllOutWar:
		return 1.5
	default:
		return 1.0
	}
}

func (i Intensity) String() string {
	switch i {
	case Skirmish:
		return "SKIRMISH"
	case AllOutWar:
		return "ALL_OUT_WAR"
	default:
		return "BATTLE"
	}
}

// MarshalText encodes the intensity by name.
func (i Intensity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText decodes an intensity name.
func (i *Intensity) UnmarshalText(b []byte) error {
	parsed, err := ParseIntensity(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// ParseIntensity maps a case-insensitive intensity name to its value.
func ParseIntensity(s string) (Intensity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SKIRMISH":
		return Skirmish, nil
	case "BATTLE", "":
		return Battle, nil
	case "ALL_OUT_WAR", "ALL_OUT", "TOTAL":
		return AllOutWar, nil
	}
	return Battle, fmt.Errorf("parse intensity %q: %w", s, ErrUnknownIntensity)
}

// Options carries the environment of a war. The zero value is a fight on
// plains next to the attacker's capital with default army stats.
type Options struct {
	Terrain            Terrain   `json:"terrain"`
	Supply             Supply    `json:"supply"`
	MonthsAtWar        int       `json:"months_at_war"`
	ExistingCasualties int       `json:"existing_casualties"`
	AttackerPopulation int       `json:"attacker_population"`
	AttackerStats      ArmyStats `json:"attacker_stats"`
	DefenderStats      ArmyStats `json:"defender_stats"`
}

// Result is the complete outcome of one SimulateWar call.
type Result struct {
	Winner            Side        `json:"winner"`
	Intensity         Intensity   `json:"intensity"`
	Rounds            []Round     `json:"rounds"`
	AttackerInitial   int         `json:"attacker_initial"`
	DefenderInitial   int         `json:"defender_initial"`
	AttackerRemaining int         `json:"attacker_remaining"`
	DefenderRemaining int         `json:"defender_remaining"`
	AttackerLosses    int         `json:"attacker_losses"`
	DefenderLosses    int         `json:"defender_losses"`
	Decisiveness      float64     `json:"decisiveness"`
	SupplyAttrition   float64     `json:"supply_attrition"`
	Exhaustion        *Exhaustion `json:"exhaustion,omitempty"`
}

// SimulateWar drives rounds until one side is eliminated or the intensity's
// round cap is reached. Negative inputs are clamped to zero. Given the same
// inputs and the same random stream it always produces the same rounds.
func SimulateWar(rng entropy.Source, attackers, defenders int, intensity Intensity, defenseBonus bool, opts Options) Result {
	attackers = nonNegative(attackers)
	defenders = nonNegative(defenders)
	attrition := opts.Supply.Attrition()

	maxRounds := intensity.MaxRounds()
	rounds := make([]Round, 0, min(maxRounds, 16))

	a, d := attackers, defenders
	for len(rounds) < maxRounds && a > 0 && d > 0 {
		r := ResolveRound(rng, RoundInput{
			AttackerSoldiers: a,
			DefenderSoldiers: d,
			AttackerStats:    opts.AttackerStats,
			DefenderStats:    opts.DefenderStats,
			Intensity:        intensity.Multiplier(),
			DefenseBonus:     defenseBonus,
			Terrain:          opts.Terrain,
			SupplyAttrition:  attrition,
		})
		a -= r.AttackerLosses
		d -= r.DefenderLosses
		rounds = append(rounds, r)
	}

	winner := decideWinner(a, d)
	res := Result{
		Winner:            winner,
		Intensity:         intensity,
		Rounds:            rounds,
		AttackerInitial:   attackers,
		DefenderInitial:   defenders,
		AttackerRemaining: a,
		DefenderRemaining: d,
		AttackerLosses:    attackers - a,
		DefenderLosses:    defenders - d,
		SupplyAttrition:   attrition,
	}

	if winner == Attacker {
		res.Decisiveness = decisiveness(d, defenders)
	} else {
		res.Decisiveness = decisiveness(a, attackers)
	}
	if intensity == AllOutWar && res.Decisiveness > 0.5 {
		res.Decisiveness = math.Min(res.Decisiveness*allOutWarBonus, 1)
	}

	if opts.MonthsAtWar > 0 || opts.ExistingCasualties > 0 || opts.AttackerPopulation > 0 {
		ex := ComputeExhaustion(opts.MonthsAtWar, nonNegative(opts.ExistingCasualties)+res.AttackerLosses, opts.AttackerPopulation)
		res.Exhaustion = &ex
	}

	return res
}

// decideWinner picks the surviving side; at the round cap the larger army
// wins and the defender holds on ties.
func decideWinner(attackers, defenders int) Side {
	switch {
	case attackers == 0:
		return Defender
	case defenders == 0:
		return Attacker
	case attackers > defenders:
		return Attacker
	default:
		return Defender
	}
}

// decisiveness is the fraction of the loser's initial force destroyed.
func decisiveness(remaining, initial int) float64 {
	if initial <= 0 {
		return 1
	}
	v := 1 - float64(remaining)/float64(initial)
	return math.Max(0, math.Min(1, v))
}
