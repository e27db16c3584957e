package strategy

import (
	"errors"
	"testing"

	"github.com/talgya/conquest/internal/entropy"
)

func TestPersonalityWeight(t *testing.T) {
	hawk := Signals{Aggression: 5, Military: 5, Freedom: 50}
	hermit := Signals{Aggression: 1, Military: 1, Freedom: 10, Ideology: 100}

	tests := []struct {
		p    Personality
		s    Signals
		want float64
	}{
		{Expansionist, hawk, 75},
		{Defensive, hawk, 15},
		{TradingPower, hawk, 5},
		{Ideological, hawk, 5},
		{Opportunist, hawk, 20},
		{Isolationist, hawk, 25},
		{Expansionist, hermit, 5},
		{Defensive, hermit, 45},
		{TradingPower, hermit, 10},
		{Ideological, hermit, 50},
		{Opportunist, hermit, 10},
		{Isolationist, hermit, 50},
		{TradingPower, Signals{Aggression: 3, TradePartners: 9, Freedom: 75}, 60},
		{Unassigned, hawk, 0},
	}
	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			if got := PersonalityWeight(tt.p, tt.s); got != tt.want {
				t.Errorf("PersonalityWeight(%v, %+v) = %v, want %v", tt.p, tt.s, got, tt.want)
			}
		})
	}
}

func TestAssignPersonality_HawkIsExpansionist(t *testing.T) {
	rng := entropy.New(77)
	s := Signals{Aggression: 5, Military: 5, Freedom: 50, TradePartners: 1}

	counts := make(map[Personality]int)
	for i := 0; i < 10_000; i++ {
		counts[AssignPersonality(rng, s)]++
	}

	if counts[Unassigned] != 0 {
		t.Fatalf("drew Unassigned %d times", counts[Unassigned])
	}
	modal := Unassigned
	for _, p := range Personalities {
		if counts[p] > counts[modal] {
			modal = p
		}
	}
	if modal != Expansionist {
		t.Errorf("modal personality = %v, want EXPANSIONIST (counts %v)", modal, counts)
	}
	// Weight floors keep every archetype reachable.
	for _, p := range Personalities {
		if counts[p] == 0 {
			t.Errorf("%v never drawn", p)
		}
	}
}

func TestAssignPersonality_Deterministic(t *testing.T) {
	s := Signals{Aggression: 3, Military: 3, Freedom: 40, Ideology: -70}
	a, b := entropy.New(9), entropy.New(9)
	for i := 0; i < 100; i++ {
		if pa, pb := AssignPersonality(a, s), AssignPersonality(b, s); pa != pb {
			t.Fatalf("draw %d: %v != %v", i, pa, pb)
		}
	}
}

func TestParsePersonality(t *testing.T) {
	for _, p := range Personalities {
		got, err := ParsePersonality(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePersonality(%q) = %v, %v; want %v", p.String(), got, err, p)
		}
	}
	if got, err := ParsePersonality(" trading_power "); err != nil || got != TradingPower {
		t.Errorf("ParsePersonality(lowercase) = %v, %v", got, err)
	}
	if _, err := ParsePersonality("warlike"); !errors.Is(err, ErrUnknownPersonality) {
		t.Errorf("ParsePersonality(warlike) error = %v, want ErrUnknownPersonality", err)
	}
}
