package combat

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/talgya/conquest/internal/entropy"
)

func TestSimulateWar_ConservesSoldiers(t *testing.T) {
	if testing.Short() {
		t.Skip("randomized property test")
	}
	rng := entropy.New(2024)
	intensities := []Intensity{Skirmish, Battle, AllOutWar}
	terrains := []Terrain{TerrainPlains, TerrainForest, TerrainMountains, TerrainDesert, TerrainUrban, TerrainCoastal}

	for i := 0; i < 10_000; i++ {
		a := 1 + rng.Intn(1_000_000)
		d := 1 + rng.Intn(1_000_000)
		intensity := intensities[rng.Intn(len(intensities))]
		opts := Options{
			Terrain: terrains[rng.Intn(len(terrains))],
			Supply:  Supply{DistanceKm: rng.Float64() * 5_000, Cut: rng.Intn(4) == 0},
		}
		r := SimulateWar(rng, a, d, intensity, rng.Intn(2) == 0, opts)

		if r.AttackerRemaining < 0 || r.DefenderRemaining < 0 {
			t.Fatalf("trial %d: negative remaining (%d, %d)", i, r.AttackerRemaining, r.DefenderRemaining)
		}
		if r.AttackerRemaining+r.AttackerLosses != a {
			t.Fatalf("trial %d: attacker %d + %d != %d", i, r.AttackerRemaining, r.AttackerLosses, a)
		}
		if r.DefenderRemaining+r.DefenderLosses != d {
			t.Fatalf("trial %d: defender %d + %d != %d", i, r.DefenderRemaining, r.DefenderLosses, d)
		}
		if r.Decisiveness < 0 || r.Decisiveness > 1 {
			t.Fatalf("trial %d: decisiveness %v outside [0, 1]", i, r.Decisiveness)
		}
		if len(r.Rounds) > intensity.MaxRounds() {
			t.Fatalf("trial %d: %d rounds exceeds cap %d", i, len(r.Rounds), intensity.MaxRounds())
		}
	}
}

func TestSimulateWar_MalformedOptions(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name string
		opts Options
	}{
		{"nan stats", Options{
			AttackerStats: ArmyStats{Attack: nan, Defense: nan, Mobility: nan, Morale: nan},
			DefenderStats: ArmyStats{Attack: nan, Defense: nan},
		}},
		{"inf stats", Options{
			AttackerStats: ArmyStats{Attack: inf, Defense: math.Inf(-1)},
			DefenderStats: ArmyStats{Attack: inf, Defense: inf},
		}},
		{"negative stats", Options{
			AttackerStats: ArmyStats{Attack: -10, Defense: -1},
			DefenderStats: ArmyStats{Attack: -3, Defense: 0},
		}},
		{"inf distance", Options{Supply: Supply{DistanceKm: inf, Cut: true}}},
		{"negative months", Options{MonthsAtWar: -5, ExistingCasualties: -100, AttackerPopulation: 1_000_000}},
		{"negative months alone", Options{MonthsAtWar: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SimulateWar(entropy.New(9), 8_000, 6_000, AllOutWar, true, tt.opts)

			if r.AttackerRemaining < 0 || r.AttackerRemaining+r.AttackerLosses != 8_000 {
				t.Errorf("attacker %d + %d != 8000", r.AttackerRemaining, r.AttackerLosses)
			}
			if r.DefenderRemaining < 0 || r.DefenderRemaining+r.DefenderLosses != 6_000 {
				t.Errorf("defender %d + %d != 6000", r.DefenderRemaining, r.DefenderLosses)
			}
			if len(r.Rounds) > AllOutWar.MaxRounds() {
				t.Errorf("%d rounds exceeds cap", len(r.Rounds))
			}
			if math.IsNaN(r.Decisiveness) || r.Decisiveness < 0 || r.Decisiveness > 1 {
				t.Errorf("decisiveness = %v", r.Decisiveness)
			}
			if math.IsNaN(r.SupplyAttrition) || math.IsInf(r.SupplyAttrition, 0) || r.SupplyAttrition < 1 {
				t.Errorf("supply attrition = %v", r.SupplyAttrition)
			}
			if ex := r.Exhaustion; ex != nil {
				if ex.MonthsAtWar < 0 || ex.Casualties < 0 || math.IsNaN(ex.Level) || ex.Level < 0 || ex.Level > 100 {
					t.Errorf("exhaustion = %+v", *ex)
				}
			}
		})
	}
}

func TestSimulateWar_ZeroStrength(t *testing.T) {
	tests := []struct {
		name       string
		attackers  int
		defenders  int
		wantWinner Side
	}{
		{"no attackers", 0, 500, Defender},
		{"no defenders", 500, 0, Attacker},
		{"nobody", 0, 0, Defender},
		{"negative attackers clamp", -30, 500, Defender},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SimulateWar(entropy.New(1), tt.attackers, tt.defenders, Battle, false, Options{})
			if r.Winner != tt.wantWinner {
				t.Errorf("Winner = %v, want %v", r.Winner, tt.wantWinner)
			}
			if len(r.Rounds) != 0 {
				t.Errorf("simulated %d rounds, want 0", len(r.Rounds))
			}
			if r.AttackerRemaining < 0 || r.AttackerLosses != 0 || r.DefenderLosses != 0 {
				t.Errorf("unexpected losses: %+v", r)
			}
		})
	}
}

func TestSimulateWar_Deterministic(t *testing.T) {
	opts := Options{Terrain: TerrainForest, Supply: Supply{DistanceKm: 1200}}
	first := SimulateWar(entropy.New(99), 30_000, 25_000, AllOutWar, true, opts)
	second := SimulateWar(entropy.New(99), 30_000, 25_000, AllOutWar, true, opts)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical seeds produced different results")
	}
	if len(first.Rounds) == 0 {
		t.Fatal("expected rounds to be simulated")
	}
}

func TestSimulateWar_FortificationReducesDefenderLosses(t *testing.T) {
	const trials = 1_000
	mean := func(fortified bool) float64 {
		rng := entropy.New(31)
		total := 0
		for i := 0; i < trials; i++ {
			r := SimulateWar(rng, 5_000, 5_000, Skirmish, fortified, Options{})
			total += r.DefenderLosses
		}
		return float64(total) / trials
	}
	open, fortified := mean(false), mean(true)
	if fortified >= open {
		t.Errorf("fortified defender losses %.1f, want below unfortified %.1f", fortified, open)
	}
}

func TestSimulateWar_OverwhelmingAttacker(t *testing.T) {
	rng := entropy.New(5)
	const trials = 200
	wins, decisive := 0, 0
	for i := 0; i < trials; i++ {
		r := SimulateWar(rng, 50_000, 10_000, Battle, false, Options{Terrain: TerrainPlains})
		if r.Winner == Attacker {
			wins++
		}
		if r.Decisiveness > 0.5 {
			decisive++
		}
	}
	if wins < trials*95/100 {
		t.Errorf("attacker won %d/%d, want at least 95%%", wins, trials)
	}
	if decisive < trials/2 {
		t.Errorf("decisive in %d/%d battles, want a majority", decisive, trials)
	}
}

func TestSimulateWar_FortifiedMountainsFavorDefender(t *testing.T) {
	const trials = 200
	defenderRate := func(fortified bool, terrain Terrain) float64 {
		rng := entropy.New(11)
		wins := 0
		for i := 0; i < trials; i++ {
			r := SimulateWar(rng, 20_000, 20_000, Battle, fortified, Options{Terrain: terrain})
			if r.Winner == Defender {
				wins++
			}
		}
		return float64(wins) / trials
	}
	mountain := defenderRate(true, TerrainMountains)
	plains := defenderRate(false, TerrainPlains)
	if mountain <= 0.5 {
		t.Errorf("fortified mountain defender win rate %.2f, want above 0.5", mountain)
	}
	if mountain <= plains {
		t.Errorf("fortified mountain rate %.2f not above open plains rate %.2f", mountain, plains)
	}
}

func TestSimulateWar_ExhaustionSnapshot(t *testing.T) {
	r := SimulateWar(entropy.New(3), 1_000, 1_000, Battle, false, Options{})
	if r.Exhaustion != nil {
		t.Errorf("expected no exhaustion without war context, got %+v", r.Exhaustion)
	}

	opts := Options{MonthsAtWar: 12, ExistingCasualties: 2_000, AttackerPopulation: 100_000}
	r = SimulateWar(entropy.New(3), 1_000, 1_000, Battle, false, opts)
	if r.Exhaustion == nil {
		t.Fatal("expected exhaustion snapshot")
	}
	want := ComputeExhaustion(12, 2_000+r.AttackerLosses, 100_000)
	if *r.Exhaustion != want {
		t.Errorf("Exhaustion = %+v, want %+v", *r.Exhaustion, want)
	}
}

func TestSimulateWar_AllOutWarDecisivenessCapped(t *testing.T) {
	r := SimulateWar(entropy.New(8), 100_000, 2_000, AllOutWar, false, Options{})
	if r.Winner != Attacker {
		t.Fatalf("Winner = %v, want attacker", r.Winner)
	}
	if r.Decisiveness != 1 {
		t.Errorf("Decisiveness = %v, want 1", r.Decisiveness)
	}
}

func TestDecideWinner(t *testing.T) {
	tests := []struct {
		a, d int
		want Side
	}{
		{10, 0, Attacker},
		{0, 10, Defender},
		{0, 0, Defender},
		{10, 9, Attacker},
		{9, 10, Defender},
		{10, 10, Defender},
	}
	for _, tt := range tests {
		if got := decideWinner(tt.a, tt.d); got != tt.want {
			t.Errorf("decideWinner(%d, %d) = %v, want %v", tt.a, tt.d, got, tt.want)
		}
	}
}

func TestParseIntensity(t *testing.T) {
	tests := []struct {
		in      string
		want    Intensity
		wantErr error
	}{
		{"SKIRMISH", Skirmish, nil},
		{"battle", Battle, nil},
		{"all_out_war", AllOutWar, nil},
		{"", Battle, nil},
		{"siege", Battle, ErrUnknownIntensity},
	}
	for _, tt := range tests {
		got, err := ParseIntensity(tt.in)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ParseIntensity(%q) error = %v, want %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseIntensity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTerrain(t *testing.T) {
	for _, terrain := range []Terrain{TerrainPlains, TerrainForest, TerrainMountains, TerrainDesert, TerrainUrban, TerrainCoastal} {
		got, err := ParseTerrain(terrain.String())
		if err != nil || got != terrain {
			t.Errorf("ParseTerrain(%q) = %v, %v", terrain.String(), got, err)
		}
	}
	if _, err := ParseTerrain("swamp"); !errors.Is(err, ErrUnknownTerrain) {
		t.Errorf("ParseTerrain(swamp) error = %v, want ErrUnknownTerrain", err)
	}
}

func TestEstimateOdds(t *testing.T) {
	odds := EstimateOdds(entropy.New(4), 100, 40_000, 8_000, Battle, false, Options{MonthsAtWar: 5})
	if odds.Trials != 100 {
		t.Errorf("Trials = %d, want 100", odds.Trials)
	}
	if odds.AttackerWinRate < 0.9 {
		t.Errorf("AttackerWinRate = %.2f, want at least 0.9", odds.AttackerWinRate)
	}
	if odds.MeanDefenderLosses <= 0 {
		t.Errorf("MeanDefenderLosses = %v, want positive", odds.MeanDefenderLosses)
	}

	lopsided := EstimateOdds(entropy.New(4), 0, 1_000, 60_000, Battle, true, Options{Terrain: TerrainMountains})
	if lopsided.Trials != 1 || lopsided.AttackerWinRate != 0 {
		t.Errorf("lopsided odds = %+v, want 1 trial with no attacker win", lopsided)
	}
}
