package strategy

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/talgya/conquest/internal/social"
)

func nation(code social.NationCode, power float64) social.Nation {
	return social.Nation{
		Code:             code,
		Power:            power,
		Aggression:       3,
		Military:         3,
		Economy:          50,
		LeaderPopularity: 50,
		Relations:        make(map[social.NationCode]float64),
	}
}

func snapshotOf(ns ...social.Nation) *social.Snapshot {
	ptrs := make([]*social.Nation, len(ns))
	for i := range ns {
		ptrs[i] = &ns[i]
	}
	return social.NewSnapshot(1, ptrs)
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAssessThreat(t *testing.T) {
	enemy := nation("ENE", 100)

	self := nation("SLF", 50)
	self.AddEnemy("ENE")
	self.Embargoed = true
	self.HighTariffs = true
	self.Economy = 20
	self.Unrest = 50
	self.LeaderPopularity = 20

	got := AssessThreat(&self, snapshotOf(self, enemy), 80)
	want := Threat{Military: 100, Economic: 65, Internal: 54, Total: 80.3}
	if got.Military != want.Military || got.Economic != want.Economic ||
		!approxEqual(got.Internal, want.Internal) || !approxEqual(got.Total, want.Total) {
		t.Errorf("AssessThreat = %+v, want %+v", got, want)
	}

	calm := nation("SLF", 50)
	got = AssessThreat(&calm, snapshotOf(calm), 40)
	if got != (Threat{}) {
		t.Errorf("AssessThreat(calm, weaker rival) = %+v, want zero", got)
	}

	calm.Unrest = math.NaN()
	calm.Economy = math.Inf(-1)
	got = AssessThreat(&calm, snapshotOf(calm), math.NaN())
	if got.Internal != 0 || got.Economic != 20 {
		t.Errorf("AssessThreat(non-finite) = %+v, want internal 0, economic 20", got)
	}
}

func TestAssessOpportunity(t *testing.T) {
	self := nation("SLF", 50)
	self.Aggression = 4
	self.Ideology = 10
	self.AddAlly("ALY")
	self.AdjustRelation("HOS", -60)

	weak := nation("WEK", 20)
	weak.Ideology = 80
	weak.Economy = 30
	tiny := nation("TNY", 10)
	tiny.Economy = 50
	peer := nation("PER", 45)
	peer.Ideology = 20
	peer.Economy = 60
	ally := nation("ALY", 20)
	ally.Economy = 70
	hostile := nation("HOS", 25)
	hostile.Ideology = 15
	hostile.Economy = 90
	dead := nation("DED", 0)
	dead.Annexed = true

	world := snapshotOf(self, weak, tiny, peer, ally, hostile, dead)
	got := AssessOpportunity(&self, world)
	want := Opportunity{
		WeakNeighbors:   []social.NationCode{"TNY", "WEK", "HOS"},
		AllianceGaps:    []social.NationCode{"PER"},
		TradeCandidates: []social.NationCode{"ALY", "PER", "TNY"},
		Best:            OpportunityExpand,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AssessOpportunity =\n%+v\nwant\n%+v", got, want)
	}

	self.Aggression = 2
	got = AssessOpportunity(&self, world)
	if len(got.WeakNeighbors) != 0 || got.Best != OpportunityAlly {
		t.Errorf("peaceful nation: weak=%v best=%v, want none and ALLY", got.WeakNeighbors, got.Best)
	}
}

func TestSelectFocus_HighThreatAlwaysDefends(t *testing.T) {
	personalities := append([]Personality{Unassigned}, Personalities[:]...)
	opportunities := []Opportunity{
		{},
		{WeakNeighbors: []social.NationCode{"A"}, Best: OpportunityExpand},
		{AllianceGaps: []social.NationCode{"A"}, Best: OpportunityAlly},
		{TradeCandidates: []social.NationCode{"A"}, Best: OpportunityTrade},
	}
	for _, p := range personalities {
		for _, opp := range opportunities {
			for _, atWar := range []bool{false, true} {
				for _, total := range []float64{60.01, 75, 100} {
					threat := Threat{Total: total, Internal: 90}
					if got := SelectFocus(p, threat, opp, atWar); got != FocusDefend {
						t.Errorf("SelectFocus(%v, threat %v, %v, war=%v) = %v, want DEFEND",
							p, total, opp.Best, atWar, got)
					}
				}
			}
		}
	}
}

func TestSelectFocus(t *testing.T) {
	weak := Opportunity{WeakNeighbors: []social.NationCode{"A"}, Best: OpportunityExpand}
	gap := Opportunity{AllianceGaps: []social.NationCode{"A"}, Best: OpportunityAlly}
	trade := Opportunity{TradeCandidates: []social.NationCode{"A"}, Best: OpportunityTrade}

	tests := []struct {
		name   string
		p      Personality
		threat Threat
		opp    Opportunity
		atWar  bool
		want   Focus
	}{
		{"expansionist at war", Expansionist, Threat{}, Opportunity{}, true, FocusExpand},
		{"defensive at war", Defensive, Threat{}, weak, true, FocusDefend},
		{"unrest consolidates", Expansionist, Threat{Internal: 41}, weak, false, FocusConsolidate},
		{"expansionist with target", Expansionist, Threat{}, weak, false, FocusExpand},
		{"expansionist without target", Expansionist, Threat{}, gap, false, FocusDevelop},
		{"defensive gap", Defensive, Threat{}, gap, false, FocusAlly},
		{"defensive no gap", Defensive, Threat{}, trade, false, FocusDevelop},
		{"trader", TradingPower, Threat{}, trade, false, FocusAlly},
		{"trader no partners", TradingPower, Threat{}, gap, false, FocusDevelop},
		{"ideologue", Ideological, Threat{}, gap, false, FocusAlly},
		{"opportunist expands", Opportunist, Threat{}, weak, false, FocusExpand},
		{"opportunist trades", Opportunist, Threat{}, trade, false, FocusAlly},
		{"opportunist idle", Opportunist, Threat{}, Opportunity{}, false, FocusDevelop},
		{"isolationist", Isolationist, Threat{}, weak, false, FocusDevelop},
		{"threshold is exclusive", Defensive, Threat{Total: 60}, gap, false, FocusAlly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectFocus(tt.p, tt.threat, tt.opp, tt.atWar); got != tt.want {
				t.Errorf("SelectFocus() = %v, want %v", got, tt.want)
			}
		})
	}
}

// countingSource records how often it is drawn from.
type countingSource struct{ calls int }

func (c *countingSource) Intn(n int) int { c.calls++; return 0 }
func (c *countingSource) Float64() float64 { c.calls++; return 0.1 }

func TestAssess_KeepsPersonality(t *testing.T) {
	self := nation("SLF", 80)
	other := nation("OTH", 60)
	world := snapshotOf(self, other)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	rng := &countingSource{}
	first := Assess(rng, &self, Defensive, world, 60, now)
	second := Assess(rng, &self, Defensive, world, 60, now)

	if rng.calls != 0 {
		t.Errorf("assigned personality consumed %d draws", rng.calls)
	}
	if first.Personality != Defensive {
		t.Errorf("Personality = %v, want DEFENSIVE", first.Personality)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated assessment differs:\n%+v\n%+v", first, second)
	}
	if !first.AssessedAt.Equal(now) {
		t.Errorf("AssessedAt = %v, want %v", first.AssessedAt, now)
	}
}

func TestAssess_AssignsOnce(t *testing.T) {
	self := nation("SLF", 80)
	world := snapshotOf(self)
	rng := &countingSource{}

	st := Assess(rng, &self, Unassigned, world, 0, time.Time{})
	if st.Personality == Unassigned {
		t.Fatal("personality not assigned")
	}
	if rng.calls == 0 {
		t.Error("expected a draw for an unassigned nation")
	}
	if len(st.Actions) == 0 || len(st.Actions) > MaxActions {
		t.Errorf("len(Actions) = %d, want 1..%d", len(st.Actions), MaxActions)
	}
}
