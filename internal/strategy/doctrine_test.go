package strategy

import (
	"testing"

	"github.com/talgya/conquest/internal/social"
)

func TestDefaultRules_Compile(t *testing.T) {
	if _, err := CompileDoctrine(DefaultRules()); err != nil {
		t.Fatalf("CompileDoctrine(DefaultRules()) = %v", err)
	}
	if got, want := len(DefaultDoctrine().Rules()), len(DefaultRules()); got != want {
		t.Errorf("default doctrine has %d rules, want %d", got, want)
	}
}

func TestCompileDoctrine_RejectsBadCondition(t *testing.T) {
	bad := []Rule{
		{Name: "typo", ConditionSrc: `Focuss == "DEFEND"`},
	}
	if _, err := CompileDoctrine(bad); err == nil {
		t.Error("unknown field compiled without error")
	}
	notBool := []Rule{
		{Name: "number", ConditionSrc: `Soldiers + 1`},
	}
	if _, err := CompileDoctrine(notBool); err == nil {
		t.Error("non-boolean condition compiled without error")
	}
}

func TestGenerateActions(t *testing.T) {
	four := []social.NationCode{"AAA", "BBB", "CCC", "DDD"}

	tests := []struct {
		name string
		env  Env
		opp  Opportunity
		want []Action
	}{
		{
			name: "expand ranks targets",
			env:  Env{Focus: "EXPAND", Aggression: 4, WeakNeighbors: 4},
			opp:  Opportunity{WeakNeighbors: four},
			want: []Action{
				{Kind: ActionDemandTerritory, Target: "AAA", Priority: 90},
				{Kind: ActionDemandTerritory, Target: "BBB", Priority: 85},
				{Kind: ActionDemandTerritory, Target: "CCC", Priority: 80},
				{Kind: ActionBuildMilitary, Priority: 70},
				{Kind: ActionEconomicFocus, Priority: 10},
			},
		},
		{
			name: "queue is capped",
			env:  Env{Focus: "ALLY", AllianceGaps: 4, TradeCandidates: 4},
			opp:  Opportunity{AllianceGaps: four, TradeCandidates: four},
			want: []Action{
				{Kind: ActionProposeAlliance, Target: "AAA", Priority: 85},
				{Kind: ActionProposeAlliance, Target: "BBB", Priority: 80},
				{Kind: ActionProposeAlliance, Target: "CCC", Priority: 75},
				{Kind: ActionTradeAgreement, Target: "AAA", Priority: 75},
				{Kind: ActionTradeAgreement, Target: "BBB", Priority: 70},
			},
		},
		{
			name: "repeated kind is queued once",
			env:  Env{Focus: "DEFEND", Economy: 20},
			want: []Action{
				{Kind: ActionBuildMilitary, Priority: 95},
				{Kind: ActionEconomicFocus, Priority: 45},
			},
		},
		{
			name: "isolationist skips trade",
			env:  Env{Focus: "DEVELOP", Personality: "ISOLATIONIST", TradeCandidates: 1},
			opp:  Opportunity{TradeCandidates: []social.NationCode{"AAA"}},
			want: []Action{
				{Kind: ActionEconomicFocus, Priority: 70},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultDoctrine().GenerateActions(tt.env, tt.opp)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d actions %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i].Kind != tt.want[i].Kind || got[i].Target != tt.want[i].Target || got[i].Priority != tt.want[i].Priority {
					t.Errorf("action %d = %v, want %v", i, got[i], tt.want[i])
				}
				if got[i].Reason == "" || got[i].Rule == "" {
					t.Errorf("action %d missing justification: %+v", i, got[i])
				}
			}
		})
	}
}

func TestParseActionKind(t *testing.T) {
	for k := range actionNames {
		got, err := ParseActionKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseActionKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseActionKind("SURRENDER"); err == nil {
		t.Error("ParseActionKind(SURRENDER) succeeded")
	}
}
