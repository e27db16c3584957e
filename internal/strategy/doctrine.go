package strategy

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/talgya/conquest/internal/social"
)

// TargetSource names the opportunity list a rule draws its targets from.
type TargetSource uint8

const (
	NoTarget TargetSource = iota
	WeakNeighbors
	AllianceGaps
	TradeCandidates
)

const (
	maxTargetsPerRule = 3
	targetRankPenalty = 5
)

// Env is the assessment state doctrine conditions are evaluated against.
type Env struct {
	Focus          string
	Personality    string
	Opportunity    string
	AtWar          bool
	Threat         float64
	MilitaryThreat float64
	InternalThreat float64
	Economy        float64
	Unrest         float64
	Power          float64
	Soldiers       int
	Aggression     int

	WeakNeighbors   int
	AllianceGaps    int
	TradeCandidates int
}

// Rule turns a matching condition into one action, or one per target.
type Rule struct {
	Name         string
	Kind         ActionKind
	Priority     int    // higher = queued first
	ConditionSrc string // expr source over Env
	Targets      TargetSource
	Reason       string
	program      *vm.Program
}

// Doctrine is a compiled, immutable rule set. Safe for concurrent use.
type Doctrine struct {
	rules []*Rule
}

// CompileDoctrine compiles every rule condition into expr bytecode.
func CompileDoctrine(rules []Rule) (*Doctrine, error) {
	d := &Doctrine{rules: make([]*Rule, 0, len(rules))}
	for _, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
		d.rules = append(d.rules, &r)
	}
	return d, nil
}

// MustCompileDoctrine is CompileDoctrine for rule sets known at build time.
func MustCompileDoctrine(rules []Rule) *Doctrine {
	d, err := CompileDoctrine(rules)
	if err != nil {
		panic(err)
	}
	return d
}

// Rules returns the rule names in declaration order.
func (d *Doctrine) Rules() []string {
	names := make([]string, len(d.rules))
	for i, r := range d.rules {
		names[i] = r.Name
	}
	return names
}

// GenerateActions evaluates every rule and returns at most MaxActions actions,
// highest priority first. Equal priorities keep rule order.
func (d *Doctrine) GenerateActions(env Env, opp Opportunity) []Action {
	var actions []Action
	seen := make(map[actionKey]bool)

	for _, r := range d.rules {
		out, err := vm.Run(r.program, env)
		if err != nil {
			continue
		}
		if match, ok := out.(bool); !ok || !match {
			continue
		}

		if r.Targets == NoTarget {
			actions = appendAction(actions, seen, Action{
				Kind: r.Kind, Priority: r.Priority, Reason: r.Reason, Rule: r.Name,
			})
			continue
		}
		for rank, target := range targetsFor(r.Targets, opp) {
			if rank >= maxTargetsPerRule {
				break
			}
			actions = appendAction(actions, seen, Action{
				Kind:     r.Kind,
				Target:   target,
				Priority: r.Priority - rank*targetRankPenalty,
				Reason:   fmt.Sprintf("%s: %s", r.Reason, target),
				Rule:     r.Name,
			})
		}
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority > actions[j].Priority
	})
	if len(actions) > MaxActions {
		actions = actions[:MaxActions]
	}
	return actions
}

type actionKey struct {
	kind   ActionKind
	target social.NationCode
}

// appendAction drops repeats of a kind/target pair already queued by an
// earlier rule.
func appendAction(actions []Action, seen map[actionKey]bool, a Action) []Action {
	k := actionKey{a.Kind, a.Target}
	if seen[k] {
		return actions
	}
	seen[k] = true
	return append(actions, a)
}

func targetsFor(src TargetSource, opp Opportunity) []social.NationCode {
	switch src {
	case WeakNeighbors:
		return opp.WeakNeighbors
	case AllianceGaps:
		return opp.AllianceGaps
	case TradeCandidates:
		return opp.TradeCandidates
	default:
		return nil
	}
}

// DefaultRules is the standard doctrine shared by every nation.
func DefaultRules() []Rule {
	return []Rule{
		// DEFEND
		{Name: "defend-mobilize", Kind: ActionBuildMilitary, Priority: 95,
			ConditionSrc: `Focus == "DEFEND"`,
			Reason:       "threat demands a larger army"},
		{Name: "defend-coalition", Kind: ActionProposeAlliance, Priority: 80, Targets: AllianceGaps,
			ConditionSrc: `Focus == "DEFEND" && AllianceGaps > 0`,
			Reason:       "seek protection from a like-minded power"},
		{Name: "defend-war-economy", Kind: ActionEconomicFocus, Priority: 45,
			ConditionSrc: `Focus == "DEFEND" && Economy < 40`,
			Reason:       "economy cannot sustain the defence"},

		// EXPAND
		{Name: "expand-demand", Kind: ActionDemandTerritory, Priority: 90, Targets: WeakNeighbors,
			ConditionSrc: `Focus == "EXPAND" && WeakNeighbors > 0 && Aggression >= 3`,
			Reason:       "weak neighbour within reach"},
		{Name: "expand-arm", Kind: ActionBuildMilitary, Priority: 70,
			ConditionSrc: `Focus == "EXPAND"`,
			Reason:       "conquest needs soldiers"},

		// CONSOLIDATE
		{Name: "consolidate-economy", Kind: ActionEconomicFocus, Priority: 85,
			ConditionSrc: `Focus == "CONSOLIDATE"`,
			Reason:       "restore order at home"},
		{Name: "consolidate-garrison", Kind: ActionBuildMilitary, Priority: 55,
			ConditionSrc: `Focus == "CONSOLIDATE" && Unrest > 60`,
			Reason:       "garrison restless provinces"},

		// ALLY
		{Name: "ally-propose", Kind: ActionProposeAlliance, Priority: 85, Targets: AllianceGaps,
			ConditionSrc: `Focus == "ALLY" && AllianceGaps > 0`,
			Reason:       "close an alliance gap"},
		{Name: "ally-trade", Kind: ActionTradeAgreement, Priority: 75, Targets: TradeCandidates,
			ConditionSrc: `Focus == "ALLY" && TradeCandidates > 0`,
			Reason:       "open a trade route"},

		// DEVELOP
		{Name: "develop-economy", Kind: ActionEconomicFocus, Priority: 70,
			ConditionSrc: `Focus == "DEVELOP"`,
			Reason:       "invest in the economy"},
		{Name: "develop-trade", Kind: ActionTradeAgreement, Priority: 60, Targets: TradeCandidates,
			ConditionSrc: `Focus == "DEVELOP" && TradeCandidates > 0 && Personality != "ISOLATIONIST"`,
			Reason:       "profitable partner available"},
		{Name: "develop-deterrent", Kind: ActionBuildMilitary, Priority: 35,
			ConditionSrc: `Focus == "DEVELOP" && (Threat > 30 || Personality == "EXPANSIONIST")`,
			Reason:       "keep a credible deterrent"},

		// Always leave the queue with something to do.
		{Name: "baseline-economy", Kind: ActionEconomicFocus, Priority: 10,
			ConditionSrc: `true`,
			Reason:       "routine administration"},
	}
}

var defaultDoctrine = MustCompileDoctrine(DefaultRules())

// DefaultDoctrine returns the compiled standard doctrine.
func DefaultDoctrine() *Doctrine { return defaultDoctrine }
