package strategy

import (
	"math"
	"sort"

	"github.com/talgya/conquest/internal/social"
)

// OpportunityKind tags the single most attractive opening this cycle.
type OpportunityKind uint8

const (
	OpportunityNone OpportunityKind = iota
	OpportunityExpand
	OpportunityAlly
	OpportunityTrade
)

func (k OpportunityKind) String() string {
	switch k {
	case OpportunityExpand:
		return "EXPAND"
	case OpportunityAlly:
		return "ALLY"
	case OpportunityTrade:
		return "TRADE"
	default:
		return "NONE"
	}
}

// MarshalText encodes the kind by name.
func (k OpportunityKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Opportunity classifies the other nations as openings for expansion,
// alliance or trade. Each list is ordered most attractive first.
type Opportunity struct {
	WeakNeighbors   []social.NationCode `json:"weak_neighbors"`
	AllianceGaps    []social.NationCode `json:"alliance_gaps"`
	TradeCandidates []social.NationCode `json:"trade_candidates"`
	Best            OpportunityKind     `json:"best"`
}

const (
	weakPowerRatio      = 0.6
	maxIdeologyGap      = 40.0
	minAllyPower        = 30.0
	minTradeEconomy     = 40.0
	minExpandAggression = 3
)

// AssessOpportunity scans every other living nation in the snapshot.
func AssessOpportunity(self *social.Nation, world *social.Snapshot) Opportunity {
	var weak, gaps, trade []social.Nation
	selfPower := finite(self.Power)

	for _, o := range world.Nations() {
		if o.Code == self.Code || o.Annexed {
			continue
		}
		allied := self.IsAlly(o.Code)
		hostile := self.IsHostile(o.Code)

		if finite(o.Power) < weakPowerRatio*selfPower && self.Aggression >= minExpandAggression && !allied {
			weak = append(weak, o)
		}
		if math.Abs(finite(self.Ideology)-finite(o.Ideology)) < maxIdeologyGap && !allied && !hostile && finite(o.Power) > minAllyPower {
			gaps = append(gaps, o)
		}
		if finite(o.Economy) > minTradeEconomy && !self.IsTradePartner(o.Code) && !hostile {
			trade = append(trade, o)
		}
	}

	sortNations(weak, func(a, b social.Nation) bool { return a.Power < b.Power })
	sortNations(gaps, func(a, b social.Nation) bool { return a.Power > b.Power })
	sortNations(trade, func(a, b social.Nation) bool { return a.Economy > b.Economy })

	opp := Opportunity{
		WeakNeighbors:   codes(weak),
		AllianceGaps:    codes(gaps),
		TradeCandidates: codes(trade),
	}
	switch {
	case self.Aggression >= minExpandAggression && len(weak) > 0:
		opp.Best = OpportunityExpand
	case len(gaps) > 0:
		opp.Best = OpportunityAlly
	case len(trade) > 0:
		opp.Best = OpportunityTrade
	default:
		opp.Best = OpportunityNone
	}
	return opp
}

// sortNations orders by less, breaking ties by code.
func sortNations(ns []social.Nation, less func(a, b social.Nation) bool) {
	sort.SliceStable(ns, func(i, j int) bool {
		if less(ns[i], ns[j]) {
			return true
		}
		if less(ns[j], ns[i]) {
			return false
		}
		return ns[i].Code < ns[j].Code
	})
}

func codes(ns []social.Nation) []social.NationCode {
	out := make([]social.NationCode, len(ns))
	for i, n := range ns {
		out[i] = n.Code
	}
	return out
}

// finite maps NaN and infinities to zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
