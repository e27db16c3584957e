package strategy

// Focus is a nation's top-level behavioral mode for the cycle.
type Focus uint8

const (
	FocusDevelop Focus = iota
	FocusDefend
	FocusExpand
	FocusConsolidate
	FocusAlly
)

const (
	defendThreshold      = 60.0
	consolidateThreshold = 40.0
)

func (f Focus) String() string {
	switch f {
	case FocusDefend:
		return "DEFEND"
	case FocusExpand:
		return "EXPAND"
	case FocusConsolidate:
		return "CONSOLIDATE"
	case FocusAlly:
		return "ALLY"
	default:
		return "DEVELOP"
	}
}

// MarshalText encodes the focus by name.
func (f Focus) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// SelectFocus picks the focus for this cycle. First matching rule wins; no
// history is consulted.
func SelectFocus(p Personality, threat Threat, opp Opportunity, atWar bool) Focus {
	switch {
	case threat.Total > defendThreshold:
		return FocusDefend
	case atWar:
		if p == Expansionist {
			return FocusExpand
		}
		return FocusDefend
	case threat.Internal > consolidateThreshold:
		return FocusConsolidate
	}

	switch p {
	case Expansionist:
		if len(opp.WeakNeighbors) > 0 {
			return FocusExpand
		}
	case Defensive, Ideological:
		if len(opp.AllianceGaps) > 0 {
			return FocusAlly
		}
	case TradingPower:
		if len(opp.TradeCandidates) > 0 {
			return FocusAlly
		}
	case Opportunist:
		switch opp.Best {
		case OpportunityExpand:
			return FocusExpand
		case OpportunityAlly, OpportunityTrade:
			return FocusAlly
		}
	case Isolationist:
	}
	return FocusDevelop
}
