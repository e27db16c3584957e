package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/talgya/conquest/internal/social"
)

// ErrUnknownAction is returned by ParseActionKind for unrecognized names.
var ErrUnknownAction = errors.New("unknown action kind")

// MaxActions caps the action queue.
const MaxActions = 5

// ActionKind is a concrete diplomatic or military step.
type ActionKind uint8

const (
	ActionDemandTerritory ActionKind = iota
	ActionBuildMilitary
	ActionProposeAlliance
	ActionTradeAgreement
	ActionEconomicFocus
)

var actionNames = map[ActionKind]string{
	ActionDemandTerritory: "DEMAND_TERRITORY",
	ActionBuildMilitary:   "BUILD_MILITARY",
	ActionProposeAlliance: "PROPOSE_ALLIANCE",
	ActionTradeAgreement:  "TRADE_AGREEMENT",
	ActionEconomicFocus:   "ECONOMIC_FOCUS",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText encodes the kind by name.
func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes an action kind name.
func (k *ActionKind) UnmarshalText(b []byte) error {
	parsed, err := ParseActionKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseActionKind maps a case-insensitive action name to its value.
func ParseActionKind(s string) (ActionKind, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	for k, name := range actionNames {
		if name == norm {
			return k, nil
		}
	}
	return 0, fmt.Errorf("parse action kind %q: %w", s, ErrUnknownAction)
}

// Action is one queued step with its priority and justification.
type Action struct {
	Kind     ActionKind        `json:"kind"`
	Target   social.NationCode `json:"target,omitempty"`
	Priority int               `json:"priority"`
	Reason   string            `json:"reason"`
	Rule     string            `json:"rule"`
}

func (a Action) String() string {
	if a.Target == "" {
		return fmt.Sprintf("%s(%d)", a.Kind, a.Priority)
	}
	return fmt.Sprintf("%s→%s(%d)", a.Kind, a.Target, a.Priority)
}
