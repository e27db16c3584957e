package combat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTerrain is returned by ParseTerrain for unrecognized names.
var ErrUnknownTerrain = errors.New("unknown terrain")

// Terrain is the ground a battle is fought on.
type Terrain uint8

const (
	TerrainPlains Terrain = iota
	TerrainForest
	TerrainMountains
	TerrainDesert
	TerrainUrban
	TerrainCoastal
)

// TerrainModifiers is the fixed pair of constants each terrain class carries.
type TerrainModifiers struct {
	// AttackerPenalty is added to the intensity multiplier for attacker losses.
	AttackerPenalty float64
	// DefenderModifier multiplies defender losses.
	DefenderModifier float64
}

// Modifiers returns the terrain's combat modifiers. Unknown values fight as plains.
func (t Terrain) Modifiers() TerrainModifiers {
	switch t {
	case TerrainForest:
		return TerrainModifiers{AttackerPenalty: 0.15, DefenderModifier: 0.85}
	case TerrainMountains:
		return TerrainModifiers{AttackerPenalty: 0.30, DefenderModifier: 0.70}
	case TerrainDesert:
		return TerrainModifiers{AttackerPenalty: 0.10, DefenderModifier: 0.90}
	case TerrainUrban:
		return TerrainModifiers{AttackerPenalty: 0.25, DefenderModifier: 0.75}
	case TerrainCoastal:
		return TerrainModifiers{AttackerPenalty: 0.05, DefenderModifier: 0.95}
	default:
		return TerrainModifiers{AttackerPenalty: 0, DefenderModifier: 1.0}
	}
}

func (t Terrain) String() string {
	switch t {
	case TerrainPlains:
		return "plains"
	case TerrainForest:
		return "forest"
	case TerrainMountains:
		return "mountains"
	case TerrainDesert:
		return "desert"
	case TerrainUrban:
		return "urban"
	case TerrainCoastal:
		return "coastal"
	default:
		return "unknown"
	}
}

// MarshalText encodes the terrain by name.
func (t Terrain) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a terrain name.
func (t *Terrain) UnmarshalText(b []byte) error {
	parsed, err := ParseTerrain(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTerrain maps a case-insensitive terrain name to its value.
func ParseTerrain(s string) (Terrain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plains", "plain", "":
		return TerrainPlains, nil
	case "forest":
		return TerrainForest, nil
	case "mountains", "mountain":
		return TerrainMountains, nil
	case "desert":
		return TerrainDesert, nil
	case "urban", "city":
		return TerrainUrban, nil
	case "coastal", "coast":
		return TerrainCoastal, nil
	}
	return TerrainPlains, fmt.Errorf("parse terrain %q: %w", s, ErrUnknownTerrain)
}
