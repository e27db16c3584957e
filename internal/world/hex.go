// Package world provides the hex grid the campaign is played on: terrain,
// capitals, and the geometry that turns two capitals into a battle front.
// Uses axial coordinates (q, r) for the hex grid.
package world

import "github.com/talgya/conquest/internal/combat"

// KmPerHex is the ground distance across one hex.
const KmPerHex = 150.0

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Terrain types for hex tiles.
type Terrain uint8

const (
	TerrainPlains   Terrain = iota // Open ground
	TerrainForest                  // Woodland, slows an advance
	TerrainMountain                // Highlands, strongest defensive ground
	TerrainCoast                   // Land touching the sea
	TerrainDesert                  // Arid, hard on supply
	TerrainSwamp                   // Wetland
	TerrainTundra                  // Frozen plain
	TerrainOcean                   // Impassable except by ship
)

// Hex represents a single tile on the world map.
type Hex struct {
	Coord   HexCoord `json:"coord"`
	Terrain Terrain  `json:"terrain"`

	Elevation   float64 `json:"elevation"`   // 0.0 (sea level) to 1.0 (peak)
	Rainfall    float64 `json:"rainfall"`    // 0.0 (arid) to 1.0 (tropical)
	Temperature float64 `json:"temperature"` // 0.0 (frozen) to 1.0 (hot)

	// Capital on this hex, if any.
	Capital bool `json:"capital,omitempty"`
}

// CombatTerrain maps the tile to the terrain class battles are fought on.
// Capitals fight as urban ground; a front at sea becomes an amphibious
// landing on the coast.
func (h *Hex) CombatTerrain() combat.Terrain {
	if h.Capital {
		return combat.TerrainUrban
	}
	switch h.Terrain {
	case TerrainForest, TerrainSwamp:
		return combat.TerrainForest
	case TerrainMountain:
		return combat.TerrainMountains
	case TerrainDesert, TerrainTundra:
		return combat.TerrainDesert
	case TerrainCoast, TerrainOcean:
		return combat.TerrainCoastal
	default:
		return combat.TerrainPlains
	}
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S()-b.S()))
}

// DistanceKm returns the ground distance between two coordinates.
func DistanceKm(a, b HexCoord) float64 {
	return float64(Distance(a, b)) * KmPerHex
}

// Lerp returns the hex at fraction t along the straight line from a to b.
func Lerp(a, b HexCoord, t float64) HexCoord {
	q := float64(a.Q) + float64(b.Q-a.Q)*t
	r := float64(a.R) + float64(b.R-a.R)*t
	return roundCube(q, r, -q-r)
}

// roundCube rounds fractional cube coordinates to the nearest hex.
func roundCube(q, r, s float64) HexCoord {
	rq, rr, rs := roundHalf(q), roundHalf(r), roundHalf(s)
	dq, dr, ds := absf(rq-q), absf(rr-r), absf(rs-s)
	switch {
	case dq > dr && dq > ds:
		rq = -rr - rs
	case dr > ds:
		rr = -rq - rs
	}
	return HexCoord{Q: int(rq), R: int(rr)}
}

func roundHalf(v float64) float64 {
	if v < 0 {
		return -float64(int(-v + 0.5))
	}
	return float64(int(v + 0.5))
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
