package world

import "fmt"

// frontFraction places a front two thirds of the way toward the defender.
const frontFraction = 2.0 / 3.0

// Map holds the complete hex grid.
type Map struct {
	Hexes  map[HexCoord]*Hex `json:"-"`
	Radius int               `json:"radius"`
}

// NewMap creates an empty map with the given radius.
// A hex grid of radius R contains hexes where max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	return &Map{
		Hexes:  make(map[HexCoord]*Hex),
		Radius: radius,
	}
}

// Get returns the hex at the given coordinate, or nil if out of bounds.
func (m *Map) Get(coord HexCoord) *Hex {
	return m.Hexes[coord]
}

// Set places a hex at the given coordinate.
func (m *Map) Set(hex *Hex) {
	m.Hexes[hex.Coord] = hex
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return max(abs(coord.Q), abs(coord.R), abs(coord.S())) <= m.Radius
}

// HexCount returns the total number of hexes in the map.
func (m *Map) HexCount() int {
	return len(m.Hexes)
}

// IsCoastal reports whether a land hex touches the ocean.
func (m *Map) IsCoastal(coord HexCoord) bool {
	hex := m.Get(coord)
	if hex == nil || hex.Terrain == TerrainOcean {
		return false
	}
	if hex.Terrain == TerrainCoast {
		return true
	}
	for _, nc := range coord.Neighbors() {
		if nh := m.Get(nc); nh != nil && nh.Terrain == TerrainOcean {
			return true
		}
	}
	return false
}

// Front is where an attacker from one capital meets a defender at another.
type Front struct {
	Coord      HexCoord
	DistanceKm float64 // from the attacker's capital
	SeaAccess  bool    // attacker capital is a port
}

// FrontBetween locates the battle front for an attack from one capital on
// another, and the terrain it is fought on.
func (m *Map) FrontBetween(attacker, defender HexCoord) (Front, *Hex) {
	coord := Lerp(attacker, defender, frontFraction)
	hex := m.Get(coord)
	if hex == nil {
		hex = &Hex{Coord: coord, Terrain: TerrainPlains}
	}
	return Front{
		Coord:      coord,
		DistanceKm: DistanceKm(attacker, coord),
		SeaAccess:  m.IsCoastal(attacker),
	}, hex
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, hexes=%d)", m.Radius, m.HexCount())
}
