// Campaign map generation from layered simplex noise. Elevation shapes the
// continent; moisture and climate pick the ground armies fight over.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds map generation parameters.
type GenConfig struct {
	Radius      int     // Hex grid radius
	Seed        int64   // Random seed (0 = random)
	SeaLevel    float64 // Elevation below this is ocean (0.0–1.0)
	MountainLvl float64 // Elevation above this is mountain (0.0–1.0)
}

// DefaultGenConfig returns the standard campaign map configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{Radius: 18, SeaLevel: 0.25, MountainLvl: 0.70}
}

// SmallTestConfig returns a tiny map for tests.
func SmallTestConfig() GenConfig {
	return GenConfig{Radius: 6, Seed: 42, SeaLevel: 0.25, MountainLvl: 0.75}
}

// layer is one fractal noise field.
type layer struct {
	noise     opensimplex.Noise
	octaves   int
	frequency float64
}

func (l layer) at(x, y float64) float64 {
	const persistence = 0.5
	freq, amp := l.frequency, 1.0
	var total, norm float64
	for range l.octaves {
		total += l.noise.Eval2(x*freq, y*freq) * amp
		norm += amp
		amp *= persistence
		freq *= 2
	}
	return total / norm
}

// Generate creates a campaign map. The same seed always yields the same map.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	elevation := layer{opensimplex.NewNormalized(seed), 4, 0.08}
	moisture := layer{opensimplex.NewNormalized(seed + 1), 3, 0.06}
	climate := layer{opensimplex.NewNormalized(seed + 2), 3, 0.05}

	radius := float64(cfg.Radius)
	m := NewMap(cfg.Radius)
	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			coord := HexCoord{Q: q, R: r}
			if !m.InBounds(coord) {
				continue
			}
			x, y := cartesian(coord)

			// Land sinks toward the rim so the continent is ringed by sea.
			elev := elevation.at(x, y) * math.Max(0, 1-math.Pow(math.Hypot(x, y)/radius, 3.5))
			rain := moisture.at(x, y)
			// Colder with altitude and toward the poles.
			temp := climate.at(x, y)*0.6 + (1-math.Abs(y)/radius)*0.3 + (1-elev)*0.1

			m.Set(&Hex{
				Coord:       coord,
				Terrain:     classify(cfg, elev, rain, temp),
				Elevation:   elev,
				Rainfall:    rain,
				Temperature: temp,
			})
		}
	}

	shoreUp(m)
	return m
}

// cartesian projects axial coordinates onto the plane the noise is sampled in.
func cartesian(c HexCoord) (x, y float64) {
	return float64(c.Q) + float64(c.R)*0.5, float64(c.R) * math.Sqrt(3) / 2
}

func classify(cfg GenConfig, elev, rain, temp float64) Terrain {
	switch {
	case elev < cfg.SeaLevel:
		return TerrainOcean
	case elev > cfg.MountainLvl:
		return TerrainMountain
	case temp < 0.25:
		return TerrainTundra
	case rain < 0.25 && temp > 0.5:
		return TerrainDesert
	case rain > 0.7 && elev < 0.45:
		return TerrainSwamp
	case rain > 0.45 && elev > 0.45:
		return TerrainForest
	default:
		return TerrainPlains
	}
}

// shoreUp turns low-lying plains and forest beside the sea into coast, where
// landings are fought.
func shoreUp(m *Map) {
	var shore []*Hex
	for coord, hex := range m.Hexes {
		if (hex.Terrain == TerrainPlains || hex.Terrain == TerrainForest) &&
			hex.Elevation < 0.5 && m.IsCoastal(coord) {
			shore = append(shore, hex)
		}
	}
	for _, hex := range shore {
		hex.Terrain = TerrainCoast
	}
}

// TerrainCounts tallies hexes per terrain type.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, hex := range m.Hexes {
		counts[hex.Terrain]++
	}
	return counts
}

var terrainNames = [...]string{
	TerrainPlains:   "Plains",
	TerrainForest:   "Forest",
	TerrainMountain: "Mountain",
	TerrainCoast:    "Coast",
	TerrainDesert:   "Desert",
	TerrainSwamp:    "Swamp",
	TerrainTundra:   "Tundra",
	TerrainOcean:    "Ocean",
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return "Unknown"
}
