// Capital placement: finds defensible, well-connected sites for each nation.
package world

import (
	"math/rand"
	"sort"
	"strconv"
)

// minCapitalDist keeps capitals from crowding each other.
const minCapitalDist = 5

// CapitalSeed is the site and name chosen for one nation's capital.
type CapitalSeed struct {
	Coord   HexCoord
	Name    string
	Score   float64 // Desirability score
	Coastal bool
}

// PlaceCapitals picks up to n capital sites, best first, at least
// minCapitalDist hexes apart. Placed hexes are marked as capitals.
func PlaceCapitals(m *Map, n int, seed int64) []CapitalSeed {
	rng := rand.New(rand.NewSource(seed + 200))

	type scored struct {
		coord HexCoord
		score float64
	}
	var candidates []scored
	for coord, hex := range m.Hexes {
		if hex.Terrain == TerrainOcean {
			continue
		}
		if s := capitalScore(m, coord, hex); s > 0 {
			candidates = append(candidates, scored{coord, s})
		}
	}

	// Map iteration order is random; break score ties by coordinate.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].coord.Q != candidates[j].coord.Q {
			return candidates[i].coord.Q < candidates[j].coord.Q
		}
		return candidates[i].coord.R < candidates[j].coord.R
	})

	var seeds []CapitalSeed
	for _, c := range candidates {
		if len(seeds) >= n {
			break
		}
		if tooClose(c.coord, seeds, minCapitalDist) {
			continue
		}
		m.Get(c.coord).Capital = true
		seeds = append(seeds, CapitalSeed{
			Coord:   c.coord,
			Score:   c.score,
			Coastal: m.IsCoastal(c.coord),
		})
	}

	names := generateNames(rng, len(seeds))
	for i := range seeds {
		seeds[i].Name = names[i]
	}
	return seeds
}

// capitalScore evaluates how desirable a hex is for a capital.
// Prefers ports and plains, with defensible high ground nearby.
func capitalScore(m *Map, coord HexCoord, hex *Hex) float64 {
	score := 0.0

	switch hex.Terrain {
	case TerrainPlains:
		score += 3.0
	case TerrainCoast:
		score += 4.0 // Harbors project power by sea
	case TerrainForest:
		score += 1.5
	case TerrainDesert, TerrainSwamp, TerrainTundra:
		score += 0.5
	case TerrainMountain:
		score += 0.3
	default:
		return 0
	}

	terrainTypes := make(map[Terrain]bool)
	for _, nc := range coord.Neighbors() {
		nh := m.Get(nc)
		if nh == nil || nh.Terrain == TerrainOcean {
			continue
		}
		terrainTypes[nh.Terrain] = true
		if nh.Terrain == TerrainMountain {
			score += 0.4
		}
	}
	score += float64(len(terrainTypes)) * 0.3

	return score
}

func tooClose(coord HexCoord, existing []CapitalSeed, minDist int) bool {
	for _, s := range existing {
		if Distance(coord, s.Coord) < minDist {
			return true
		}
	}
	return false
}

// generateNames produces procedural realm names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Vel", "Kor", "Ast", "Mar", "Ul", "Dra", "Sel", "Tor",
		"Bel", "Cas", "Eld", "Fen", "Gar", "Hal", "Ist", "Jor",
		"Lor", "Nor", "Ost", "Pra", "Rav", "Sar", "Val", "Wen",
	}
	suffixes := []string{
		"avia", "ania", "heim", "mark", "oria", "land", "stan", "ence",
		"ovia", "aria", "gard", "mont", "esse", "idor", "onia", "ura",
	}

	// Once every syllable pair is taken, repeats get a numeral instead.
	space := len(prefixes) * len(suffixes)
	used := make(map[string]bool)
	names := make([]string, 0, count)
	for len(names) < count {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if used[name] {
			if len(used) < space {
				continue
			}
			base := name
			for n := 2; used[name]; n++ {
				name = base + " " + strconv.Itoa(n)
			}
		}
		used[name] = true
		names = append(names, name)
	}
	return names
}
