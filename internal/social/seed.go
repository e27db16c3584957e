package social

import (
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/talgya/conquest/internal/combat"
	"github.com/talgya/conquest/internal/world"
)

// claimChance is the probability that a nation holds a grievance against its
// nearest neighbour at the start of the campaign.
const claimChance = 0.25

// SeedNations creates one nation per capital with randomized political signals,
// forces and starting relations. Deterministic for a given rng.
func SeedNations(rng *rand.Rand, capitals []world.CapitalSeed) []*Nation {
	nations := make([]*Nation, 0, len(capitals))
	used := make(map[NationCode]bool)

	for _, c := range capitals {
		n := &Nation{
			Code:             uniqueCode(c.Name, used),
			Name:             c.Name,
			Aggression:       1 + rng.Intn(5),
			Military:         1 + rng.Intn(5),
			Freedom:          float64(rng.Intn(101)),
			Ideology:         float64(rng.Intn(201) - 100),
			Economy:          20 + float64(rng.Intn(71)),
			Unrest:           float64(rng.Intn(41)),
			LeaderPopularity: 30 + float64(rng.Intn(51)),
			Capital:          c.Coord,
			Relations:        make(map[NationCode]float64),
		}
		n.Population = 1_000_000 + rng.Intn(19_000_000)
		// Militarized states keep a larger share of the population under arms.
		n.Soldiers = n.Population / 1000 * (3 + 2*n.Military)
		n.Stats = combat.ArmyStats{
			Attack:   8 + float64(rng.Intn(5)) + float64(n.Military)/2,
			Defense:  8 + float64(rng.Intn(5)),
			Mobility: 5 + float64(rng.Intn(16)),
			Morale:   80 + float64(rng.Intn(41)),
		}
		n.Fortified = n.Aggression <= 2 || rng.Float64() < 0.2
		nations = append(nations, n)
	}

	for i, a := range nations {
		for _, b := range nations[i+1:] {
			SetMutualRelation(a, b, float64(rng.Intn(81)-40))
		}
	}

	for _, n := range nations {
		if rng.Float64() >= claimChance {
			continue
		}
		if near := nearest(n, nations); near != nil {
			n.Claims = append(n.Claims, near.Code)
			SetMutualRelation(n, near, n.Relation(near.Code)-20)
		}
	}

	RecomputePower(nations)
	return nations
}

// SetMutualRelation sets the relation between two nations in both directions.
func SetMutualRelation(a, b *Nation, v float64) {
	v = max(-100, min(100, v))
	if a.Relations == nil {
		a.Relations = make(map[NationCode]float64)
	}
	if b.Relations == nil {
		b.Relations = make(map[NationCode]float64)
	}
	a.Relations[b.Code] = v
	b.Relations[a.Code] = v
}

// SortByCode orders nations by code so iteration is deterministic.
func SortByCode(nations []*Nation) {
	sort.Slice(nations, func(i, j int) bool { return nations[i].Code < nations[j].Code })
}

func nearest(self *Nation, nations []*Nation) *Nation {
	var best *Nation
	bestDist := 0
	for _, o := range nations {
		if o.Code == self.Code {
			continue
		}
		d := world.Distance(self.Capital, o.Capital)
		if best == nil || d < bestDist {
			best, bestDist = o, d
		}
	}
	return best
}

// uniqueCode derives a three-letter code from a name, adding a digit on collision.
func uniqueCode(name string, used map[NationCode]bool) NationCode {
	base := strings.ToUpper(name)
	if len(base) > 3 {
		base = base[:3]
	}
	code := NationCode(base)
	for i := 2; used[code]; i++ {
		code = NationCode(base + strconv.Itoa(i))
	}
	used[code] = true
	return code
}
