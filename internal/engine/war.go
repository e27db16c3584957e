package engine

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/conquest/internal/combat"
	"github.com/talgya/conquest/internal/diplomacy"
	"github.com/talgya/conquest/internal/entropy"
	"github.com/talgya/conquest/internal/social"
	"github.com/talgya/conquest/internal/strategy"
	"github.com/talgya/conquest/internal/world"
)

const (
	airSupplyMobility   = 15.0
	allOutMaxExhaustion = 30.0
	supplyCutExhaustion = 75.0
	peaceExhaustion     = 80.0
	maxWarMonths        = 24
	relationDrift       = 1.0
	declarationGrudge   = -40.0
	postWarRelation     = -30.0
)

// front locates where an attack by n on target is fought.
func (s *Simulation) front(n, target *social.Nation) (world.Front, *world.Hex) {
	if s.WorldMap == nil {
		coord := world.Lerp(n.Capital, target.Capital, 2.0/3.0)
		return world.Front{Coord: coord, DistanceKm: world.DistanceKm(n.Capital, coord)},
			&world.Hex{Coord: coord, Terrain: world.TerrainPlains}
	}
	return s.WorldMap.FrontBetween(n.Capital, target.Capital)
}

// declareWar opens a war with a declared goal and applies the world's reaction.
func (s *Simulation) declareWar(tick uint64, att, def *social.Nation, p strategy.Personality, front world.HexCoord) {
	goalType := diplomacy.ChooseGoalType(att, def, p == strategy.Ideological)
	goal := diplomacy.NewWarGoal(goalType, def.Code, fmt.Sprintf("hex %d,%d", front.Q, front.R))
	reaction := goal.Reaction()

	for _, o := range s.Nations {
		if o.Annexed || o.Code == att.Code {
			continue
		}
		delta := float64(reaction.RelationsPenalty)
		if o.IsAlly(def.Code) {
			delta += float64(reaction.CoalitionPenalty)
		}
		if o.Code == def.Code {
			delta = declarationGrudge
		}
		social.SetMutualRelation(att, o, att.Relation(o.Code)+delta)
	}

	att.RemoveAlly(def.Code)
	def.RemoveAlly(att.Code)
	att.AddEnemy(def.Code)
	def.AddEnemy(att.Code)

	war := &War{
		ID:        uuid.New(),
		Attacker:  att.Code,
		Defender:  def.Code,
		Goal:      goal,
		Reaction:  reaction,
		StartTick: tick,
	}
	s.Wars = append(s.Wars, war)
	s.Stats.WarsDeclared++

	slog.Info("war declared",
		"war", war.ID,
		"attacker", att.Code,
		"defender", def.Code,
		"goal", goal.Type,
		"legitimacy", goal.Legitimacy,
	)
	s.emit(Event{
		Tick:        tick,
		Description: fmt.Sprintf("%s declares war on %s to %s. %s", att.Name, def.Name, goal.Justification, reaction.Description),
		Category:    "war",
	})
}

// fightWars resolves one battle per active war and settles any that end.
func (s *Simulation) fightWars(tick uint64) {
	var ongoing []*War
	for i, w := range s.Wars {
		att, def := s.nation(w.Attacker), s.nation(w.Defender)
		if att == nil || def == nil {
			// A belligerent was annexed in another war this month.
			s.endWar(tick, w, "the war ends as a belligerent ceases to exist")
			continue
		}

		s.fightBattle(tick, uint64(i), w, att, def)

		switch {
		case att.Soldiers == 0:
			s.endWar(tick, w, fmt.Sprintf("%s's armies are destroyed and %s holds", att.Name, def.Name))
		case def.Soldiers == 0:
			s.endWar(tick, w, fmt.Sprintf("%s is overrun", def.Name))
			s.annex(tick, att, def)
		case w.Exhaustion.Level >= peaceExhaustion:
			s.endWar(tick, w, fmt.Sprintf("an exhausted %s sues for peace", att.Name))
		case w.Months >= maxWarMonths:
			s.endWar(tick, w, fmt.Sprintf("stalemate after %d months", w.Months))
		default:
			ongoing = append(ongoing, w)
		}
	}
	// A war fought earlier this month may have lost a belligerent to a
	// later annexation.
	s.Wars = s.Wars[:0]
	for _, w := range ongoing {
		if s.nation(w.Attacker) == nil || s.nation(w.Defender) == nil {
			s.endWar(tick, w, "the war ends as a belligerent ceases to exist")
			continue
		}
		s.Wars = append(s.Wars, w)
	}
}

func (s *Simulation) fightBattle(tick, warIdx uint64, w *War, att, def *social.Nation) {
	front, hex := s.front(att, def)

	intensity := combat.Battle
	switch {
	case w.Months == 0:
		intensity = combat.Skirmish
	case s.personalityOf(att.Code) == strategy.Expansionist && w.Exhaustion.Level < allOutMaxExhaustion:
		intensity = combat.AllOutWar
	}

	opts := combat.Options{
		Terrain: hex.CombatTerrain(),
		Supply: combat.Supply{
			DistanceKm: front.DistanceKm,
			SeaAccess:  front.SeaAccess,
			AirSupply:  att.Stats.Mobility >= airSupplyMobility,
			Cut:        w.Exhaustion.Level > supplyCutExhaustion,
		},
		MonthsAtWar:        w.Months + 1,
		ExistingCasualties: w.AttackerCasualties,
		AttackerPopulation: att.Population,
		AttackerStats:      att.Stats,
		DefenderStats:      def.Stats,
	}

	rng := entropy.Derive(s.Seed, tick, streamBattle, warIdx)
	r := combat.SimulateWar(rng, att.Soldiers, def.Soldiers, intensity, def.Fortified, opts)

	att.Soldiers = r.AttackerRemaining
	def.Soldiers = r.DefenderRemaining
	att.Population = max(0, att.Population-r.AttackerLosses)
	def.Population = max(0, def.Population-r.DefenderLosses)

	w.Months++
	w.Battles++
	w.AttackerCasualties += r.AttackerLosses
	w.DefenderCasualties += r.DefenderLosses
	if r.Exhaustion != nil {
		w.Exhaustion = *r.Exhaustion
	}
	att.Unrest = min(100, att.Unrest+float64(w.Exhaustion.UnrestImpact))
	s.Stats.BattlesFought++

	b := Battle{
		ID:              uuid.New(),
		WarID:           w.ID,
		Tick:            tick,
		Attacker:        att.Code,
		Defender:        def.Code,
		Front:           front.Coord,
		Terrain:         opts.Terrain,
		Intensity:       intensity,
		Winner:          r.Winner,
		Rounds:          len(r.Rounds),
		AttackerLosses:  r.AttackerLosses,
		DefenderLosses:  r.DefenderLosses,
		Decisiveness:    r.Decisiveness,
		SupplyAttrition: r.SupplyAttrition,
	}
	s.recordBattle(b)

	winner, loser := att, def
	if r.Winner == combat.Defender {
		winner, loser = def, att
	}
	s.emit(Event{
		Tick: tick,
		Description: fmt.Sprintf("%s defeats %s in %s fighting on the %s (%s vs %s casualties)",
			winner.Name, loser.Name, intensityWord(intensity), opts.Terrain,
			humanize.Comma(int64(r.AttackerLosses)), humanize.Comma(int64(r.DefenderLosses))),
		Category: "battle",
	})
}

// endWar restores peace between the belligerents still standing.
func (s *Simulation) endWar(tick uint64, w *War, outcome string) {
	att, def := s.index[w.Attacker], s.index[w.Defender]
	if att != nil && def != nil {
		att.RemoveEnemy(def.Code)
		def.RemoveEnemy(att.Code)
		if !att.Annexed && !def.Annexed {
			social.SetMutualRelation(att, def, postWarRelation)
		}
	}

	slog.Info("war ended",
		"war", w.ID,
		"attacker", w.Attacker,
		"defender", w.Defender,
		"months", w.Months,
		"casualties", humanize.Comma(int64(w.AttackerCasualties+w.DefenderCasualties)),
		"exhaustion", fmt.Sprintf("%.1f", w.Exhaustion.Level),
	)
	s.emit(Event{
		Tick:        tick,
		Description: fmt.Sprintf("Peace between %s and %s: %s", w.Attacker, w.Defender, outcome),
		Category:    "peace",
	})
}

// annex absorbs a defeated nation. Its strategy state is discarded.
func (s *Simulation) annex(tick uint64, victor, lost *social.Nation) {
	lost.Annexed = true
	lost.AtWar = false
	victor.Population += lost.Population / 2
	lost.Population = 0
	lost.Soldiers = 0
	lost.Power = 0

	for _, n := range s.Nations {
		if n.Code != lost.Code {
			n.Forget(lost.Code)
		}
	}
	lost.Allies, lost.Enemies, lost.TradePartners, lost.Claims = nil, nil, nil, nil
	delete(s.Strategies, lost.Code)
	s.Stats.Annexations++

	slog.Info("nation annexed", "victor", victor.Code, "annexed", lost.Code)
	s.emit(Event{
		Tick:        tick,
		Description: fmt.Sprintf("%s annexes %s", victor.Name, lost.Name),
		Category:    "annexation",
	})
}

func intensityWord(i combat.Intensity) string {
	switch i {
	case combat.Skirmish:
		return "skirmish"
	case combat.AllOutWar:
		return "all-out"
	default:
		return "pitched"
	}
}
