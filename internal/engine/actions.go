package engine

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/conquest/internal/combat"
	"github.com/talgya/conquest/internal/entropy"
	"github.com/talgya/conquest/internal/social"
	"github.com/talgya/conquest/internal/strategy"
)

const (
	oddsTrials             = 24
	minWarOdds             = 0.55
	minWarOddsExpansionist = 0.45
	buildMilitaryRate      = 0.05
	allianceMinRelation    = 0.0
	tradeMinRelation       = -20.0
)

// execute carries out a nation's top action against live state.
func (s *Simulation) execute(tick uint64, idx int, n *social.Nation, p strategy.Personality, a strategy.Action) {
	switch a.Kind {
	case strategy.ActionDemandTerritory:
		s.demandTerritory(tick, idx, n, p, a)
	case strategy.ActionBuildMilitary:
		recruits := max(1, int(float64(n.Soldiers)*buildMilitaryRate))
		n.Soldiers += recruits
		n.Economy = max(0, n.Economy-1)
		slog.Debug("military built", "nation", n.Code, "recruits", recruits, "soldiers", n.Soldiers)
	case strategy.ActionProposeAlliance:
		s.proposeAlliance(tick, n, a.Target)
	case strategy.ActionTradeAgreement:
		s.proposeTrade(tick, n, a.Target)
	case strategy.ActionEconomicFocus:
		n.Economy = min(100, n.Economy+2)
		n.Unrest = max(0, n.Unrest-1)
	}
}

// demandTerritory escalates to war only when projected odds favour the demander.
func (s *Simulation) demandTerritory(tick uint64, idx int, n *social.Nation, p strategy.Personality, a strategy.Action) {
	target := s.nation(a.Target)
	if target == nil || n.IsEnemy(target.Code) || n.IsAlly(target.Code) {
		return
	}

	front, hex := s.front(n, target)
	opts := combat.Options{
		Terrain:       hex.CombatTerrain(),
		Supply:        combat.Supply{DistanceKm: front.DistanceKm, SeaAccess: front.SeaAccess, AirSupply: n.Stats.Mobility >= airSupplyMobility},
		AttackerStats: n.Stats,
		DefenderStats: target.Stats,
	}
	rng := entropy.Derive(s.Seed, tick, streamOdds, uint64(idx))
	odds := combat.EstimateOdds(rng, oddsTrials, n.Soldiers, target.Soldiers, combat.Battle, target.Fortified, opts)

	threshold := minWarOdds
	if p == strategy.Expansionist {
		threshold = minWarOddsExpansionist
	}
	if odds.AttackerWinRate < threshold {
		social.SetMutualRelation(n, target, n.Relation(target.Code)-5)
		s.emit(Event{
			Tick:        tick,
			Description: fmt.Sprintf("%s presses claims on %s but backs down (%.0f%% odds)", n.Name, target.Name, odds.AttackerWinRate*100),
			Category:    "diplomacy",
		})
		return
	}
	s.declareWar(tick, n, target, p, front.Coord)
}

func (s *Simulation) proposeAlliance(tick uint64, n *social.Nation, code social.NationCode) {
	target := s.nation(code)
	if target == nil || n.IsAlly(code) || n.IsHostile(code) {
		return
	}
	if target.Relation(n.Code) < allianceMinRelation {
		n.AdjustRelation(code, -2)
		slog.Debug("alliance rejected", "from", n.Code, "to", code)
		return
	}
	n.AddAlly(code)
	target.AddAlly(n.Code)
	social.SetMutualRelation(n, target, n.Relation(code)+10)
	s.emit(Event{
		Tick:        tick,
		Description: fmt.Sprintf("%s and %s sign an alliance", n.Name, target.Name),
		Category:    "diplomacy",
	})
}

func (s *Simulation) proposeTrade(tick uint64, n *social.Nation, code social.NationCode) {
	target := s.nation(code)
	if target == nil || n.IsTradePartner(code) || n.IsHostile(code) {
		return
	}
	if target.Relation(n.Code) <= tradeMinRelation {
		slog.Debug("trade rejected", "from", n.Code, "to", code)
		return
	}
	n.AddTradePartner(code)
	target.AddTradePartner(n.Code)
	n.Economy = min(100, n.Economy+1)
	target.Economy = min(100, target.Economy+1)
	social.SetMutualRelation(n, target, n.Relation(code)+5)
	s.emit(Event{
		Tick:        tick,
		Description: fmt.Sprintf("%s opens trade with %s (%s combined citizens)", n.Name, target.Name, humanize.Comma(int64(n.Population+target.Population))),
		Category:    "trade",
	})
}

// driftRelations eases every non-belligerent relation one point toward neutral.
func (s *Simulation) driftRelations() {
	for _, n := range s.Nations {
		if n.Annexed {
			continue
		}
		for code, v := range n.Relations {
			if n.IsEnemy(code) {
				continue
			}
			switch {
			case v > 0:
				n.Relations[code] = max(0, v-relationDrift)
			case v < 0:
				n.Relations[code] = min(0, v+relationDrift)
			}
		}
	}
}
