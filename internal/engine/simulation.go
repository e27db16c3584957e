// Simulation ties nations, strategy and combat together and runs them each month.
package engine

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/conquest/internal/combat"
	"github.com/talgya/conquest/internal/diplomacy"
	"github.com/talgya/conquest/internal/social"
	"github.com/talgya/conquest/internal/strategy"
	"github.com/talgya/conquest/internal/world"
)

const (
	maxEvents  = 1000
	maxBattles = 500
	subBuffer  = 64
)

// CampaignStart is the calendar date of tick 0. Assessment timestamps are
// derived from it so replays stay reproducible.
var CampaignStart = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Simulation holds the complete campaign state.
type Simulation struct {
	mu sync.RWMutex

	WorldMap   *world.Map
	Nations    []*social.Nation
	Strategies map[social.NationCode]strategy.State
	Wars       []*War
	Battles    []Battle // Most recent battles, oldest first
	Events     []Event  // Recent events, oldest first
	LastTick   uint64
	Seed       int64
	Stats      SimStats

	// Recorder archives each battle as it is fought. Optional.
	Recorder BattleRecorder

	index map[social.NationCode]*social.Nation

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// BattleRecorder archives battle results outside the simulation.
type BattleRecorder interface {
	SaveBattle(b Battle) error
}

// Event is a notable occurrence in the campaign.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "war", "peace", "battle", "diplomacy", "annexation", ...
}

// War is an active conflict. Exhaustion is tracked from the attacker's side
// and is discarded with the war at peace.
type War struct {
	ID                 uuid.UUID          `json:"id"`
	Attacker           social.NationCode  `json:"attacker"`
	Defender           social.NationCode  `json:"defender"`
	Goal               diplomacy.WarGoal  `json:"goal"`
	Reaction           diplomacy.Reaction `json:"reaction"`
	StartTick          uint64             `json:"start_tick"`
	Months             int                `json:"months"`
	AttackerCasualties int                `json:"attacker_casualties"`
	DefenderCasualties int                `json:"defender_casualties"`
	Exhaustion         combat.Exhaustion  `json:"exhaustion"`
	Battles            int                `json:"battles"`
}

// Battle is the record of one monthly engagement in a war.
type Battle struct {
	ID              uuid.UUID         `json:"id"`
	WarID           uuid.UUID         `json:"war_id"`
	Tick            uint64            `json:"tick"`
	Attacker        social.NationCode `json:"attacker"`
	Defender        social.NationCode `json:"defender"`
	Front           world.HexCoord    `json:"front"`
	Terrain         combat.Terrain    `json:"terrain"`
	Intensity       combat.Intensity  `json:"intensity"`
	Winner          combat.Side       `json:"winner"`
	Rounds          int               `json:"rounds"`
	AttackerLosses  int               `json:"attacker_losses"`
	DefenderLosses  int               `json:"defender_losses"`
	Decisiveness    float64           `json:"decisiveness"`
	SupplyAttrition float64           `json:"supply_attrition"`
}

// SimStats tracks aggregate campaign statistics.
type SimStats struct {
	LivingNations int `json:"living_nations"`
	ActiveWars    int `json:"active_wars"`
	TotalSoldiers int `json:"total_soldiers"`
	WarsDeclared  int `json:"wars_declared"`
	BattlesFought int `json:"battles_fought"`
	Annexations   int `json:"annexations"`
}

// NewSimulation creates a Simulation over seeded nations.
func NewSimulation(m *world.Map, nations []*social.Nation, seed int64) *Simulation {
	sim := &Simulation{
		WorldMap:   m,
		Nations:    nations,
		Strategies: make(map[social.NationCode]strategy.State),
		Seed:       seed,
		index:      make(map[social.NationCode]*social.Nation, len(nations)),
		subs:       make(map[int]chan Event),
	}
	for _, n := range nations {
		sim.index[n.Code] = n
	}
	social.RecomputePower(nations)
	sim.updateStats()
	return sim
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// TickMonth runs one full decision and combat cycle.
func (s *Simulation) TickMonth(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick
	snapshot := social.NewSnapshot(tick, s.Nations)
	states := s.assessAll(snapshot, tick)

	for i, n := range s.Nations {
		if n.Annexed {
			continue
		}
		s.Strategies[n.Code] = states[i]
		if top, ok := states[i].Top(); ok {
			s.execute(tick, i, n, states[i].Personality, top)
		}
	}

	s.fightWars(tick)
	s.driftRelations()
	social.RecomputePower(s.Nations)
	s.updateStats()

	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

// TickYear logs a yearly summary.
func (s *Simulation) TickYear(tick uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slog.Info("yearly report",
		"tick", tick,
		"time", SimTime(tick),
		"nations", s.Stats.LivingNations,
		"wars", s.Stats.ActiveWars,
		"soldiers", s.Stats.TotalSoldiers,
		"battles", s.Stats.BattlesFought,
		"annexations", s.Stats.Annexations,
	)
}

func (s *Simulation) nation(code social.NationCode) *social.Nation {
	n := s.index[code]
	if n == nil || n.Annexed {
		return nil
	}
	return n
}

func (s *Simulation) personalityOf(code social.NationCode) strategy.Personality {
	return s.Strategies[code].Personality
}

// emit records an event and fans it out to subscribers without blocking.
func (s *Simulation) emit(e Event) {
	s.Events = append(s.Events, e)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default: // slow subscriber, drop
		}
	}
}

// Subscribe returns a channel receiving every new event.
func (s *Simulation) Subscribe() (int, <-chan Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	ch := make(chan Event, subBuffer)
	s.subs[s.nextSub] = ch
	return s.nextSub, ch
}

// Unsubscribe closes and removes a subscription.
func (s *Simulation) Unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *Simulation) recordBattle(b Battle) {
	s.Battles = append(s.Battles, b)
	if len(s.Battles) > maxBattles {
		s.Battles = s.Battles[len(s.Battles)-maxBattles:]
	}
	if s.Recorder != nil {
		if err := s.Recorder.SaveBattle(b); err != nil {
			slog.Warn("battle archive failed", "battle", b.ID, "error", err)
		}
	}
}

func (s *Simulation) updateStats() {
	living, soldiers := 0, 0
	for _, n := range s.Nations {
		if n.Annexed {
			continue
		}
		living++
		soldiers += n.Soldiers
	}
	s.Stats.LivingNations = living
	s.Stats.TotalSoldiers = soldiers
	s.Stats.ActiveWars = len(s.Wars)
}

// ── Read access for the API and persistence ──────────────────────────

// NationList returns copies of every nation, annexed ones included.
func (s *Simulation) NationList() []social.Nation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]social.Nation, len(s.Nations))
	for i, n := range s.Nations {
		out[i] = n.Clone()
	}
	return out
}

// NationDetail returns a copy of one nation and its latest strategy.
func (s *Simulation) NationDetail(code social.NationCode) (social.Nation, strategy.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.index[code]
	if !ok {
		return social.Nation{}, strategy.State{}, false
	}
	return n.Clone(), s.Strategies[code], true
}

// StrategyStates returns a copy of every nation's latest strategy.
func (s *Simulation) StrategyStates() map[social.NationCode]strategy.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[social.NationCode]strategy.State, len(s.Strategies))
	for k, v := range s.Strategies {
		out[k] = v
	}
	return out
}

// ActiveWars returns copies of the wars in progress.
func (s *Simulation) ActiveWars() []War {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]War, len(s.Wars))
	for i, w := range s.Wars {
		out[i] = *w
	}
	return out
}

// RecentBattles returns up to limit battles, oldest first.
func (s *Simulation) RecentBattles(limit int) []Battle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(tail(s.Battles, limit))
}

// RecentEvents returns up to limit events, oldest first.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(tail(s.Events, limit))
}

// SaveView is a consistent copy of the state a save writes.
type SaveView struct {
	Tick       uint64
	Seed       int64
	Nations    []social.Nation
	Strategies map[social.NationCode]strategy.State
	Wars       []War
	Events     []Event // recorded after the tick passed to SaveView
}

// SaveView copies the campaign state under a single read lock, so a save
// never mixes two months.
func (s *Simulation) SaveView(eventsAfter uint64) SaveView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := SaveView{
		Tick:       s.LastTick,
		Seed:       s.Seed,
		Nations:    make([]social.Nation, len(s.Nations)),
		Strategies: make(map[social.NationCode]strategy.State, len(s.Strategies)),
		Wars:       make([]War, len(s.Wars)),
	}
	for i, n := range s.Nations {
		v.Nations[i] = n.Clone()
	}
	for k, st := range s.Strategies {
		v.Strategies[k] = st
	}
	for i, w := range s.Wars {
		v.Wars[i] = *w
	}
	for _, e := range s.Events {
		if e.Tick > eventsAfter {
			v.Events = append(v.Events, e)
		}
	}
	return v
}

// CurrentStats returns the aggregate statistics.
func (s *Simulation) CurrentStats() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats
}

// Restore reinstates wars and personalities loaded from storage.
func (s *Simulation) Restore(tick uint64, wars []*War, personalities map[social.NationCode]strategy.Personality) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTick = tick
	s.Wars = wars
	for code, p := range personalities {
		st := s.Strategies[code]
		st.Personality = p
		s.Strategies[code] = st
	}
	s.updateStats()
}

func tail[T any](xs []T, limit int) []T {
	if limit <= 0 || len(xs) <= limit {
		return xs
	}
	return xs[len(xs)-limit:]
}
