package engine

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/conquest/internal/entropy"
	"github.com/talgya/conquest/internal/social"
	"github.com/talgya/conquest/internal/strategy"
)

// Sub-stream labels keep each random consumer independent of the others.
const (
	streamAssess uint64 = iota + 1
	streamOdds
	streamBattle
)

// assessAll evaluates every living nation against one frozen snapshot. Each
// nation draws from its own sub-stream, so results do not depend on goroutine
// scheduling. Nothing is written until every assessment has returned.
func (s *Simulation) assessAll(snapshot *social.Snapshot, tick uint64) []strategy.State {
	states := make([]strategy.State, len(s.Nations))
	now := CampaignStart.AddDate(0, int(tick), 0)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, live := range s.Nations {
		if live.Annexed {
			continue
		}
		self, _ := snapshot.Get(live.Code)
		personality := s.personalityOf(live.Code)

		g.Go(func() error {
			rng := entropy.Derive(s.Seed, tick, streamAssess, uint64(i))
			rival := snapshot.RivalPower(&self)
			states[i] = strategy.Assess(rng, &self, personality, snapshot, rival, now)
			return nil
		})
	}
	_ = g.Wait() // assessments cannot fail
	return states
}
