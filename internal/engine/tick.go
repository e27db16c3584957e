// Package engine provides the month-based campaign loop.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// One tick is one campaign month.
const (
	MonthsPerYear = 12
)

// Engine drives the campaign forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Wall-clock time per month at speed 1

	mu      sync.Mutex
	speed   float64 // Multiplier: 1.0 = normal, 0 = paused
	running bool

	// Callbacks, populated during setup.
	OnMonth func(tick uint64) // Every tick
	OnYear  func(tick uint64) // Every 12 ticks
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Interval: time.Second,
		speed:    1.0,
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Zero pauses the campaign.
func (e *Engine) SetSpeed(v float64) {
	e.mu.Lock()
	e.speed = max(0, v)
	e.mu.Unlock()
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run advances the campaign until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	slog.Info("campaign engine started", "tick", e.Tick, "speed", e.Speed())

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		slog.Info("campaign engine stopped", "tick", e.Tick)
	}()

	for {
		speed := e.Speed()
		wait := 100 * time.Millisecond // paused: check again shortly
		if speed > 0 {
			start := time.Now()
			e.Step()
			wait = time.Duration(float64(e.Interval)/speed) - time.Since(start)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(max(0, wait)):
		}
	}
}

// Step advances the campaign by one month.
func (e *Engine) Step() {
	e.Tick++

	if e.OnMonth != nil {
		e.OnMonth(e.Tick)
	}

	// Yearly: summaries and archival.
	if e.Tick%MonthsPerYear == 0 && e.OnYear != nil {
		e.OnYear(e.Tick)
	}
}

var monthNames = [MonthsPerYear]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// SimTime returns a human-readable campaign date for a tick. Tick 0 is the
// eve of the campaign.
func SimTime(tick uint64) string {
	if tick == 0 {
		return "Eve of war"
	}
	month := (tick - 1) % MonthsPerYear
	year := (tick-1)/MonthsPerYear + 1
	return fmt.Sprintf("%s, Year %d", monthNames[month], year)
}
