// Command warsim runs the autonomous conquest campaign and serves it over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/conquest/internal/api"
	"github.com/talgya/conquest/internal/config"
	"github.com/talgya/conquest/internal/engine"
	"github.com/talgya/conquest/internal/entropy"
	"github.com/talgya/conquest/internal/persistence"
	"github.com/talgya/conquest/internal/social"
	"github.com/talgya/conquest/internal/strategy"
	"github.com/talgya/conquest/internal/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Conquest: autonomous campaign simulation")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Load or Generate Campaign ─────────────────────────────────────
	var (
		worldMap      *world.Map
		nations       []*social.Nation
		wars          []*engine.War
		personalities map[social.NationCode]strategy.Personality
		startTick     uint64
		seed          = cfg.Seed
	)

	if db.HasWorldState() {
		slog.Info("found saved campaign, loading...")

		// The map is regenerated from the saved seed.
		if s, err := db.GetMeta("seed"); err == nil {
			if v, err := strconv.ParseInt(s, 10, 64); err == nil {
				seed = v
			}
		}
		if t, err := db.GetMeta("last_tick"); err == nil {
			if v, err := strconv.ParseUint(t, 10, 64); err == nil {
				startTick = v
			}
		}

		nations, personalities, err = db.LoadNations()
		if err != nil {
			slog.Error("failed to load nations", "error", err)
			os.Exit(1)
		}
		wars, err = db.LoadWars()
		if err != nil {
			slog.Error("failed to load wars", "error", err)
			os.Exit(1)
		}

		worldMap = generateMap(cfg, seed)
		for _, n := range nations {
			if hex := worldMap.Get(n.Capital); hex != nil {
				hex.Capital = true
			}
		}
		slog.Info("campaign restored",
			"nations", len(nations),
			"wars", len(wars),
			"tick", startTick,
			"sim_time", engine.SimTime(startTick),
		)
	} else {
		slog.Info("no saved campaign found, generating new world...")
		if seed == 0 {
			seed = entropy.NewClient(cfg.RandomOrgKey).Seed(ctx)
		}

		worldMap = generateMap(cfg, seed)
		capitals := world.PlaceCapitals(worldMap, cfg.Nations, seed)
		if len(capitals) < 2 {
			slog.Error("not enough land for a campaign", "capitals", len(capitals), "radius", cfg.MapRadius)
			os.Exit(1)
		}
		nations = social.SeedNations(rand.New(rand.NewSource(seed+400)), capitals)

		for _, n := range nations {
			slog.Info("nation founded",
				"code", n.Code,
				"name", n.Name,
				"capital", n.Capital,
				"population", humanize.Comma(int64(n.Population)),
				"soldiers", humanize.Comma(int64(n.Soldiers)),
				"fortified", n.Fortified,
			)
		}
	}

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.NewSimulation(worldMap, nations, seed)
	sim.Recorder = db
	if startTick > 0 || len(wars) > 0 || len(personalities) > 0 {
		sim.Restore(startTick, wars, personalities)
	}

	// Save on fresh generation only (loaded campaigns are already saved).
	if startTick == 0 {
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	eng := engine.NewEngine()
	eng.Tick = startTick
	eng.Interval = cfg.TickInterval
	eng.SetSpeed(cfg.Speed)

	eng.OnMonth = sim.TickMonth
	eng.OnYear = func(tick uint64) {
		sim.TickYear(tick)
		// Auto-save yearly.
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("yearly save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("CONQUEST_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Sim:          sim,
		Eng:          eng,
		DB:           db,
		Port:         cfg.APIPort,
		AdminKey:     cfg.AdminKey,
		CORSOrigins:  cfg.CORSOrigins,
		SimulateRate: cfg.SimulateRate,
	}
	srv := apiServer.Start()

	// ── Run ───────────────────────────────────────────────────────────
	fmt.Printf("\nConquest is live: %d nations on %d hexes (seed %d).\n",
		len(nations), worldMap.HexCount(), seed)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	if startTick > 0 {
		fmt.Printf("Resuming from tick %d (%s)\n", startTick, engine.SimTime(startTick))
	}
	fmt.Println("Starting campaign... (Ctrl+C to stop)")

	eng.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveWorldState(sim); err != nil {
		slog.Error("final save failed", "error", err)
	}

	stats := sim.CurrentStats()
	fmt.Printf("Campaign stopped at %s: %d nations standing, %s battles fought. State saved.\n",
		engine.SimTime(sim.CurrentTick()), stats.LivingNations, humanize.Comma(int64(stats.BattlesFought)))
}

func generateMap(cfg config.Config, seed int64) *world.Map {
	gen := world.DefaultGenConfig()
	gen.Radius = cfg.MapRadius
	gen.Seed = seed
	m := world.Generate(gen)

	for t, c := range world.TerrainCounts(m) {
		slog.Debug("terrain", "type", world.TerrainName(t), "count", c)
	}
	return m
}
