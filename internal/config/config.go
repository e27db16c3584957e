// Package config loads campaign settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting of the campaign host.
type Config struct {
	Seed         int64         `env:"CONQUEST_SEED" envDefault:"0"` // 0 draws a seed from entropy
	DBPath       string        `env:"CONQUEST_DB_PATH" envDefault:"data/conquest.db"`
	APIPort      int           `env:"CONQUEST_API_PORT" envDefault:"8080"`
	AdminKey     string        `env:"CONQUEST_ADMIN_KEY"`
	Nations      int           `env:"CONQUEST_NATIONS" envDefault:"12"`
	MapRadius    int           `env:"CONQUEST_MAP_RADIUS" envDefault:"18"`
	TickInterval time.Duration `env:"CONQUEST_TICK_INTERVAL" envDefault:"2s"`
	Speed        float64       `env:"CONQUEST_SPEED" envDefault:"1"`
	RandomOrgKey string        `env:"RANDOM_ORG_API_KEY"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" envSeparator:","`
	SimulateRate int           `env:"CONQUEST_SIMULATE_RATE" envDefault:"60"` // per client per hour
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.Nations < 2:
		return fmt.Errorf("CONQUEST_NATIONS must be at least 2, got %d", c.Nations)
	case c.MapRadius < 4:
		return fmt.Errorf("CONQUEST_MAP_RADIUS must be at least 4, got %d", c.MapRadius)
	case c.APIPort < 0 || c.APIPort > 65535:
		return fmt.Errorf("CONQUEST_API_PORT out of range: %d", c.APIPort)
	case c.TickInterval <= 0:
		return fmt.Errorf("CONQUEST_TICK_INTERVAL must be positive, got %s", c.TickInterval)
	case c.Speed < 0:
		return fmt.Errorf("CONQUEST_SPEED must not be negative, got %v", c.Speed)
	case c.SimulateRate < 1:
		return fmt.Errorf("CONQUEST_SIMULATE_RATE must be at least 1, got %d", c.SimulateRate)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", c.LogLevel)
}
