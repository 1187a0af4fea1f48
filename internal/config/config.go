package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/geoquest.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// Engine defaults used by the websocket tracking bridge.
	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"30s"`
	FirstFixTimeout time.Duration `env:"FIRST_FIX_TIMEOUT" envDefault:"10s"`

	// Fallback map center when a device can't produce a fix.
	FallbackLat float64 `env:"FALLBACK_LAT" envDefault:"25.0330"`
	FallbackLng float64 `env:"FALLBACK_LNG" envDefault:"121.5654"`

	// SeedDemo loads the demo catalog into an empty database on startup.
	SeedDemo bool `env:"SEED_DEMO" envDefault:"true"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
