// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Default heavy-game allow-list used by the "heavy" statistic.
var defaultHeavyGames = []string{ //nolint:gochecknoglobals // immutable default
	"Scythe",
	"Twilight Imperium",
	"Eclipse",
	"Court of the Dead",
	"Twilight Struggle",
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath points at the sqlite database. Empty keeps everything in memory.
	DBPath string `koanf:"db_path"`

	// RoundQueueSize bounds the in-memory round ingest queue.
	RoundQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingest workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// TrophyCacheTTLSeconds is how long a computed trophy board stays fresh.
	TrophyCacheTTLSeconds int `koanf:"trophy_cache_ttl_seconds"`

	// HeavyGames lists the game names counted by the heavy statistic.
	HeavyGames []string `koanf:"heavy_games"`

	// ScoreTable maps a bracket placement ("1".."4") to points.
	ScoreTable map[string]int `koanf:"score_table"`

	// MaxStatisticEntries caps the entries returned by the statistic endpoint.
	MaxStatisticEntries int `koanf:"max_statistic_entries"`
}

// New creates a Config populated with defaults. The context is reserved for
// future use.
func New(_ context.Context) *Config {
	heavy := make([]string, len(defaultHeavyGames))
	copy(heavy, defaultHeavyGames)

	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DBPath:                "",
		RoundQueueSize:        10_000,
		WorkerCount:           runtime.NumCPU(),
		DedupeSize:            100_000,
		TrophyCacheTTLSeconds: 86_400,
		HeavyGames:            heavy,
		ScoreTable: map[string]int{
			"1": 9,
			"2": 7,
			"3": 5,
			"4": 3,
		},
		MaxStatisticEntries: 100,
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.RoundQueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.RoundQueueSize)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if c.DedupeSize <= 0 {
		return fmt.Errorf("%w: dedupe_size must be positive, got %d", ErrInvalidConfig, c.DedupeSize)
	}
	if c.TrophyCacheTTLSeconds < 0 {
		return fmt.Errorf("%w: trophy_cache_ttl_seconds must not be negative", ErrInvalidConfig)
	}
	if c.MaxStatisticEntries <= 0 {
		return fmt.Errorf("%w: max_statistic_entries must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
