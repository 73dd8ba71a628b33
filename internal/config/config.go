// Package config loads flowtrace's environment configuration.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"flowtrace/internal/logging"
	"flowtrace/internal/trace"
)

// Config holds all flowtrace configuration.
type Config struct {
	Trace trace.Settings
	Log   LogConfig
}

// LogConfig holds FLOWTRACE_LOG_LEVEL and FLOWTRACE_LOG_DEV.
type LogConfig struct {
	Level string `default:"info"`
	Dev   bool
}

// Logging converts c into a logger configuration.
func (c LogConfig) Logging() logging.Config {
	return logging.Config{Level: c.Level, Development: c.Dev}
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	var err error
	if cfg.Trace, err = trace.LoadSettings(); err != nil {
		return nil, err
	}
	if err := envconfig.Process(trace.EnvPrefix+"_LOG", &cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration: tracing off, info logging.
func Default() *Config {
	return &Config{
		Trace: trace.Settings{
			MaxSlots:  trace.DefaultMaxSlots,
			ArenaSize: trace.DefaultArenaSize,
		},
		Log: LogConfig{Level: "info"},
	}
}
