// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls the server and its adapters. Every field has a default
// suitable for local development; production deployments override via env.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"MOOT_ADDR" envDefault:":8080"`
	// MetricsAddr serves /metrics; empty disables the metrics listener.
	MetricsAddr string `env:"MOOT_METRICS_ADDR" envDefault:":9090"`

	// ScenarioDir points at the YAML scenario catalog.
	ScenarioDir string `env:"MOOT_SCENARIO_DIR" envDefault:"examples/scenarios"`

	// Store selects session persistence: "memory" or "redis".
	Store      string        `env:"MOOT_STORE" envDefault:"memory"`
	RedisAddr  string        `env:"MOOT_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass  string        `env:"MOOT_REDIS_PASSWORD"`
	RedisDB    int           `env:"MOOT_REDIS_DB" envDefault:"0"`
	SessionTTL time.Duration `env:"MOOT_SESSION_TTL" envDefault:"24h"`

	// Evaluator selects decision scoring: "anthropic" or "scripted".
	// "scripted" grades deterministically offline and exists for local
	// development and CI.
	Evaluator        string        `env:"MOOT_EVALUATOR" envDefault:"anthropic"`
	AnthropicAPIKey  string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel   string        `env:"MOOT_ANTHROPIC_MODEL"`
	EvaluatorTimeout time.Duration `env:"MOOT_EVALUATOR_TIMEOUT" envDefault:"15s"`
	EvaluatorRetries int           `env:"MOOT_EVALUATOR_RETRIES" envDefault:"1"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"MOOT_LOG_LEVEL" envDefault:"info"`
	// LogJSON switches the logger to JSON output for log aggregation.
	LogJSON bool `env:"MOOT_LOG_JSON" envDefault:"false"`
}

// FromEnv parses configuration out of the process environment and rejects
// unusable combinations.
func FromEnv() (Config, error) {
	cfg, err := ParseEnv()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv parses configuration without validating it. Maintenance commands
// that never touch the evaluator use this to avoid demanding its credentials.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate rejects unusable combinations before any adapter is built.
func (c Config) Validate() error {
	switch c.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown store %q (want memory or redis)", c.Store)
	}
	switch c.Evaluator {
	case "anthropic", "scripted":
	default:
		return fmt.Errorf("unknown evaluator %q (want anthropic or scripted)", c.Evaluator)
	}
	if c.Evaluator == "anthropic" && c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required with the anthropic evaluator")
	}
	if c.EvaluatorRetries < 0 {
		return fmt.Errorf("negative evaluator retries")
	}
	return nil
}
