package config

import (
	"os"
	"strconv"
)

// Config holds the runtime configuration read from the environment.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string
	// DatabaseURL is the DSN of the relational store.
	DatabaseURL string
	// DatabaseEnabled toggles persistence entirely. When false the service
	// runs with a noop store: computations are served, nothing is recorded.
	DatabaseEnabled bool
}

// Load reads configuration from environment variables, falling back to
// defaults suitable for the docker-compose deployment.
func Load() *Config {
	cfg := &Config{
		Addr:            ":8080",
		DatabaseURL:     "postgres://postgres:postgres@db:5432/calculator_db",
		DatabaseEnabled: true,
	}

	if v := os.Getenv("CALCULATOR_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("DATABASE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.DatabaseEnabled = enabled
		}
	}

	return cfg
}
