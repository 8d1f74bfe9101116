// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the wildcatchd runtime settings.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"WILDCATCH_ADDR" envDefault:":8080"`
	// DBPath is the SQLite database location.
	DBPath string `env:"WILDCATCH_DB_PATH" envDefault:"wildcatch.db"`

	// Authority is the admin identity; Treasury receives revenue.
	Authority string `env:"WILDCATCH_AUTHORITY" envDefault:"authority"`
	Treasury  string `env:"WILDCATCH_TREASURY" envDefault:"treasury"`
	// VaultAccount is the custody account holding pooled assets.
	VaultAccount string `env:"WILDCATCH_VAULT_ACCOUNT" envDefault:"vault"`

	// OracleSeed keys the local development oracle. A production
	// deployment replaces the local oracle entirely.
	OracleSeed string `env:"WILDCATCH_ORACLE_SEED" envDefault:"dev-oracle-seed"`
	// OracleLatency simulates the oracle round trip.
	OracleLatency time.Duration `env:"WILDCATCH_ORACLE_LATENCY" envDefault:"2s"`

	// CrankInterval is how often the background cranker scans for
	// resolvable requests.
	CrankInterval time.Duration `env:"WILDCATCH_CRANK_INTERVAL" envDefault:"500ms"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
