package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// StoreConfig selects the ghost store: Postgres when DatabaseURL is set,
// otherwise a SQLite file.
type StoreConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SPIN_SQLITE_PATH" envDefault:"spindoctor.db"`
}

type APIConfig struct {
	Addr     string `env:"SPIN_API_ADDR" envDefault:":8080"`
	RNGSeed  int64  `env:"SPIN_RNG_SEED" envDefault:"0"`
	MaxTurns int    `env:"SPIN_MAX_TURNS" envDefault:"60"`
	Store    StoreConfig
}

type WorkerConfig struct {
	Retention  time.Duration `env:"SPIN_GHOST_RETENTION" envDefault:"720h"`
	PruneEvery time.Duration `env:"SPIN_PRUNE_EVERY" envDefault:"1h"`
	RunOnce    bool          `env:"SPIN_WORKER_RUN_ONCE" envDefault:"false"`
	Store      StoreConfig
}

type CLIConfig struct {
	APIBaseURL string `env:"SPIN_API_BASE_URL" envDefault:"http://localhost:8080"`
}

func parseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func LoadAPIFromEnv() (APIConfig, error) {
	var cfg APIConfig
	if err := parseEnv(&cfg); err != nil {
		return cfg, err
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Addr = port
	}
	cfg.Store.normalize()
	if cfg.MaxTurns <= 0 {
		return cfg, fmt.Errorf("SPIN_MAX_TURNS must be positive")
	}
	if err := cfg.Store.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	var cfg WorkerConfig
	if err := parseEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.Store.normalize()
	if cfg.Retention <= 0 {
		return cfg, fmt.Errorf("SPIN_GHOST_RETENTION must be positive")
	}
	if cfg.PruneEvery <= 0 {
		return cfg, fmt.Errorf("SPIN_PRUNE_EVERY must be positive")
	}
	if err := cfg.Store.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadCLIFromEnv() (CLIConfig, error) {
	var cfg CLIConfig
	if err := parseEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		return cfg, fmt.Errorf("SPIN_API_BASE_URL is required")
	}
	return cfg, nil
}

// UsePostgres reports whether the ghost store should be Postgres.
func (c StoreConfig) UsePostgres() bool {
	return c.DatabaseURL != ""
}

func (c *StoreConfig) normalize() {
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.SQLitePath = strings.TrimSpace(c.SQLitePath)
}

func (c StoreConfig) validate() error {
	if c.DatabaseURL == "" && c.SQLitePath == "" {
		return fmt.Errorf("DATABASE_URL or SPIN_SQLITE_PATH is required")
	}
	return nil
}
