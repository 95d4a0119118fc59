package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	// sqlite|postgres. DatabaseURL is a file path for sqlite and a
	// connection URL for postgres.
	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabaseURL    string `envconfig:"DATABASE_URL" default:"./data/contribot.db"`

	ImageDir       string        `envconfig:"IMAGE_DIR" default:"./images"`
	ImageRetention time.Duration `envconfig:"IMAGE_RETENTION" default:"24h"`
	SweepInterval  time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`

	// "Today" is always computed in this timezone, never the host's.
	Timezone       string        `envconfig:"TIMEZONE" default:"Asia/Bangkok"`
	PollInterval   time.Duration `envconfig:"POLL_INTERVAL" default:"3h"`
	EscalationHour int           `envconfig:"ESCALATION_HOUR" default:"18"`

	PruneInterval   time.Duration `envconfig:"PRUNE_INTERVAL" default:"72h"`
	PruneFraction   float64       `envconfig:"PRUNE_FRACTION" default:"0.15"`
	SeedPerCategory int           `envconfig:"SEED_PER_CATEGORY" default:"2"`

	GeneratorURL     string        `envconfig:"GENERATOR_URL"`
	GeneratorToken   string        `envconfig:"GENERATOR_TOKEN"`
	GeneratorModel   string        `envconfig:"GENERATOR_MODEL" default:"llama-3.1-8b-instruct"`
	GeneratorTimeout time.Duration `envconfig:"GENERATOR_TIMEOUT" default:"15s"`

	PollingTimeout int    `envconfig:"POLLING_TIMEOUT" default:"60"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads .env (when present) and the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %v", err)
	}

	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		return nil, fmt.Errorf("invalid DATABASE_DRIVER %q: must be sqlite or postgres", cfg.DatabaseDriver)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %v", cfg.Timezone, err)
	}
	if cfg.EscalationHour < 0 || cfg.EscalationHour > 23 {
		return nil, fmt.Errorf("invalid ESCALATION_HOUR %d: must be 0-23", cfg.EscalationHour)
	}
	if cfg.PruneFraction < 0 || cfg.PruneFraction >= 1 {
		return nil, fmt.Errorf("invalid PRUNE_FRACTION %v: must be in [0, 1)", cfg.PruneFraction)
	}

	return &cfg, nil
}

// Location returns the configured timezone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
