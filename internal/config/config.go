package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is everything the server reads from the environment. Secrets for
// /metrics and pprof are read by the middleware directly.
type Config struct {
	Port            string        `env:"PORT" envDefault:"3333"`
	LogFile         string        `env:"LOG_FILE" envDefault:"palermo-justice.log"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RatePerSecond   float64       `env:"RATE_LIMIT_PER_SECOND" envDefault:"5"`
	RateBurst       int           `env:"RATE_LIMIT_BURST" envDefault:"30"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
