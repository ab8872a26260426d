package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Runtime struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	CacheBackend  string        `env:"GRAPH_CACHE_BACKEND" envDefault:"memory"`
	CacheMaxItems int           `env:"GRAPH_CACHE_MAX_ITEMS" envDefault:"1024"`
	CacheTTL      time.Duration `env:"GRAPH_CACHE_TTL" envDefault:"1h"`
	RedisURL      string        `env:"REDIS_URL"`

	ObsBuffer     int      `env:"GRAPH_OBS_BUFFER" envDefault:"4096"`
	TerminalNames []string `env:"GRAPH_TERMINAL_NAMES" envSeparator:"," envDefault:"EndProcessing,Handle Error,End Process"`

	CORSAllowOrigin string `env:"CORS_ALLOW_ORIGIN" envDefault:"*"`
}

// Load reads an optional .env file and then the process environment.
func Load(dotenvFiles ...string) (Runtime, error) {
	if len(dotenvFiles) > 0 {
		// missing files are fine; the environment alone is a valid source
		_ = godotenv.Load(dotenvFiles...)
	}

	var cfg Runtime
	if err := env.Parse(&cfg); err != nil {
		return Runtime{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Runtime{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Runtime) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if c.CacheMaxItems < 1 {
		return fmt.Errorf("GRAPH_CACHE_MAX_ITEMS must be at least 1, got %d", c.CacheMaxItems)
	}
	if c.ObsBuffer < 1 {
		return fmt.Errorf("GRAPH_OBS_BUFFER must be at least 1, got %d", c.ObsBuffer)
	}
	switch c.CacheBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when GRAPH_CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unsupported GRAPH_CACHE_BACKEND %q (must be memory or redis)", c.CacheBackend)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	return nil
}
