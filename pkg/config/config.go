// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all process settings. The API credential and the three
// upstream base URLs are required; Redis settings are optional. When
// REDIS_ADDR is empty the proxy runs without caching.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Upstream
	APIToken          string        `env:"API_TOKEN,required,notEmpty"`
	FootballV2BaseURL string        `env:"FOOTBALL_V2_BASE_URL,required,notEmpty"`
	FootballV3BaseURL string        `env:"FOOTBALL_V3_BASE_URL,required,notEmpty"`
	CricketV2BaseURL  string        `env:"CRICKET_V2_BASE_URL,required,notEmpty"`
	UpstreamTimeout   time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"0"` // 0 = no timeout

	// Cache
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"60s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// CacheEnabled reports whether Redis settings were supplied.
func (c Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}
