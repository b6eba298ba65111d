// Package config loads application settings from the environment.
// File: config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the web client.
type Config struct {
	Port           string `envconfig:"PORT" default:"3000"`
	Env            string `envconfig:"ENV" default:"development"`
	APIURL         string `envconfig:"API_URL" default:"http://localhost:8080"`
	ApplicationURL string `envconfig:"APPLICATION_URL" default:"http://localhost:3000"`

	SessionSecret string `envconfig:"SESSION_SECRET" default:"change-me-in-production"`
	SessionSecure bool   `envconfig:"SESSION_SECURE" default:"false"`

	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
	Timezone   string        `envconfig:"TIMEZONE" default:"Local"`

	TemplatesDir string `envconfig:"TEMPLATES_DIR" default:"templates"`
	LogDir       string `envconfig:"LOG_DIR" default:"logs"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CourtCacheTTL time.Duration `envconfig:"COURT_CACHE_TTL" default:"10m"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"10"`

	CloudWatchEnabled bool `envconfig:"CLOUDWATCH_ENABLED" default:"false"`
	XRayEnabled       bool `envconfig:"XRAY_ENABLED" default:"false"`

	// ViewTTL bounds how long an idle bookings page keeps its local state.
	ViewTTL time.Duration `envconfig:"VIEW_TTL" default:"30m"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves the configured timezone used for "today" and for
// deciding whether a booking is in the past.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Address returns the listen address for the HTTP server.
func (c *Config) Address() string {
	return ":" + c.Port
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
