// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

// Package config holds runtime configuration, populated from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration for bolaget-mcp.
//
// Everything has a sensible default; the server runs with zero configuration.
// SYSTEMBOLAGET_API_KEY is the one knob most users care about: when set, it
// bypasses the website scrape entirely.
type Config struct {
	// WebsiteURL is the public Systembolaget site the API key is scraped from.
	WebsiteURL string `env:"SYSTEMBOLAGET_WEBSITE_URL" envDefault:"https://www.systembolaget.se"`

	// APIBaseURL is the root of the e-commerce API.
	APIBaseURL string `env:"SYSTEMBOLAGET_API_BASE" envDefault:"https://api-extern.systembolaget.se/sb-api-ecommerce/v1"`

	// APIKey overrides scraping when non-empty.
	APIKey string `env:"SYSTEMBOLAGET_API_KEY"`

	// KeyTTL is how long an extracted API key is reused before re-extraction.
	KeyTTL time.Duration `env:"SYSTEMBOLAGET_KEY_TTL" envDefault:"1h"`

	// RequestTimeout is the per-request deadline for all outbound HTTP calls.
	RequestTimeout time.Duration `env:"SYSTEMBOLAGET_TIMEOUT" envDefault:"30s"`

	// CharacterLimit caps the length of any tool response.
	CharacterLimit int `env:"SYSTEMBOLAGET_CHAR_LIMIT" envDefault:"25000"`

	// DefaultPageSize is the result count used when a tool call omits limit.
	DefaultPageSize int `env:"SYSTEMBOLAGET_PAGE_SIZE" envDefault:"20"`

	// MaxPageSize is the largest limit a tool call may request.
	MaxPageSize int `env:"SYSTEMBOLAGET_MAX_PAGE_SIZE" envDefault:"100"`
}

// Load builds a Config from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.CharacterLimit <= 0 {
		return nil, fmt.Errorf("character limit must be positive, got %d", cfg.CharacterLimit)
	}
	if cfg.DefaultPageSize < 1 || cfg.DefaultPageSize > cfg.MaxPageSize {
		return nil, fmt.Errorf("default page size %d outside [1,%d]", cfg.DefaultPageSize, cfg.MaxPageSize)
	}
	return cfg, nil
}

// Default returns the built-in configuration, ignoring the environment.
// Used by tests that need deterministic values.
func Default() *Config {
	return &Config{
		WebsiteURL:      "https://www.systembolaget.se",
		APIBaseURL:      "https://api-extern.systembolaget.se/sb-api-ecommerce/v1",
		KeyTTL:          time.Hour,
		RequestTimeout:  30 * time.Second,
		CharacterLimit:  25000,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
}
