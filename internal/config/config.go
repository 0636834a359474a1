// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

// Package config provides layered configuration loading for ShowPulse.
//
// Configuration is loaded via Koanf v2 with layered sources
// (highest priority wins):
//   - Environment variables
//   - Config file (config.yaml)
//   - Built-in defaults
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the ShowPulse server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Push     PushConfig     `koanf:"push"`
	Sync     SyncConfig     `koanf:"sync"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gt=0,lte=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file path.
	Path string `koanf:"path" validate:"required"`

	// MaxMemory caps DuckDB memory usage (e.g. "512MB").
	MaxMemory string `koanf:"max_memory"`

	// Threads sets DuckDB worker threads. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// CatalogConfig holds upstream event catalog API settings.
type CatalogConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	APIKey  string `koanf:"api_key" validate:"required"`

	// MinRequestInterval is the minimum spacing between consecutive
	// upstream requests across the whole process.
	MinRequestInterval time.Duration `koanf:"min_request_interval"`

	// RequestTimeout bounds each individual upstream HTTP call.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// MaxRetries is the retry ceiling for rate-limited or transient
	// failures before the error surfaces to the caller.
	MaxRetries int `koanf:"max_retries"`

	// RetryBaseDelay is the initial backoff delay, doubled per attempt.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// PageSize is the number of events requested per artist query.
	PageSize int `koanf:"page_size" validate:"gt=0,lte=200"`
}

// PushConfig holds push delivery provider settings.
type PushConfig struct {
	// Endpoint is the push provider send URL (Expo-compatible).
	Endpoint string `koanf:"endpoint" validate:"required,url"`

	// AccessToken is the optional provider access token.
	AccessToken string `koanf:"access_token"`

	// RequestTimeout bounds each individual send call.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// SyncConfig holds the periodic sync job settings.
type SyncConfig struct {
	// Enabled controls the internal interval scheduler. When false the
	// job only runs via the HTTP trigger endpoint.
	Enabled bool `koanf:"enabled"`

	// Interval is the spacing between scheduled runs.
	Interval time.Duration `koanf:"interval"`

	// RunOnStartup triggers one run immediately after boot.
	RunOnStartup bool `koanf:"run_on_startup"`

	// RunTimeout bounds a whole sync pass.
	RunTimeout time.Duration `koanf:"run_timeout"`
}

// APIConfig holds trigger surface settings.
type APIConfig struct {
	// TriggerToken, when set, is required as a bearer token on the
	// manual sync trigger endpoint.
	TriggerToken string `koanf:"trigger_token"`

	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8787,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/showpulse.duckdb",
			MaxMemory: "512MB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Catalog: CatalogConfig{
			BaseURL:            "https://app.ticketmaster.com",
			APIKey:             "",
			MinRequestInterval: 200 * time.Millisecond,
			RequestTimeout:     15 * time.Second,
			MaxRetries:         4,
			RetryBaseDelay:     500 * time.Millisecond,
			PageSize:           50,
		},
		Push: PushConfig{
			Endpoint:       "https://exp.host/--/api/v2/push/send",
			AccessToken:    "",
			RequestTimeout: 15 * time.Second,
		},
		Sync: SyncConfig{
			Enabled:      true,
			Interval:     time.Hour,
			RunOnStartup: false,
			RunTimeout:   10 * time.Minute,
		},
		API: APIConfig{
			TriggerToken:    "",
			RateLimitReqs:   10,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for missing or invalid values.
// A validation failure is fatal to the whole run: no partial work is
// attempted with incomplete credentials.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Catalog.MinRequestInterval < 0 {
		return fmt.Errorf("catalog.min_request_interval must not be negative")
	}
	if c.Catalog.MaxRetries < 0 {
		return fmt.Errorf("catalog.max_retries must not be negative")
	}
	if c.Sync.Enabled && c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive when the scheduler is enabled")
	}
	if c.Sync.RunTimeout <= 0 {
		return fmt.Errorf("sync.run_timeout must be positive")
	}
	return nil
}
