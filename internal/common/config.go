// Package common provides shared utilities for Patrimonio
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Patrimonio
type Config struct {
	Environment string          `toml:"environment"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Logging     LoggingConfig   `toml:"logging"`
	Valuation   ValuationConfig `toml:"valuation"`
}

// StorageConfig holds paths for the two storage areas.
type StorageConfig struct {
	Ledger AreaConfig `toml:"ledger"` // Transactions, holdings, earmarks (BadgerHold)
	Prices AreaConfig `toml:"prices"` // Price history cache (file-based JSON)
}

// AreaConfig holds path configuration for a storage area.
type AreaConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo YahooConfig `toml:"yahoo"`
	BCB   BCBConfig   `toml:"bcb"`
}

// YahooConfig holds quote provider configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// BCBConfig holds Banco Central SGS API configuration
type BCBConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *BCBConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// ValuationConfig tunes the valuation engine.
type ValuationConfig struct {
	// SymbolTimeout bounds each per-symbol price resolution.
	SymbolTimeout string `toml:"symbol_timeout"`
	// MaxConcurrentFetches bounds the price resolution fan-out.
	MaxConcurrentFetches int `toml:"max_concurrent_fetches"`
}

// GetSymbolTimeout parses and returns the per-symbol timeout duration.
func (c *ValuationConfig) GetSymbolTimeout() time.Duration {
	d, err := time.ParseDuration(c.SymbolTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Ledger: AreaConfig{Path: "data/ledger"},
			Prices: AreaConfig{Path: "data/prices"},
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "15s",
			},
			BCB: BCBConfig{
				BaseURL:   "https://api.bcb.gov.br",
				RateLimit: 3,
				Timeout:   "15s",
			},
		},
		Valuation: ValuationConfig{
			SymbolTimeout:        "10s",
			MaxConcurrentFetches: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PATRIMONIO_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("PATRIMONIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("PATRIMONIO_DATA_PATH"); path != "" {
		config.Storage.Ledger.Path = filepath.Join(path, "ledger")
		config.Storage.Prices.Path = filepath.Join(path, "prices")
	}

	if v := os.Getenv("PATRIMONIO_YAHOO_BASE_URL"); v != "" {
		config.Clients.Yahoo.BaseURL = v
	}
	if v := os.Getenv("PATRIMONIO_BCB_BASE_URL"); v != "" {
		config.Clients.BCB.BaseURL = v
	}

	if v := os.Getenv("PATRIMONIO_MAX_FETCHES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Valuation.MaxConcurrentFetches = n
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
