// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"kitchen-cost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Pricing contains pricing configuration
	Pricing PricingConfig `json:"pricing"`

	// Storage contains price store configuration
	Storage StorageConfig `json:"storage"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// Mode selects how the current price is chosen (recent, average)
	Mode string `json:"mode"`

	// AverageDays is the trailing window for average mode
	AverageDays int `json:"average_days"`

	// Currency is the ISO currency code for all prices
	Currency string `json:"currency"`
}

// StorageConfig contains price observation store settings
type StorageConfig struct {
	// Driver selects the backend (postgres, sqlite)
	Driver string `json:"driver"`

	// DSN is the Postgres connection string
	DSN string `json:"dsn,omitempty"`

	// Path is the SQLite database file path
	Path string `json:"path,omitempty"`

	// QueryTimeoutSeconds bounds every storage fetch
	QueryTimeoutSeconds int `json:"query_timeout_seconds"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format (cli, json)
	DefaultFormat string `json:"default_format"`

	// ShowDetails shows per-line cost breakdowns
	ShowDetails bool `json:"show_details"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".kitchen-cost", "prices.db")

	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			Mode:        "recent",
			AverageDays: 30,
			Currency:    "USD",
		},
		Storage: StorageConfig{
			Driver:              "sqlite",
			Path:                dbPath,
			QueryTimeoutSeconds: 10,
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
			ShowDetails:   true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
