// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// playground client.
//
// Supports TOML configuration with sensible defaults and environment
// variable overrides.
//
// Configuration file location:
//   - ~/.verifywise/config.toml
//   - Built-in defaults
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete playground client configuration.
type Config struct {
	// DefaultProvider and DefaultModel select the upstream used for new
	// conversations.
	DefaultProvider string `toml:"default_provider"`
	DefaultModel    string `toml:"default_model"`

	// Generation parameters
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`

	// Backend connection
	Backend BackendConfig `toml:"backend"`

	// Storage configuration
	Storage StorageConfig `toml:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// BackendConfig contains the playground backend connection settings.
type BackendConfig struct {
	// BaseURL of the playground API.
	BaseURL string `toml:"base_url"`
	// TokenEnv names the environment variable holding the bearer token.
	// The token itself is never written to the config file.
	TokenEnv string `toml:"token_env"`
}

// StorageConfig contains transcript persistence settings.
type StorageConfig struct {
	// DatabasePath is the SQLite database file. Empty disables persistence.
	DatabasePath string `toml:"database_path"`
	// Autosave persists the transcript after each completed exchange.
	Autosave bool `toml:"autosave"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Markdown enables glamour rendering of assistant turns.
	Markdown bool `toml:"markdown"`
	// FlushFPS caps how often the streaming view repaints (default 30).
	FlushFPS int `toml:"flush_fps"`
	// BatchSize is how many deltas accumulate before a forced repaint.
	BatchSize int `toml:"batch_size"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultProvider: "openai",
		DefaultModel:    "gpt-4o-mini",
		Temperature:     0.7,
		MaxTokens:       2048,
		Backend: BackendConfig{
			BaseURL:  "http://127.0.0.1:3000",
			TokenEnv: "VERIFYWISE_TOKEN",
		},
		Storage: StorageConfig{
			DatabasePath: defaultDatabasePath(),
			Autosave:     true,
		},
		UI: UIConfig{
			Markdown:  true,
			FlushFPS:  30,
			BatchSize: 15,
		},
	}
}

// Dir returns the configuration directory (~/.verifywise).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".verifywise"
	}
	return filepath.Join(home, ".verifywise")
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

func defaultDatabasePath() string {
	return filepath.Join(Dir(), "playground.db")
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config from the default path, applies environment
// overrides, and validates. A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	return LoadFromPath(Path())
}

// LoadFromPath reads the config from an explicit path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies VERIFYWISE_* environment overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("VERIFYWISE_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("VERIFYWISE_PROVIDER"); v != "" {
		c.DefaultProvider = v
	}
	if v := os.Getenv("VERIFYWISE_MODEL"); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv("VERIFYWISE_DB"); v != "" {
		c.Storage.DatabasePath = v
	}
}

// Token resolves the bearer token from the configured environment variable.
func (c *Config) Token() string {
	if c.Backend.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Backend.TokenEnv)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url must not be empty")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("backend.base_url %q is not a valid http(s) URL", c.Backend.BaseURL)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return errors.New("max_tokens must not be negative")
	}
	if c.UI.FlushFPS <= 0 || c.UI.FlushFPS > 60 {
		c.UI.FlushFPS = 30
	}
	if c.UI.BatchSize <= 0 {
		c.UI.BatchSize = 15
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the config to the default path.
func Save(cfg *Config) error {
	return SaveToPath(cfg, Path())
}

// SaveToPath writes the config as TOML to an explicit path.
func SaveToPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
