// Package config loads collabedit configuration from a YAML file with
// environment-variable overrides, and watches the file for changes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all collabedit configuration.
type Config struct {
	// Theme selects the TUI color scheme ("light" or "dark").
	Theme string `yaml:"theme"`

	// DemoMode forces canned AI responses even when a credential is
	// configured.
	DemoMode bool `yaml:"demo_mode"`

	Gemini  GeminiConfig  `yaml:"gemini"`
	Search  SearchConfig  `yaml:"search"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// GeminiConfig configures the completion backend.
type GeminiConfig struct {
	// APIKey is the build-time/env default; a key stored in the
	// settings database takes precedence over it.
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// SearchConfig configures the search backend. URLTemplate must contain
// a {query} placeholder; when empty, search runs in demo mode.
type SearchConfig struct {
	URLTemplate string `yaml:"url_template"`
	Timeout     string `yaml:"timeout"`
}

// StorageConfig locates the local settings database.
type StorageConfig struct {
	SettingsPath string `yaml:"settings_path"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// DefaultPath returns the default config file location,
// ~/.collabedit/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".collabedit", "config.yaml")
	}
	return filepath.Join(home, ".collabedit", "config.yaml")
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Theme: "dark",
		Gemini: GeminiConfig{
			Model:   "gemini-1.5-flash",
			Timeout: "60s",
		},
		Storage: StorageConfig{
			SettingsPath: filepath.Join(home, ".collabedit", "settings.db"),
		},
	}
}

// Load reads the config file at path, layering it over the defaults
// and applying environment overrides last. A missing file is not an
// error; the defaults plus environment win.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fall through to env overrides.
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides layers process environment values over the file.
// GEMINI_API_KEY matches the conventional variable name for the
// backend; the rest are namespaced under COLLABEDIT_.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("COLLABEDIT_SEARCH_URL"); v != "" {
		c.Search.URLTemplate = v
	}
	if v := os.Getenv("COLLABEDIT_DEMO_MODE"); v != "" {
		if demo, err := strconv.ParseBool(v); err == nil {
			c.DemoMode = demo
		}
	}
	if v := os.Getenv("COLLABEDIT_THEME"); v != "" {
		c.Theme = v
	}
}

// GeminiTimeout parses the configured completion timeout, falling back
// to zero (let the gateway pick its default) on bad input.
func (c *Config) GeminiTimeout() time.Duration {
	d, err := time.ParseDuration(c.Gemini.Timeout)
	if err != nil {
		return 0
	}
	return d
}
