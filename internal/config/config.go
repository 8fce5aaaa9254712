// Package config loads the application configuration. Everything has a
// default: a missing config file yields a fully working standalone setup
// with local storage only.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"studio/internal/sharedstore"
)

// ScopeConfig binds one shared symbol scope to its backing store.
type ScopeConfig struct {
	// ID is the team or organization record that owns the scope's symbols.
	ID    string              `yaml:"id"`
	Store *sharedstore.Config `yaml:"store"`
}

// Config is the full application configuration.
type Config struct {
	// DataDir holds the local database, snapshots, and custom assets.
	DataDir string `yaml:"data_dir"`

	// AutosaveInterval is a Go duration string; empty disables autosave.
	AutosaveInterval string `yaml:"autosave_interval"`

	// FrameReadyTimeout bounds the wait for the rendering frame during a
	// page switch.
	FrameReadyTimeout string `yaml:"frame_ready_timeout"`

	// AssetDirs are extra directories of custom stylesheets and scripts
	// injected into the frame and hot-reloaded on change.
	AssetDirs []string `yaml:"asset_dirs"`

	Team ScopeConfig `yaml:"team"`
	Org  ScopeConfig `yaml:"org"`

	Debug bool `yaml:"debug"`
}

const (
	defaultAutosaveInterval  = 30 * time.Second
	defaultFrameReadyTimeout = 5 * time.Second
)

// Default returns the standalone configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(homeDir, ".local", "share", "studio"),
	}
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist. A present-but-broken file is an error, not a silent
// default: a team pointing at the wrong shared store should fail loudly.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = Default().DataDir
	}
	return cfg, nil
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "studio", "config.yaml")
}

// AutosaveIntervalDuration parses the autosave interval. Zero means disabled.
func (c *Config) AutosaveIntervalDuration() (time.Duration, error) {
	if c.AutosaveInterval == "" {
		return defaultAutosaveInterval, nil
	}
	if c.AutosaveInterval == "off" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.AutosaveInterval)
	if err != nil {
		return 0, fmt.Errorf("autosave_interval: %w", err)
	}
	return d, nil
}

// FrameReadyTimeoutDuration parses the frame-ready timeout.
func (c *Config) FrameReadyTimeoutDuration() (time.Duration, error) {
	if c.FrameReadyTimeout == "" {
		return defaultFrameReadyTimeout, nil
	}
	d, err := time.ParseDuration(c.FrameReadyTimeout)
	if err != nil {
		return 0, fmt.Errorf("frame_ready_timeout: %w", err)
	}
	return d, nil
}

// DatabasePath returns the local SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "studio.db")
}
