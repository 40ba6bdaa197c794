// Package config loads storyweave settings from a YAML or TOML file.
//
// Config file locations (priority order):
//  1. $STORYWEAVE_CONFIG
//  2. ./storyweave.yaml, ./storyweave.yml or ./storyweave.toml
//  3. $XDG_CONFIG_HOME/storyweave/config.{yaml,yml,toml}
//  4. ~/.config/storyweave/config.{yaml,yml,toml}
//  5. /etc/storyweave/config.{yaml,yml,toml}
//
// Missing values fall back to defaults; command-line flags override both.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr            = ":3000"
	DefaultDatabasePath    = "./storyweave.db"
	DefaultLogLevel        = "info"
	DefaultDebounce        = 500 * time.Millisecond
	DefaultShutdownTimeout = 10 * time.Second
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, path, fmt.Errorf("parse config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// Save writes config to the specified path in the format its extension names
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(c); err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(DefaultDebounce)
	}
}

// Validate rejects values no component can run with
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("invalid watch debounce %s", c.Watch.Debounce.Duration())
	}
	return nil
}

// Summary returns a one-line human-readable config summary
func (c *Config) Summary() string {
	return fmt.Sprintf("addr=%s db=%s log=%s debounce=%s",
		c.Server.Addr, c.Database.Path, c.Log.Level, c.Watch.Debounce.Duration())
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
