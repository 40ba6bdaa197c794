package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "STORYWEAVE_CONFIG"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "storyweave"
)

// ConfigFileNames are tried in order in the working directory
var ConfigFileNames = []string{"storyweave.yaml", "storyweave.yml", "storyweave.toml"}

// dirFileNames are tried in order inside each config directory
var dirFileNames = []string{"config.yaml", "config.yml", "config.toml"}

// FindConfigPath searches for config file in priority order:
// 1. $STORYWEAVE_CONFIG (explicit path)
// 2. ./storyweave.{yaml,yml,toml} (working directory)
// 3. $XDG_CONFIG_HOME/storyweave/config.{yaml,yml,toml}
// 4. ~/.config/storyweave/config.{yaml,yml,toml}
// 5. /etc/storyweave/config.{yaml,yml,toml}
//
// Returns empty string if no config file found
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	for _, name := range ConfigFileNames {
		if fileExists(name) {
			if abs, err := filepath.Abs(name); err == nil {
				return abs
			}
			return name
		}
	}

	var dirs []string
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		dirs = append(dirs, filepath.Join(xdgHome, ConfigDirName))
	}
	if home := os.Getenv("HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", ConfigDirName))
	}
	dirs = append(dirs, filepath.Join("/etc", ConfigDirName))

	for _, dir := range dirs {
		for _, name := range dirFileNames {
			if path := filepath.Join(dir, name); fileExists(path) {
				return path
			}
		}
	}
	return ""
}

// DefaultConfigPath returns the preferred location for a new config file
func DefaultConfigPath() string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, ConfigDirName, "config.yaml")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName, "config.yaml")
	}
	return ConfigFileNames[0]
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
