// Package paths resolves the crudset configuration file and database
// locations across platforms.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigFileName is the store configuration file looked up inside the
// configuration directory.
const ConfigFileName = "config.yaml"

// Environment variable overrides.
const (
	EnvConfigFile = "CRUDSET_CONFIG_FILE"
	EnvDatabase   = "CRUDSET_DATABASE"
)

// DefaultDatabaseName is the CWD-relative database file used when
// nothing else names one.
const DefaultDatabaseName = "crudset.db"

// DefaultConfigDir returns the platform default configuration
// directory.
//
// Linux:   $XDG_CONFIG_HOME/crudset (fallback ~/.config/crudset)
// macOS:   ~/Library/Application Support/crudset
// Windows: %APPDATA%/crudset
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "crudset"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "crudset"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "crudset"), nil
}

// ResolveConfigFile returns the configuration file to load, following
// the precedence chain: flag > CRUDSET_CONFIG_FILE env > the platform
// config directory's config.yaml when it exists. An empty result means
// no file: callers fall back to built-in defaults.
func ResolveConfigFile(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigFile); env != "" {
		return filepath.Abs(env)
	}
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	candidate := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(candidate); err != nil {
		return "", nil
	}
	return candidate, nil
}

// ResolveDatabase returns the database path: flag > configured value >
// CRUDSET_DATABASE env > CWD-relative default.
func ResolveDatabase(flag, configured string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configured != "" {
		return filepath.Abs(configured)
	}
	if env := os.Getenv(EnvDatabase); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDatabaseName), nil
}
