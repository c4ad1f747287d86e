package sqlite

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

const defaultBusyTimeoutMS = 5000

// ErrNoPath is returned when a store is opened without a database path.
var ErrNoPath = errors.New("database path must not be empty")

// Config holds the SQLite store settings.
type Config struct {
	Path          string `mapstructure:"path"`
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms"`
	ForeignKeys   bool   `mapstructure:"foreign_keys"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Path:          "crudset.db",
		BusyTimeoutMS: defaultBusyTimeoutMS,
		ForeignKeys:   true,
	}
}

// LoadConfig reads store settings from the given file (YAML, TOML, or
// JSON, decided by extension), falling back to defaults for missing
// keys. Environment variables prefixed CRUDSET_ override file values.
func LoadConfig(file string) (Config, error) {
	v := viper.New()
	v.SetDefault("path", DefaultConfig().Path)
	v.SetDefault("busy_timeout_ms", defaultBusyTimeoutMS)
	v.SetDefault("foreign_keys", true)
	v.SetEnvPrefix("CRUDSET")
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", file, err)
	}
	return cfg, nil
}
