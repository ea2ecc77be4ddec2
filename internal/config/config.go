// Package config loads organizer settings from a YAML file, ORGANIZER_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/organizer/internal/engine"
	"github.com/roach88/organizer/internal/store"
)

// EnvPrefix prefixes every environment variable, e.g. ORGANIZER_DB.
const EnvPrefix = "ORGANIZER"

// Config holds the organizer settings.
type Config struct {
	// DB is the path of the SQLite database.
	DB string `mapstructure:"db"`

	// Manager is the manager URI of items in DB.
	Manager string `mapstructure:"manager"`

	DefaultMaxOccurrences int `mapstructure:"default_max_occurrences"`
	BatchSize             int `mapstructure:"batch_size"`

	// WaitTimeout bounds each request. Zero waits indefinitely.
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`

	// MetricsTextfile, when set, receives the metrics in Prometheus text
	// format after every command.
	MetricsTextfile string `mapstructure:"metrics_textfile"`

	LogLevel string `mapstructure:"log_level"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":               "db",
	"manager":          "manager",
	"metrics-textfile": "metrics_textfile",
	"wait-timeout":     "wait_timeout",
	"batch-size":       "batch_size",
}

// Load reads the configuration. path names an explicit config file; when
// empty, organizer.yaml is looked up in the working directory and in
// $HOME/.config/organizer, and a missing file is not an error. Flags that
// were set on the command line override file and environment values.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("organizer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/organizer")
	}
	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "organizer.db")
	v.SetDefault("manager", store.DefaultManagerURI)
	v.SetDefault("default_max_occurrences", engine.DefaultMaxOccurrences)
	v.SetDefault("batch_size", engine.DefaultBatchSize)
	v.SetDefault("wait_timeout", "30s")
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("log_level", "info")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Manager == "" {
		return fmt.Errorf("manager uri is required")
	}
	if c.DefaultMaxOccurrences < 1 {
		return fmt.Errorf("default_max_occurrences must be >= 1, got %d", c.DefaultMaxOccurrences)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1, got %d", c.BatchSize)
	}
	if c.WaitTimeout < 0 {
		return fmt.Errorf("wait_timeout must not be negative, got %s", c.WaitTimeout)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns LogLevel as a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return lvl, nil
}
