package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CMSTATS_DB_PATH.
const EnvPrefix = "CMSTATS"

// Config holds runtime settings for the cmstats CLI.
type Config struct {
	DBPath    string   `mapstructure:"db_path"`
	TablePath string   `mapstructure:"table_path"` // empty: embedded table
	Rounds    []string `mapstructure:"rounds"`     // empty: detect from header
	Dimension string   `mapstructure:"dimension"`
	Value     string   `mapstructure:"value"`
	Verbose   bool     `mapstructure:"verbose"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":      "db_path",
	"table":   "table_path",
	"round":   "rounds",
	"by":      "dimension",
	"value":   "value",
	"verbose": "verbose",
}

// DefaultDBPath returns ~/.cmstats/results.db, or a relative path when the
// home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cmstats", "results.db")
}

// Load resolves configuration from, in increasing precedence: defaults, the
// config file at path (optional), CMSTATS_* environment variables, and any
// flags in fs that were set explicitly.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("db_path", DefaultDBPath())
	v.SetDefault("dimension", "type")
	v.SetDefault("value", "pooled")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("cmstats")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".cmstats"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db_path is required")
	}
	return &cfg, nil
}
