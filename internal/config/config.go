// Package config loads shelf settings from flags, SHELF_* environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SHELF_STORE_DSN.
const EnvPrefix = "SHELF"

// Config is the resolved configuration.
type Config struct {
	Store  StoreConfig
	Cache  CacheConfig
	Search SearchConfig
	Log    LogConfig

	// File is the config file that was read, empty when none was found.
	File string
}

// StoreConfig selects the authoritative recipe store.
type StoreConfig struct {
	Driver       string
	DSN          string
	AtomicCreate bool
}

// CacheConfig selects where the local shelf lives.
type CacheConfig struct {
	Backend string
	Path    string
	Slot    string
}

// SearchConfig tunes interactive search.
type SearchConfig struct {
	Debounce time.Duration
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"db":        "store.dsn",
	"driver":    "store.driver",
	"cache":     "cache.path",
	"log-level": "log.level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite3")
	v.SetDefault("store.dsn", "shelf.db")
	v.SetDefault("store.atomic_create", true)
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.path", "shelf-cache.json")
	v.SetDefault("cache.slot", "savedRecipes")
	v.SetDefault("search.debounce", "300ms")
	v.SetDefault("log.level", "info")
}

// Load resolves the configuration. path names an explicit config file,
// which must exist; when empty, ./shelf.yaml and then
// $HOME/.config/shelf/shelf.yaml are tried. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	file, err := resolveFile(path)
	if err != nil {
		return nil, err
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Store: StoreConfig{
			Driver:       strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
			DSN:          v.GetString("store.dsn"),
			AtomicCreate: v.GetBool("store.atomic_create"),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("cache.backend"))),
			Path:    v.GetString("cache.path"),
			Slot:    v.GetString("cache.slot"),
		},
		Log:  LogConfig{Level: strings.ToLower(strings.TrimSpace(v.GetString("log.level")))},
		File: file,
	}

	debounce, err := time.ParseDuration(v.GetString("search.debounce"))
	if err != nil {
		return nil, fmt.Errorf("search.debounce: %w", err)
	}
	cfg.Search.Debounce = debounce

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values and required settings.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case "sqlite3", "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Errorf("store.driver: %q is invalid (valid values: sqlite3, mysql)", c.Store.Driver))
	}
	if strings.TrimSpace(c.Store.DSN) == "" {
		errs = append(errs, errors.New("store.dsn: must not be empty"))
	}

	switch c.Cache.Backend {
	case "file", "sqlite":
		if strings.TrimSpace(c.Cache.Path) == "" {
			errs = append(errs, fmt.Errorf("cache.path: required for the %s backend", c.Cache.Backend))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("cache.backend: %q is invalid (valid values: file, sqlite, memory)", c.Cache.Backend))
	}
	if strings.TrimSpace(c.Cache.Slot) == "" {
		errs = append(errs, errors.New("cache.slot: must not be empty"))
	}

	if c.Search.Debounce < 0 {
		errs = append(errs, fmt.Errorf("search.debounce: %v must not be negative", c.Search.Debounce))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: %q is invalid (valid values: debug, info, warn, error)", c.Log.Level))
	}

	return errors.Join(errs...)
}

func resolveFile(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return path, nil
	}

	candidates := []string{"shelf.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "shelf", "shelf.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}
