package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the engine's configuration. Every field has a usable default:
// an absent config file yields a working anonymous session.
type Config struct {
	UserID       string  `koanf:"user_id"`       // empty means anonymous: progress is not persisted
	DatabasePath string  `koanf:"database_path"` // empty means xdg data dir
	LogLevel     string  `koanf:"log_level"`
	Volume       float64 `koanf:"volume"` // 0.0 to 1.0
	Muted        bool    `koanf:"muted"`
	Shuffle      bool    `koanf:"shuffle"`

	Progress ProgressConfig `koanf:"progress"`
	Sim      SimConfig      `koanf:"sim"`
}

// ProgressConfig tunes the durable checkpointing.
type ProgressConfig struct {
	IntervalSeconds int `koanf:"interval_seconds"` // default: 10
}

// SimConfig configures the harness's simulated media.
type SimConfig struct {
	ItemSeconds int `koanf:"item_seconds"` // simulated media length (default: 30)
}

// Load reads configuration from the usual locations, last file wins.
func Load() (*Config, error) {
	k := koanf.New(".")

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Volume: 1.0,
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.DatabasePath != "" {
		cfg.DatabasePath = expandPath(cfg.DatabasePath)
	}
	if cfg.Volume < 0 || cfg.Volume > 1 {
		cfg.Volume = 1.0
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/rewatch/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "rewatch", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// SyncInterval returns the progress checkpoint cadence with the default
// applied.
func (c *Config) SyncInterval() time.Duration {
	if c.Progress.IntervalSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Progress.IntervalSeconds) * time.Second
}

// SimItemLength returns the simulated media length with the default applied.
func (c *Config) SimItemLength() time.Duration {
	if c.Sim.ItemSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Sim.ItemSeconds) * time.Second
}
