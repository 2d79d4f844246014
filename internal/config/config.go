package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/scienceol/caffeinate/internal/session"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Interval      time.Duration `yaml:"interval"`
	WatchInterval time.Duration `yaml:"watch_interval"`
	Verbose       bool          `yaml:"verbose"`
	Nudge         bool          `yaml:"nudge"`
}

// Flags carries the command-line overrides. Zero values mean "not set".
type Flags struct {
	Interval      time.Duration
	WatchInterval time.Duration
	Verbose       bool
	Nudge         bool
}

// Load resolves configuration from flags > env > config file > defaults.
func Load(flags Flags) (*Config, error) {
	cfg := &Config{
		Interval:      session.DefaultInterval,
		WatchInterval: session.DefaultWatchInterval,
	}

	// 1. Config file over defaults
	if cfgPath := configFilePath(); cfgPath != "" {
		data, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfgPath, err)
		}
	}

	// 2. Environment variables override config file
	if err := durationEnv("CAFFEINATE_INTERVAL", &cfg.Interval); err != nil {
		return nil, err
	}
	if err := durationEnv("CAFFEINATE_WATCH_INTERVAL", &cfg.WatchInterval); err != nil {
		return nil, err
	}
	if err := boolEnv("CAFFEINATE_VERBOSE", &cfg.Verbose); err != nil {
		return nil, err
	}
	if err := boolEnv("CAFFEINATE_NUDGE", &cfg.Nudge); err != nil {
		return nil, err
	}

	// 3. CLI flags override everything
	if flags.Interval != 0 {
		cfg.Interval = flags.Interval
	}
	if flags.WatchInterval != 0 {
		cfg.WatchInterval = flags.WatchInterval
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
	if flags.Nudge {
		cfg.Nudge = true
	}

	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	if cfg.WatchInterval <= 0 {
		return nil, fmt.Errorf("watch interval must be positive, got %s", cfg.WatchInterval)
	}
	return cfg, nil
}

func durationEnv(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func boolEnv(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}

// configFilePath returns CAFFEINATE_CONFIG when set, otherwise
// ~/.caffeinate/config.yaml if it exists.
func configFilePath() string {
	if p := os.Getenv("CAFFEINATE_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".caffeinate", "config.yaml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
