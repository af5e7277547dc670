// Package config loads engine settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// GCPolicy decides how often garbage collection runs.
type GCPolicy string

const (
	// GCOnce collects at most once per document lifetime, re-armed when a
	// parse leaves the graph incomplete.
	GCOnce GCPolicy = "once"
	// GCAlways collects after every completed full parse.
	GCAlways GCPolicy = "always"
)

// Backup selects the snapshot store used before collection.
type Backup struct {
	Kind string `yaml:"kind" validate:"oneof=file badger none"`
	Dir  string `yaml:"dir"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json auto"`
}

// Metrics configures the prometheus endpoint.
type Metrics struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// Config is the full engine configuration.
type Config struct {
	CollectGarbage bool          `yaml:"collect_garbage"`
	GCPolicy       GCPolicy      `yaml:"gc_policy" validate:"oneof=once always"`
	Interactive    bool          `yaml:"interactive"`
	RefreshDelay   time.Duration `yaml:"refresh_delay" validate:"gte=0"`
	Workers        int           `yaml:"workers" validate:"gte=0,lte=1024"`
	Backup         Backup        `yaml:"backup"`
	Log            Log           `yaml:"log"`
	Metrics        Metrics       `yaml:"metrics"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		CollectGarbage: true,
		GCPolicy:       GCOnce,
		RefreshDelay:   time.Second,
		Backup:         Backup{Kind: "file"},
		Log:            Log{Level: "info", Format: "auto"},
	}
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads path over the defaults, applies SELVAGE_* environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SELVAGE_COLLECT_GARBAGE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CollectGarbage = b
		}
	}
	if v := os.Getenv("SELVAGE_GC_POLICY"); v != "" {
		cfg.GCPolicy = GCPolicy(v)
	}
	if v := os.Getenv("SELVAGE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("SELVAGE_REFRESH_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RefreshDelay = d
		}
	}
	if v := os.Getenv("SELVAGE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
