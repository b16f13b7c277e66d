package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	env "github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Store backends supported by the host.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds the host process configuration. Values resolve in order:
// defaults, then the TOML config file, then ADAPTERKIT_* environment
// variables.
type Config struct {
	AdapterID   string `env:"ADAPTERKIT_ADAPTER_ID"`
	Name        string `env:"ADAPTERKIT_NAME"`
	Description string `env:"ADAPTERKIT_DESCRIPTION"`

	// StateDir holds the host's local state, including the SQLite store.
	StateDir string `env:"ADAPTERKIT_STATE_DIR"`

	// Store selects the key-value backend: "memory" or "sqlite".
	Store string `env:"ADAPTERKIT_STORE"`

	LogLevel   string `env:"ADAPTERKIT_LOG_LEVEL"`
	LogConsole bool   `env:"ADAPTERKIT_LOG_CONSOLE"`

	// OTelEndpoint enables trace export when set.
	OTelEndpoint string `env:"ADAPTERKIT_OTEL_ENDPOINT"`

	// Simulated source shape.
	TagCount       int           `env:"ADAPTERKIT_TAG_COUNT"`
	SampleInterval time.Duration `env:"ADAPTERKIT_SAMPLE_INTERVAL"`

	// Workers sizes the background task queue.
	Workers int `env:"ADAPTERKIT_WORKERS"`
}

// fileConfig mirrors Config with TOML-friendly field types. Durations are
// strings so config files can say "500ms" instead of nanosecond integers.
type fileConfig struct {
	AdapterID      string `toml:"adapter_id"`
	Name           string `toml:"name"`
	Description    string `toml:"description"`
	StateDir       string `toml:"state_dir"`
	Store          string `toml:"store"`
	LogLevel       string `toml:"log_level"`
	LogConsole     *bool  `toml:"log_console"`
	OTelEndpoint   string `toml:"otel_endpoint"`
	TagCount       int    `toml:"tag_count"`
	SampleInterval string `toml:"sample_interval"`
	Workers        int    `toml:"workers"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AdapterID:      "sim-1",
		Store:          StoreMemory,
		LogLevel:       "info",
		TagCount:       32,
		SampleInterval: time.Second,
		Workers:        2,
	}
}

// DefaultConfigPath returns the default configuration file path, or "" when
// the user home directory is not accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".adapterkit", "config.toml")
	}
	return ""
}

// LoadConfig resolves the effective configuration. A missing file at path is
// only an error when the path was set explicitly.
func LoadConfig(path string, explicit bool) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		fc, err := loadFile(path)
		switch {
		case err == nil:
			applyFile(&cfg, fc)
		case errors.Is(err, os.ErrNotExist) && !explicit:
			// Optional default path; keep defaults.
		default:
			return cfg, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

func applyFile(cfg *Config, fc fileConfig) {
	if fc.AdapterID != "" {
		cfg.AdapterID = fc.AdapterID
	}
	if fc.Name != "" {
		cfg.Name = fc.Name
	}
	if fc.Description != "" {
		cfg.Description = fc.Description
	}
	if fc.StateDir != "" {
		cfg.StateDir = fc.StateDir
	}
	if fc.Store != "" {
		cfg.Store = fc.Store
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogConsole != nil {
		cfg.LogConsole = *fc.LogConsole
	}
	if fc.OTelEndpoint != "" {
		cfg.OTelEndpoint = fc.OTelEndpoint
	}
	if fc.TagCount > 0 {
		cfg.TagCount = fc.TagCount
	}
	if fc.SampleInterval != "" {
		if d, err := time.ParseDuration(fc.SampleInterval); err == nil {
			cfg.SampleInterval = d
		}
	}
	if fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.AdapterID == "" {
		return fmt.Errorf("adapter id is required")
	}
	if c.Name == "" {
		c.Name = c.AdapterID
	}
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.StateDir == "" {
			return fmt.Errorf("state dir is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store)
	}
	if c.TagCount <= 0 {
		return fmt.Errorf("tag count must be positive")
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("sample interval must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}

// StorePath returns the SQLite database path under the state dir.
func (c *Config) StorePath() string {
	return filepath.Join(c.StateDir, "adapterkit.db")
}
