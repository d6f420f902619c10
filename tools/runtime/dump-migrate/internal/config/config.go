// Package config loads dump-migrate settings from defaults, an optional
// YAML file, .env and the environment. Command-line flags are applied last
// by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/clean"
)

const (
	// ConfigVersionV1 is the only supported config file version
	ConfigVersionV1 = "v1"

	// DefaultFileName is read from the working directory when no
	// --config is given
	DefaultFileName = "dump-migrate.yml"
)

// ErrNoDatabaseURL is returned when migration has no destination
var ErrNoDatabaseURL = errors.New("no database URL: set POSTGRES_URL or DATABASE_URL, or pass --database-url")

// Config represents the entire configuration
type Config struct {
	Version          string      `yaml:"version"`
	DumpFile         string      `yaml:"dump_file"`
	OutputDir        string      `yaml:"output_dir"`
	ExcludeFiles     []string    `yaml:"exclude_files"`
	DatabaseURL      string      `yaml:"database_url"`
	KVURL            string      `yaml:"kv_url"`
	Tables           []string    `yaml:"tables"`
	MaxRowsPerTable  int         `yaml:"max_rows_per_table"`
	ProgressInterval int         `yaml:"progress_interval"`
	ErrorSampleSize  int         `yaml:"error_sample_size"`
	EnsureSchema     bool        `yaml:"ensure_schema"`
	Rules            clean.Rules `yaml:"rules"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Version:          ConfigVersionV1,
		OutputDir:        ".",
		ExcludeFiles:     []string{"schema.sql"},
		ProgressInterval: 5000,
		ErrorSampleSize:  100,
		Rules:            clean.DefaultRules(),
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path reads DefaultFileName when it exists.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFileName); err != nil {
			return config, nil
		}
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := validate(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	slog.Debug("Loaded config file", "path", path)
	return config, nil
}

func validate(config *Config) error {
	if config.Version == "" {
		slog.Warn("No version specified in config, assuming " + ConfigVersionV1)
		config.Version = ConfigVersionV1
	}

	switch config.Version {
	case ConfigVersionV1:
	default:
		return fmt.Errorf("unsupported config version: %s (supported: %s)",
			config.Version, ConfigVersionV1)
	}

	if config.MaxRowsPerTable < 0 {
		return fmt.Errorf("max_rows_per_table must not be negative")
	}
	return nil
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables. POSTGRES_URL wins over
// DATABASE_URL.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for _, name := range []string{"POSTGRES_URL", "DATABASE_URL"} {
		if v, ok := lookup(name); ok && v != "" {
			c.DatabaseURL = v
			break
		}
	}
	if v, ok := lookup("KV_URL"); ok && v != "" {
		c.KVURL = v
	}
}

// RequireDatabaseURL returns the destination URL or ErrNoDatabaseURL
func (c *Config) RequireDatabaseURL() (string, error) {
	if c.DatabaseURL == "" {
		return "", ErrNoDatabaseURL
	}
	return c.DatabaseURL, nil
}
