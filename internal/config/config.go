// Package config loads sqlprobe configuration from YAML.
package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all sqlprobe configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Trace   TraceConfig   `yaml:"trace"`
	Archive ArchiveConfig `yaml:"archive"`
	Schema  SchemaConfig  `yaml:"schema"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig selects the level and handler of the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn" or "error"
	Format string `yaml:"format"` // "text" or "json"
}

// TraceConfig bounds the per-episode execution trace.
type TraceConfig struct {
	MaxFacts int `yaml:"max_facts"` // 0 means unlimited
}

// ArchiveConfig locates the SQLite episode archive.
type ArchiveConfig struct {
	Path string `yaml:"path"` // empty disables the episode archive
}

// SchemaConfig lists the entity description files loaded by default.
type SchemaConfig struct {
	Files []string `yaml:"files"` // .cue, .yaml or .yml entity descriptions
}

// MetricsConfig enables the Prometheus statement counters.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file. Unknown fields are rejected.
// Relative schema files and archive paths are resolved against the
// directory of the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the defaults used when no config file is given.
// The trace is unbounded unless trace.max_facts is set.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Trace.MaxFacts < 0 {
		return fmt.Errorf("trace.max_facts must be >= 0, got %d", c.Trace.MaxFacts)
	}
	for _, f := range c.Schema.Files {
		switch strings.ToLower(filepath.Ext(f)) {
		case ".cue", ".yaml", ".yml":
		default:
			return fmt.Errorf("schema.files: %q must be a .cue, .yaml or .yml file", f)
		}
	}
	return nil
}

// NewLogger builds the slog logger described by the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *Config) resolvePaths(dir string) {
	for i, f := range c.Schema.Files {
		if !filepath.IsAbs(f) {
			c.Schema.Files[i] = filepath.Join(dir, f)
		}
	}
	if c.Archive.Path != "" && c.Archive.Path != ":memory:" && !filepath.IsAbs(c.Archive.Path) {
		c.Archive.Path = filepath.Join(dir, c.Archive.Path)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q", s)
	}
	return level, nil
}
