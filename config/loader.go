// Package config loads builder configuration from files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/GoCodeAlone/modscan/feeders"
	"github.com/GoCodeAlone/modscan/registry"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "MODSCAN"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config configures a builder and the modscan command.
type Config struct {
	// ConflictResolution is the registry strategy for duplicate service
	// names: error, overwrite, rename, priority or ignore.
	ConflictResolution string `yaml:"conflict_resolution" toml:"conflict_resolution" env:"CONFLICT_RESOLUTION"`

	// Manifests lists assembly manifests to scan. Paths read from a file are
	// relative to that file.
	Manifests []string `yaml:"manifests" toml:"manifests" env:"MANIFESTS"`

	LogLevel string `yaml:"log_level" toml:"log_level" env:"LOG_LEVEL"`

	// PrivateCache gives the builder its own scan cache instead of the
	// process-wide one.
	PrivateCache bool `yaml:"private_cache" toml:"private_cache" env:"PRIVATE_CACHE"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		ConflictResolution: string(registry.ConflictResolutionError),
		LogLevel:           "info",
	}
}

// Load applies, in order, the defaults, each file in paths and the
// MODSCAN_* environment, then validates the result.
func Load(paths ...string) (*Config, error) {
	cfg := Default()
	for _, path := range paths {
		f, err := feeders.ForFile(path)
		if err != nil {
			return nil, err
		}
		before := slices.Clone(cfg.Manifests)
		if err := f.Feed(cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		if !slices.Equal(before, cfg.Manifests) {
			cfg.Manifests = resolveRelative(filepath.Dir(path), cfg.Manifests)
		}
	}
	if err := feeders.NewAffixedEnvFeeder(EnvPrefix, "").Feed(cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveRelative(dir string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			out[i] = p
			continue
		}
		out[i] = filepath.Join(dir, p)
	}
	return out
}

// Validate checks the conflict strategy and log level.
func (c *Config) Validate() error {
	if _, err := registry.ParseConflictResolution(c.ConflictResolution); err != nil {
		return fmt.Errorf("%w: conflict_resolution: %w", ErrInvalidConfig, err)
	}
	if _, err := c.level(); err != nil {
		return fmt.Errorf("%w: log_level %q: %w", ErrInvalidConfig, c.LogLevel, err)
	}
	return nil
}

// RegistryConfig returns the registry configuration. Call Validate first;
// an unparsable strategy falls back to failing on conflicts.
func (c *Config) RegistryConfig() *registry.RegistryConfig {
	strategy, err := registry.ParseConflictResolution(c.ConflictResolution)
	if err != nil {
		strategy = registry.ConflictResolutionError
	}
	return &registry.RegistryConfig{ConflictResolution: strategy}
}

// SlogLevel returns the log level, info when unset or invalid.
func (c *Config) SlogLevel() slog.Level {
	level, err := c.level()
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}
