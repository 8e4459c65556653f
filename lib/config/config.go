// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable [Load] reads.
const EnvVar = "AGENTCMD_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for agentcmd.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory and socket locations.
	Paths PathsConfig `yaml:"paths"`

	// Log configures the in-process log capture buffer.
	Log LogConfig `yaml:"log"`

	// Batch configures the file-based batch queue.
	Batch BatchConfig `yaml:"batch"`

	// Plugins configures plugin loading.
	Plugins PluginsConfig `yaml:"plugins"`

	// Graph configures keyed component lookup.
	Graph GraphConfig `yaml:"graph"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths *PathsConfig `yaml:"paths,omitempty"`
	Log   *LogConfig   `yaml:"log,omitempty"`
	Batch *BatchConfig `yaml:"batch,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for agentcmd data.
	Root string `yaml:"root"`

	// Data holds the batch queue's pending/, results/, and done/
	// directories.
	Data string `yaml:"data"`

	// Prefabs is the directory served by the file-backed prefab host.
	Prefabs string `yaml:"prefabs"`

	// Socket is the Unix socket path of the command server.
	Socket string `yaml:"socket"`
}

// LogConfig configures log capture.
type LogConfig struct {
	// Capacity is the number of entries the ring buffer retains.
	// Default: 10000
	Capacity int `yaml:"capacity"`

	// Level is the minimum level captured: debug, info, warn, or error.
	// Default: info (development), warn (production)
	Level string `yaml:"level"`
}

// BatchConfig configures the batch queue.
type BatchConfig struct {
	// DefaultTimeout bounds a whole batch that declares no timeout.
	// Default: 30s
	DefaultTimeout string `yaml:"default_timeout"`

	// MaxResults is the number of finished result files retained.
	// Default: 20
	MaxResults int `yaml:"max_results"`

	// PollInterval is how often pending/ is scanned.
	// Default: 500ms
	PollInterval string `yaml:"poll_interval"`

	// ArchiveCompression compresses processed batch files in done/.
	// Values: "zstd", "lz4", "none". Default: zstd
	ArchiveCompression string `yaml:"archive_compression"`
}

// PluginsConfig configures plugin loading.
type PluginsConfig struct {
	// Disabled lists plugin names that are not loaded. The core plugin
	// cannot be disabled.
	Disabled []string `yaml:"disabled"`
}

// GraphConfig configures keyed component lookup.
type GraphConfig struct {
	// KeyProperty is the component property keyed commands match.
	// Default: ID
	KeyProperty string `yaml:"key_property"`

	// ContainerTypes are the component types that mark container
	// nodes. Default: [Panel, Dialog]
	ContainerTypes []string `yaml:"container_types"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "agentcmd")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:    defaultRoot,
			Data:    filepath.Join(defaultRoot, "data"),
			Prefabs: filepath.Join(defaultRoot, "prefabs"),
			Socket:  filepath.Join(defaultRoot, "agentcmd.sock"),
		},
		Log: LogConfig{
			Capacity: 10000,
			Level:    "info",
		},
		Batch: BatchConfig{
			DefaultTimeout:     "30s",
			MaxResults:         20,
			PollInterval:       "500ms",
			ArchiveCompression: "zstd",
		},
		Graph: GraphConfig{
			KeyProperty:    "ID",
			ContainerTypes: []string{"Panel", "Dialog"},
		},
	}
}

// Load loads configuration from the file named by AGENTCMD_CONFIG.
// There is no fallback: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your agentcmd.yaml config file, or use --config flag", EnvVar)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values; they are only expanded where a path
// field references them.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: capture warnings and errors only.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Log: &LogConfig{Level: "warn"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		overrideString(&c.Paths.Root, overrides.Paths.Root)
		overrideString(&c.Paths.Data, overrides.Paths.Data)
		overrideString(&c.Paths.Prefabs, overrides.Paths.Prefabs)
		overrideString(&c.Paths.Socket, overrides.Paths.Socket)
	}

	if overrides.Log != nil {
		if overrides.Log.Capacity != 0 {
			c.Log.Capacity = overrides.Log.Capacity
		}
		overrideString(&c.Log.Level, overrides.Log.Level)
	}

	if overrides.Batch != nil {
		overrideString(&c.Batch.DefaultTimeout, overrides.Batch.DefaultTimeout)
		if overrides.Batch.MaxResults != 0 {
			c.Batch.MaxResults = overrides.Batch.MaxResults
		}
		overrideString(&c.Batch.PollInterval, overrides.Batch.PollInterval)
		overrideString(&c.Batch.ArchiveCompression, overrides.Batch.ArchiveCompression)
	}
}

func overrideString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"AGENTCMD_ROOT": c.Paths.Root,
		"HOME":          os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["AGENTCMD_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Data = expandVars(c.Paths.Data, vars)
	c.Paths.Prefabs = expandVars(c.Paths.Prefabs, vars)
	c.Paths.Socket = expandVars(c.Paths.Socket, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var compressionValues = []string{"zstd", "lz4", "none"}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.Data == "" {
		errs = append(errs, fmt.Errorf("paths.data is required"))
	}
	if c.Paths.Socket == "" {
		errs = append(errs, fmt.Errorf("paths.socket is required"))
	}

	if c.Log.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("log.capacity must be positive, got %d", c.Log.Capacity))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.BatchTimeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.PollInterval(); err != nil {
		errs = append(errs, err)
	}
	if c.Batch.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("batch.max_results must be positive, got %d", c.Batch.MaxResults))
	}
	if !slices.Contains(compressionValues, c.Batch.ArchiveCompression) {
		errs = append(errs, fmt.Errorf("batch.archive_compression must be one of: %v", compressionValues))
	}

	if c.Graph.KeyProperty == "" {
		errs = append(errs, fmt.Errorf("graph.key_property is required"))
	}

	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// BatchTimeout parses Batch.DefaultTimeout.
func (c *Config) BatchTimeout() (time.Duration, error) {
	return positiveDuration("batch.default_timeout", c.Batch.DefaultTimeout)
}

// PollInterval parses Batch.PollInterval.
func (c *Config) PollInterval() (time.Duration, error) {
	return positiveDuration("batch.poll_interval", c.Batch.PollInterval)
}

func positiveDuration(field, value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return duration, nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Data,
		c.Paths.Prefabs,
	}
	if c.Paths.Socket != "" {
		paths = append(paths, filepath.Dir(c.Paths.Socket))
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
