// Package config provides configuration loading and management for Wikidated.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Wikidated configuration
type Config struct {
	Dumps   DumpsConfig   `yaml:"dumps"`
	Data    DataConfig    `yaml:"data"`
	Build   BuildConfig   `yaml:"build"`
	Metrics MetricsConfig `yaml:"metrics"`
	NATS    NATSConfig    `yaml:"nats"`
}

// DumpsConfig configures where dump files are discovered
type DumpsConfig struct {
	// Dir is the directory holding mirrored pages-meta-history dump files
	Dir string `yaml:"dir"`
	// Glob overrides the default dump file pattern (relative to Dir)
	Glob string `yaml:"glob"`
}

// DataConfig configures where datasets are built
type DataConfig struct {
	// Dir is the directory holding the dataset directories
	Dir string `yaml:"dir"`
	// Version pins the dataset to one dump version, formatted YYYYMMDD
	// (empty = derive from the discovered dump files)
	Version string `yaml:"version"`
}

// BuildConfig configures build parallelism and failure policy
type BuildConfig struct {
	// Workers is the number of parallel partition builders
	Workers int `yaml:"workers"`
	// ContinueOnError finishes remaining partitions after a failure
	ContinueOnError bool `yaml:"continue_on_error"`
	// GlobalStream also builds the merged global stream
	GlobalStream bool `yaml:"global_stream"`
}

// MetricsConfig configures the Prometheus listener
type MetricsConfig struct {
	// Addr is the /metrics listen address (empty = metrics disabled)
	Addr string `yaml:"addr"`
}

// NATSConfig configures the downstream publisher
type NATSConfig struct {
	// URL is the NATS server URL (empty = publishing disabled)
	URL string `yaml:"url"`
	// SubjectPrefix is the subject root for published revisions
	SubjectPrefix string `yaml:"subject_prefix"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Dumps: DumpsConfig{
			Dir:  "dumps",
			Glob: "", // Use the built-in dump pattern
		},
		Data: DataConfig{
			Dir:     "data",
			Version: "", // Derive from the dump files
		},
		Build: BuildConfig{
			Workers:         4,
			ContinueOnError: false,
			GlobalStream:    true,
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
		NATS: NATSConfig{
			URL:           "",
			SubjectPrefix: "wikidated.revisions",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Dumps.Dir == "" {
		return fmt.Errorf("dumps.dir is required")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if c.Build.Workers < 0 {
		return fmt.Errorf("build.workers must not be negative")
	}
	if c.Data.Version != "" {
		if _, err := time.Parse("20060102", c.Data.Version); err != nil {
			return fmt.Errorf("data.version must be formatted YYYYMMDD: %w", err)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Dumps
	if other.Dumps.Dir != "" {
		c.Dumps.Dir = other.Dumps.Dir
	}
	if other.Dumps.Glob != "" {
		c.Dumps.Glob = other.Dumps.Glob
	}

	// Data
	if other.Data.Dir != "" {
		c.Data.Dir = other.Data.Dir
	}
	if other.Data.Version != "" {
		c.Data.Version = other.Data.Version
	}

	// Build
	if other.Build.Workers != 0 {
		c.Build.Workers = other.Build.Workers
	}
	if other.Build.ContinueOnError {
		c.Build.ContinueOnError = true
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.SubjectPrefix != "" {
		c.NATS.SubjectPrefix = other.NATS.SubjectPrefix
	}
}
