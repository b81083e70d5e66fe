// Package config provides configuration loading and management for the
// ontology curation manager.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathanvajda/ontology-curation-manager/export"
)

// Config represents the complete curation manager configuration
type Config struct {
	Manifest   ManifestConfig   `yaml:"manifest"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Export     ExportConfig     `yaml:"export"`
	NATS       NATSConfig       `yaml:"nats"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ManifestConfig configures where the query manifest comes from
type ManifestConfig struct {
	// Source is a local path or http(s) URL of the manifest document
	Source string `yaml:"source"`
	// Timeout is the maximum time to wait for a remote manifest fetch
	Timeout time.Duration `yaml:"timeout"`
}

// EvaluationConfig configures the evaluation run
type EvaluationConfig struct {
	// Parallelism is the number of queries evaluated concurrently (1 = sequential)
	Parallelism int `yaml:"parallelism"`
	// QueryTimeout bounds a single query evaluation (0 = no bound)
	QueryTimeout time.Duration `yaml:"query_timeout"`
	// SeedEntities reports every subject in the document, findings or not
	SeedEntities bool `yaml:"seed_entities"`
	// Workers is the batch-mode worker pool size
	Workers int `yaml:"workers"`
}

// ExportConfig configures report output
type ExportConfig struct {
	// Format is the report serialization format ("csv" or "json")
	Format string `yaml:"format"`
	// Output is the destination path (empty = stdout)
	Output string `yaml:"output"`
}

// NATSConfig configures the NATS connection for serve mode
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// Stream is the JetStream stream name for evaluation traffic
	Stream string `yaml:"stream"`
}

// MetricsConfig configures the Prometheus endpoint for serve mode
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty = disabled)
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Manifest: ManifestConfig{
			Source:  "",
			Timeout: 30 * time.Second,
		},
		Evaluation: EvaluationConfig{
			Parallelism:  1,
			QueryTimeout: time.Minute,
			SeedEntities: false,
			Workers:      4,
		},
		Export: ExportConfig{
			Format: string(export.FormatJSON),
			Output: "", // stdout
		},
		NATS: NATSConfig{
			URL:    "nats://localhost:4222",
			Stream: "CURATION",
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Evaluation.Parallelism < 1 {
		return fmt.Errorf("evaluation.parallelism must be at least 1")
	}
	if c.Evaluation.Workers < 1 {
		return fmt.Errorf("evaluation.workers must be at least 1")
	}
	if c.Evaluation.QueryTimeout < 0 {
		return fmt.Errorf("evaluation.query_timeout must not be negative")
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("export.format: %w", err)
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

	// Manifest
	if other.Manifest.Source != "" {
		c.Manifest.Source = other.Manifest.Source
	}
	if other.Manifest.Timeout != 0 {
		c.Manifest.Timeout = other.Manifest.Timeout
	}

	// Evaluation
	if other.Evaluation.Parallelism != 0 {
		c.Evaluation.Parallelism = other.Evaluation.Parallelism
	}
	if other.Evaluation.QueryTimeout != 0 {
		c.Evaluation.QueryTimeout = other.Evaluation.QueryTimeout
	}
	if other.Evaluation.SeedEntities {
		c.Evaluation.SeedEntities = true
	}
	if other.Evaluation.Workers != 0 {
		c.Evaluation.Workers = other.Evaluation.Workers
	}

	// Export
	if other.Export.Format != "" {
		c.Export.Format = other.Export.Format
	}
	if other.Export.Output != "" {
		c.Export.Output = other.Export.Output
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Stream != "" {
		c.NATS.Stream = other.NATS.Stream
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}
