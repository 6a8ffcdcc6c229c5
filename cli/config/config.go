// Package config provides configuration management for the caseflow CLI.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the caseflow CLI configuration
type Config struct {
	// Version of the config file format
	Version string `yaml:"version"`

	// Project configuration
	Project ProjectConfig `yaml:"project"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Actor configuration
	Actor ActorConfig `yaml:"actor"`

	// Notify configuration
	Notify NotifyConfig `yaml:"notify"`

	// Telemetry configuration
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProjectConfig contains project-level settings
type ProjectConfig struct {
	// Name of the project the cases belong to
	Name string `yaml:"name"`

	// Source is the envelope source identifier for outgoing notifications
	Source string `yaml:"source"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	// Driver is the database driver (postgres, postgres-pq, memory)
	Driver string `yaml:"driver"`

	// URL is the database connection string
	URL string `yaml:"url,omitempty"`

	// Schema is the database schema to use
	Schema string `yaml:"schema"`
}

// ActorConfig contains the default identity used when submitting events
type ActorConfig struct {
	// Name is the identity string recorded on submitted events
	Name string `yaml:"name"`

	// Role is the party role: claimant or owner
	Role string `yaml:"role"`
}

// NotifyConfig contains post-commit notification settings
type NotifyConfig struct {
	// WebhookURL receives an HTTP POST per committed event when set
	WebhookURL string `yaml:"webhook_url,omitempty"`

	// KafkaBrokers are the Kafka broker addresses
	KafkaBrokers []string `yaml:"kafka_brokers,omitempty"`

	// KafkaTopic receives committed event envelopes when set
	KafkaTopic string `yaml:"kafka_topic,omitempty"`

	// SNSTopicARN receives committed event envelopes when set
	SNSTopicARN string `yaml:"sns_topic_arn,omitempty"`

	// Codec selects the envelope codec: json, msgpack or protobuf
	Codec string `yaml:"codec,omitempty"`
}

// TelemetryConfig contains metrics and tracing settings
type TelemetryConfig struct {
	// Metrics enables Prometheus metrics collection
	Metrics bool `yaml:"metrics"`

	// Tracing enables OpenTelemetry span export to stdout
	Tracing bool `yaml:"tracing"`

	// ServiceName labels metrics and spans
	ServiceName string `yaml:"service_name,omitempty"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Project: ProjectConfig{
			Name:   "my-project",
			Source: "caseflow-cli",
		},
		Database: DatabaseConfig{
			Driver: "memory",
			Schema: "caseflow",
		},
		Actor: ActorConfig{
			Name: "anonymous",
			Role: "claimant",
		},
		Notify: NotifyConfig{
			Codec: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "caseflow-cli",
		},
	}
}

// ConfigFileName is the default config file name
const ConfigFileName = "caseflow.yaml"

// Load loads configuration from the specified directory
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save saves the configuration to the specified directory
func (c *Config) Save(dir string) error {
	path := filepath.Join(dir, ConfigFileName)
	return c.SaveFile(path)
}

// SaveFile saves the configuration to a specific file path
func (c *Config) SaveFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Exists checks if a config file exists in the directory
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindConfig searches for a config file starting from dir and going up
func FindConfig(dir string) (string, *Config, error) {
	current := dir
	for {
		configPath := filepath.Join(current, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			cfg, err := LoadFile(configPath)
			if err != nil {
				return "", nil, err
			}
			return current, cfg, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached root, config not found
			return "", nil, os.ErrNotExist
		}
		current = parent
	}
}

// Validate validates the configuration
func (c *Config) Validate() []string {
	var errors []string

	if c.Project.Name == "" {
		errors = append(errors, "project.name is required")
	}

	if c.Database.Driver == "" {
		errors = append(errors, "database.driver is required")
	}

	switch c.Database.Driver {
	case "", "memory":
	case "postgres", "postgresql", "postgres-pq":
		if c.Database.URL == "" {
			errors = append(errors, "database.url is required for postgres drivers")
		}
	default:
		errors = append(errors, "database.driver must be 'postgres', 'postgres-pq' or 'memory'")
	}

	if c.Actor.Role != "claimant" && c.Actor.Role != "owner" {
		errors = append(errors, "actor.role must be 'claimant' or 'owner'")
	}

	switch c.Notify.Codec {
	case "", "json", "msgpack", "protobuf":
	default:
		errors = append(errors, "notify.codec must be 'json', 'msgpack' or 'protobuf'")
	}

	if c.Notify.KafkaTopic != "" && len(c.Notify.KafkaBrokers) == 0 {
		errors = append(errors, "notify.kafka_brokers is required when notify.kafka_topic is set")
	}

	return errors
}

// GenerateYAML generates YAML content with comments
func GenerateYAML(cfg *Config) string {
	return `# Caseflow Configuration File
# This file configures the caseflow CLI

version: "1"

# Project settings
project:
  # Name of the construction project the cases belong to
  name: "` + cfg.Project.Name + `"

  # Source identifier stamped on outgoing event envelopes
  source: "` + cfg.Project.Source + `"

# Database configuration
database:
  # Driver: postgres, postgres-pq or memory
  driver: "` + cfg.Database.Driver + `"

  # Connection URL (required for postgres)
  url: "${DATABASE_URL}"

  # Database schema (postgres only)
  schema: "` + cfg.Database.Schema + `"

# Identity recorded on submitted events
actor:
  name: "` + cfg.Actor.Name + `"
  # Role: claimant or owner
  role: "` + cfg.Actor.Role + `"

# Post-commit notifications (all optional)
notify:
  # webhook_url: "https://example.com/events"
  # kafka_brokers: ["localhost:9092"]
  # kafka_topic: "caseflow-events"
  # sns_topic_arn: "arn:aws:sns:region:account:topic"
  # Envelope codec: json, msgpack or protobuf
  codec: "` + cfg.Notify.Codec + `"

# Metrics and tracing
telemetry:
  metrics: false
  tracing: false
  service_name: "` + cfg.Telemetry.ServiceName + `"
`
}
