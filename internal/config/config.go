package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"minewatch/internal/models"
)

// Config holds runtime configuration for the monitoring server.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`
	// DataPath is the SQLite database file. Empty means an in-memory
	// store (state is lost on restart).
	DataPath string `yaml:"data_path"`
	// RefreshAmplitude bounds the per-read value perturbation: each
	// refresh draws a delta uniformly from [-amplitude, +amplitude].
	RefreshAmplitude float64 `yaml:"refresh_amplitude"`
	// JWTSecret is the HS256 key for validating bearer tokens. Empty
	// disables the JWT provider; every mutation is then rejected.
	JWTSecret string `yaml:"jwt_secret"`
	// LogLevel is the zerolog level name.
	LogLevel string `yaml:"log_level"`
	// LogPretty switches to console output for local development.
	LogPretty bool `yaml:"log_pretty"`
	// Kafka configures the optional change-event audit stream.
	Kafka KafkaConfig `yaml:"kafka"`
}

// KafkaConfig holds settings for the change-event publisher.
type KafkaConfig struct {
	// Brokers is the broker list. Empty disables event publishing.
	Brokers []string `yaml:"brokers"`
	// Topic is the destination topic for change events.
	Topic string `yaml:"topic"`
	// QueueSize is the in-process event buffer capacity.
	QueueSize int `yaml:"queue_size"`
}

// Default returns a sensible default config for local dev.
func Default() *Config {
	return &Config{
		ListenAddr:       ":8080",
		DataPath:         "",
		RefreshAmplitude: 1.0,
		LogLevel:         "info",
		Kafka: KafkaConfig{
			Topic:     "minewatch.changes",
			QueueSize: 256,
		},
	}
}

// Load builds the config from defaults, an optional YAML file, and
// environment overrides, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		contents, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides fields from MINEWATCH_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("MINEWATCH_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}

	if v := os.Getenv("MINEWATCH_DATA_PATH"); v != "" {
		c.DataPath = v
	}

	if v := os.Getenv("MINEWATCH_REFRESH_AMPLITUDE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RefreshAmplitude = f
		}
	}

	if v := os.Getenv("MINEWATCH_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}

	if v := os.Getenv("MINEWATCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	if v := os.Getenv("MINEWATCH_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}

	if v := os.Getenv("MINEWATCH_KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
}

// Validate checks field values that would otherwise fail deep inside
// a component at request time.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen address cannot be empty", models.ErrValidation)
	}

	if c.RefreshAmplitude <= 0 {
		return fmt.Errorf("%w: refresh amplitude must be positive", models.ErrValidation)
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("%w: kafka topic required when brokers are set", models.ErrValidation)
	}

	if c.Kafka.QueueSize <= 0 {
		c.Kafka.QueueSize = 256
	}

	return nil
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
