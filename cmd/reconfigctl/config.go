package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dyc2021/runtime-programmable-switch/internal/logging"
)

// Config is reconfigctl's own configuration, following the same
// DefaultConfig/LoadConfig/YAML shape as coordinator.Config (teacher).
type Config struct {
	// Logging configures the process-wide logger.
	Logging logging.Config `yaml:"logging"`
	// MetricsListen is the address watch's metrics server binds to.
	MetricsListen string `yaml:"metrics_listen"`
}

// DefaultConfig returns reconfigctl's default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging:       logging.DefaultConfig(),
		MetricsListen: "localhost:9090",
	}
}

// LoadConfig loads configuration from a YAML file, starting from
// DefaultConfig and overlaying whatever the file specifies.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the rest of the process could not
// safely run with.
func (c *Config) Validate() error {
	if c.MetricsListen == "" {
		return fmt.Errorf("metrics_listen must not be empty")
	}
	return nil
}
