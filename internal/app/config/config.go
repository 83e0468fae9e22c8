package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/HenilJainIO/trapsight/internal/adapters/source"
	"github.com/HenilJainIO/trapsight/internal/classify"
	"github.com/HenilJainIO/trapsight/internal/fleet"
	"github.com/HenilJainIO/trapsight/internal/kpi"
)

type Config struct {
	Source   SourceConfig    `yaml:"source"`
	Fleet    fleet.Config    `yaml:"fleet"`
	Classify classify.Config `yaml:"classify"`
	KPI      kpi.Config      `yaml:"kpi"`
	API      APIConfig       `yaml:"api"`
	Metrics  MetricsConfig   `yaml:"metrics"`

	// StateCache is optional; an empty dir leaves warm starts off.
	StateCache StateCacheConfig `yaml:"state_cache"`
}

// StateCacheConfig points the warm-start journal at a local directory.
type StateCacheConfig struct {
	Dir string `yaml:"dir"`
}

// SourceConfig selects which telemetry-source adapter feeds the engine.
type SourceConfig struct {
	Kind string            `yaml:"kind"` // "http", "sql", or "mqtt"
	HTTP source.HTTPConfig `yaml:"http"`
	SQL  source.SQLConfig  `yaml:"sql"`
	MQTT source.MQTTConfig `yaml:"mqtt"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source.Kind == "" {
		c.Source.Kind = "http"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}

	c.Fleet.ApplyDefaults()
	c.Classify.ApplyDefaults()
	c.KPI.ApplyDefaults()
	c.Source.HTTP.ApplyDefaults()
	c.Source.SQL.ApplyDefaults()
	c.Source.MQTT.ApplyDefaults()
}

func (c *Config) validate() error {
	switch c.Source.Kind {
	case "http":
		if err := c.Source.HTTP.Validate(); err != nil {
			return fmt.Errorf("source.http: %w", err)
		}
	case "sql":
		if err := c.Source.SQL.Validate(); err != nil {
			return fmt.Errorf("source.sql: %w", err)
		}
	case "mqtt":
		if err := c.Source.MQTT.Validate(); err != nil {
			return fmt.Errorf("source.mqtt: %w", err)
		}
	default:
		return fmt.Errorf("source.kind must be http, sql, or mqtt, got %q", c.Source.Kind)
	}
	if c.API.Addr == "" {
		return fmt.Errorf("api.addr is required")
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	return nil
}
