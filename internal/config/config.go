// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for the synthroute
// server. It handles loading and parsing YAML configuration files and
// provides structured access to application settings: server binding,
// backend endpoints, worker-pool sizing, queue capacity, and
// circuit-breaker thresholds.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "15s" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// BackendConfig describes one configured provider endpoint.
type BackendConfig struct {
	// Name is the backend name referenced by routing roles.
	Name string `yaml:"name"`

	// BaseURL is the provider base URL (OpenAI-compatible path layout).
	BaseURL string `yaml:"base-url"`

	// APIKey is the bearer credential. ${VAR} references expand from
	// the environment at load time.
	APIKey string `yaml:"api-key"`

	// Model is the upstream model identifier.
	Model string `yaml:"model"`

	// Timeout bounds each call to this backend.
	Timeout Duration `yaml:"timeout"`

	// RequestsPerMinute caps the outbound rate. Zero disables limiting.
	RequestsPerMinute int `yaml:"requests-per-minute"`

	// MaxTokens limits completion length. Zero omits the field upstream.
	MaxTokens int `yaml:"max-tokens"`

	// Temperature is passed through when non-zero.
	Temperature float64 `yaml:"temperature"`

	// SystemPrompt is prepended as a system message when set.
	SystemPrompt string `yaml:"system-prompt"`
}

// RolesConfig maps routing roles to configured backend names.
type RolesConfig struct {
	Precision    string `yaml:"precision"`
	Creative     string `yaml:"creative"`
	HighCapacity string `yaml:"high-capacity"`
}

// HealthConfig holds circuit-breaker and latency-smoothing settings.
type HealthConfig struct {
	EWMAAlpha          float64  `yaml:"ewma-alpha"`
	Window             Duration `yaml:"window"`
	ErrorRateThreshold float64  `yaml:"error-rate-threshold"`
	MinSamples         int      `yaml:"min-samples"`
	Cooldown           Duration `yaml:"cooldown"`
}

// AdmissionConfig sizes worker pools and the bounded queue.
type AdmissionConfig struct {
	HighWorkers       int `yaml:"high-workers"`
	HighOverflow      int `yaml:"high-overflow"`
	QueueCapacity     int `yaml:"queue-capacity"`
	BackgroundWorkers int `yaml:"background-workers"`
}

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the network host/interface the API server binds to.
	// Empty binds all interfaces.
	Host string `yaml:"host"`

	// Port is the network port the API server listens on.
	Port int `yaml:"port"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`

	// LoggingToFile controls whether logs go to rotating files or stdout.
	LoggingToFile bool `yaml:"logging-to-file"`

	// LogDir is the directory for rotating log files.
	LogDir string `yaml:"log-dir"`

	// Backends lists the configured provider endpoints.
	Backends []BackendConfig `yaml:"backends"`

	// Roles maps the routing roles to backend names.
	Roles RolesConfig `yaml:"roles"`

	// Health configures the health oracle and circuit breaker.
	Health HealthConfig `yaml:"health"`

	// Admission sizes worker pools and queue capacity.
	Admission AdmissionConfig `yaml:"admission"`

	// Fragments overrides the local-synthesis fragment pools per stream.
	Fragments map[string]string `yaml:"fragments"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Port:          8085,
		LoggingToFile: false,
		LogDir:        "logs",
		Roles: RolesConfig{
			Precision:    "precision",
			Creative:     "creative",
			HighCapacity: "high-capacity",
		},
		Health: HealthConfig{
			EWMAAlpha:          0.3,
			Window:             Duration(30 * time.Second),
			ErrorRateThreshold: 0.5,
			MinSamples:         3,
			Cooldown:           Duration(60 * time.Second),
		},
		Admission: AdmissionConfig{
			HighWorkers:       8,
			HighOverflow:      16,
			QueueCapacity:     64,
			BackgroundWorkers: 4,
		},
	}
}

// Load reads, parses, and validates a YAML configuration file.
// Missing optional sections fall back to defaults; API key values
// expand ${VAR} environment references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	for i := range cfg.Backends {
		cfg.Backends[i].APIKey = os.ExpandEnv(cfg.Backends[i].APIKey)
		if cfg.Backends[i].Timeout <= 0 {
			cfg.Backends[i].Timeout = Duration(15 * time.Second)
		}
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency: every role must reference a
// configured backend, and at least one backend must exist.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if len(c.Backends) == 0 {
		return fmt.Errorf("no backends configured")
	}

	names := make(map[string]bool, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return fmt.Errorf("backend with empty name")
		}
		if names[b.Name] {
			return fmt.Errorf("duplicate backend name %q", b.Name)
		}
		names[b.Name] = true
	}

	for role, name := range map[string]string{
		"precision":     c.Roles.Precision,
		"creative":      c.Roles.Creative,
		"high-capacity": c.Roles.HighCapacity,
	} {
		if name == "" {
			return fmt.Errorf("role %s not mapped to a backend", role)
		}
		if !names[name] {
			return fmt.Errorf("role %s references unknown backend %q", role, name)
		}
	}

	return nil
}

// BackendNames returns the configured backend names in declaration order.
func (c *Config) BackendNames() []string {
	names := make([]string, 0, len(c.Backends))
	for _, b := range c.Backends {
		names = append(names, b.Name)
	}
	return names
}
