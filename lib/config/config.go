// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kiln-build/kiln-exporter/lib/kilnapi"
)

// EnvConfig is the environment variable holding the configuration
// file path.
const EnvConfig = "KILN_EXPORTER_CONFIG"

// Stock defaults, used field by field whenever the file does not set
// a value.
const (
	DefaultListen      = ":9090"
	DefaultInterval    = 15 * time.Second
	DefaultCallTimeout = 15 * time.Second
)

// Duration is a time.Duration that unmarshals from YAML duration
// strings ("15s", "1m30s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"15s\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the value as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the complete configuration of the exporter. Values are
// fixed at startup; nothing mutates them afterwards.
type Config struct {
	// Socket is the path of the kilnd control socket.
	// Default: /run/kiln/kilnd.sock
	Socket string `yaml:"socket"`

	// Listen is the TCP address the scrape endpoint binds.
	// Default: :9090
	Listen string `yaml:"listen"`

	// Interval is the collection period.
	// Default: 15s
	Interval Duration `yaml:"interval"`

	// CallTimeout bounds each upstream status call. Zero derives the
	// timeout from Interval so a hung daemon can never stall a cycle
	// past its period.
	// Default: 15s
	CallTimeout Duration `yaml:"call_timeout"`
}

// Default returns the configuration used when no file and no flags
// are given.
func Default() *Config {
	return &Config{
		Socket:      kilnapi.DefaultSocketPath,
		Listen:      DefaultListen,
		Interval:    Duration(DefaultInterval),
		CallTimeout: Duration(DefaultCallTimeout),
	}
}

// Load resolves configuration from the KILN_EXPORTER_CONFIG
// environment variable. An unset variable yields Default(). A set but
// unloadable path is an error: a misconfigured exporter must refuse
// to start rather than run on defaults the operator did not choose.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfig)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merging the
// file over the defaults.
func LoadFile(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return config, nil
}

// EffectiveCallTimeout resolves the per-call timeout, deriving it
// from the interval when unset.
func (c *Config) EffectiveCallTimeout() time.Duration {
	if c.CallTimeout > 0 {
		return c.CallTimeout.Duration()
	}
	return c.Interval.Duration()
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Socket == "" {
		errs = append(errs, fmt.Errorf("socket is required"))
	}

	if c.Listen == "" {
		errs = append(errs, fmt.Errorf("listen is required"))
	} else if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		errs = append(errs, fmt.Errorf("listen address %q: %w", c.Listen, err))
	}

	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %v", c.Interval.Duration()))
	}

	if c.CallTimeout < 0 {
		errs = append(errs, fmt.Errorf("call_timeout cannot be negative, got %v", c.CallTimeout.Duration()))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
