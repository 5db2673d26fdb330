// Package config provides configuration management for uiwatch.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the current version of uiwatch.
// This is set at build time via ldflags.
var Version = "dev"

// Config holds all configuration options for uiwatch.
type Config struct {
	// Engine
	ChromePort string `yaml:"chrome_port"`
	Attach     bool   `yaml:"attach"`
	Headless   bool   `yaml:"headless"`

	// Output
	ActionLogFile string `yaml:"action_log_file"`
	EngineLogFile string `yaml:"engine_log_file"`

	// Freeze detection
	FreezeThreshold   time.Duration `yaml:"freeze_threshold"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	WatchdogInterval  time.Duration `yaml:"watchdog_interval"`
	WatchdogDelay     time.Duration `yaml:"watchdog_delay"`

	// Privacy
	Redact bool `yaml:"redact"`

	// Diagnostics
	StatusAddr string `yaml:"status_addr"`
	TraceFile  string `yaml:"trace_file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		// Engine
		ChromePort: "9222",
		Attach:     false,
		Headless:   false,

		// Output
		ActionLogFile: "logs/UserAction.log",
		EngineLogFile: "logs/Engine.log",

		// Freeze detection
		FreezeThreshold:   2000 * time.Millisecond,
		HeartbeatInterval: 500 * time.Millisecond,
		WatchdogInterval:  500 * time.Millisecond,
		WatchdogDelay:     1000 * time.Millisecond,

		// Privacy
		Redact: true,
	}
}

// LoadFromFile reads a YAML config file on top of the defaults.
// Keys missing from the file keep their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ChromePort == "" {
		return errors.New("chrome port is required")
	}
	if c.ActionLogFile == "" {
		return errors.New("action log file is required")
	}
	if c.HeartbeatInterval <= 0 {
		return errors.New("heartbeat interval must be positive")
	}
	if c.WatchdogInterval <= 0 {
		return errors.New("watchdog interval must be positive")
	}
	if c.WatchdogDelay < 0 {
		return errors.New("watchdog delay must not be negative")
	}
	// A threshold at or below the heartbeat period would flag a healthy loop.
	if c.FreezeThreshold <= c.HeartbeatInterval {
		return fmt.Errorf("freeze threshold %v must exceed heartbeat interval %v",
			c.FreezeThreshold, c.HeartbeatInterval)
	}
	return nil
}
