// Package config provides configuration management for walletgate.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/walletgate/internal/provider"
)

// Config represents the application configuration.
type Config struct {
	Version     int               `yaml:"version"`
	Home        string            `yaml:"home"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Negotiation NegotiationConfig `yaml:"negotiation"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// ProvidersConfig defines which wallet providers are consulted and in what
// order.
type ProvidersConfig struct {
	// BindingsDir is where wallet bridges register their manifests.
	BindingsDir string `yaml:"bindings_dir"`
	// LegacyOrder selects the historical split between the passive and the
	// active provider order.
	LegacyOrder bool `yaml:"legacy_order"`
	// Wallets replaces the built-in provider list when non-empty.
	Wallets []provider.Descriptor `yaml:"wallets,omitempty"`
}

// NegotiationConfig defines session negotiation timing and limits.
type NegotiationConfig struct {
	StartupDelayMS       int     `yaml:"startup_delay_ms"`
	CallTimeoutSeconds   int     `yaml:"call_timeout_seconds"`
	PromptTimeoutSeconds int     `yaml:"prompt_timeout_seconds"`
	RatePerSecond        float64 `yaml:"rate_per_second"`
	Burst                int     `yaml:"burst"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// TelemetryConfig defines OpenTelemetry trace export settings.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default walletgate home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".walletgate"
	}
	return filepath.Join(home, ".walletgate")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// HomeDir returns the expanded home directory.
func (c *Config) HomeDir() string {
	return ExpandHome(c.Home)
}

// BindingsDir returns the expanded bindings directory. It defaults to
// "bindings" inside the home directory.
func (c *Config) BindingsDir() string {
	if c.Providers.BindingsDir == "" {
		return filepath.Join(c.HomeDir(), "bindings")
	}
	return ExpandHome(c.Providers.BindingsDir)
}

// Descriptors returns the passive and active provider orders. Validate rejects
// a custom wallet list combined with the legacy order.
func (c *Config) Descriptors() (passive, active []provider.Descriptor) {
	switch {
	case len(c.Providers.Wallets) > 0:
		return c.Providers.Wallets, c.Providers.Wallets
	case c.Providers.LegacyOrder:
		return provider.LegacyPassiveDescriptors(), provider.LegacyActiveDescriptors()
	default:
		d := provider.DefaultDescriptors()
		return d, d
	}
}

// StartupDelay returns the delay before passive reconnection.
func (c *Config) StartupDelay() time.Duration {
	return time.Duration(c.Negotiation.StartupDelayMS) * time.Millisecond
}

// CallTimeout returns the bound for each non-prompting provider call.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Negotiation.CallTimeoutSeconds) * time.Second
}

// PromptTimeout returns the bound for the permission prompt. Zero means the
// prompt waits for the user indefinitely.
func (c *Config) PromptTimeout() time.Duration {
	return time.Duration(c.Negotiation.PromptTimeoutSeconds) * time.Second
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}
