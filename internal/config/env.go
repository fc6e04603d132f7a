package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// Environment variable names.
const (
	EnvHome          = "WALLETGATE_HOME"
	EnvBindingsDir   = "WALLETGATE_BINDINGS_DIR"
	EnvLogLevel      = "WALLETGATE_LOG_LEVEL"
	EnvOutputFormat  = "WALLETGATE_OUTPUT_FORMAT"
	EnvVerbose       = "WALLETGATE_VERBOSE"
	EnvPromptTimeout = "WALLETGATE_PROMPT_TIMEOUT"
	EnvStartupDelay  = "WALLETGATE_STARTUP_DELAY"
	EnvLegacyOrder   = "WALLETGATE_LEGACY_ORDER"
	EnvOTelEndpoint  = "WALLETGATE_OTEL_ENDPOINT"
	EnvNoColor       = "NO_COLOR"
)

// overrides mirrors the supported environment variables. Pointer fields
// stay nil when the variable is unset.
type overrides struct {
	Home          string         `env:"WALLETGATE_HOME"`
	BindingsDir   string         `env:"WALLETGATE_BINDINGS_DIR"`
	LogLevel      string         `env:"WALLETGATE_LOG_LEVEL"`
	OutputFormat  string         `env:"WALLETGATE_OUTPUT_FORMAT"`
	Verbose       *bool          `env:"WALLETGATE_VERBOSE"`
	PromptTimeout *time.Duration `env:"WALLETGATE_PROMPT_TIMEOUT"`
	StartupDelay  *time.Duration `env:"WALLETGATE_STARTUP_DELAY"`
	LegacyOrder   *bool          `env:"WALLETGATE_LEGACY_ORDER"`
	OTelEndpoint  string         `env:"WALLETGATE_OTEL_ENDPOINT"`
	NoColor       string         `env:"NO_COLOR"`
}

// ParseEnv loads target from the process environment.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) error {
	var o overrides
	if err := ParseEnv(&o); err != nil {
		return gateerr.WithCause(gateerr.ErrConfigInvalid, err)
	}
	o.apply(cfg)
	return nil
}

// ApplyEnvironmentFrom applies overrides taken from vars instead of the
// process environment.
func ApplyEnvironmentFrom(cfg *Config, vars map[string]string) error {
	var o overrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: vars}); err != nil {
		return gateerr.WithCause(gateerr.ErrConfigInvalid, fmt.Errorf("parse env: %w", err))
	}
	o.apply(cfg)
	return nil
}

//nolint:gocyclo // Environment variable overrides require sequential checks
func (o overrides) apply(cfg *Config) {
	if o.Home != "" {
		cfg.Home = o.Home
	}

	if o.BindingsDir != "" {
		cfg.Providers.BindingsDir = o.BindingsDir
	}

	if o.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(o.LogLevel)
	}

	if o.OutputFormat != "" {
		cfg.Output.DefaultFormat = strings.ToLower(o.OutputFormat)
	}

	if o.Verbose != nil {
		cfg.Output.Verbose = *o.Verbose
	}

	if o.PromptTimeout != nil && *o.PromptTimeout >= 0 {
		cfg.Negotiation.PromptTimeoutSeconds = int(o.PromptTimeout.Seconds())
	}

	if o.StartupDelay != nil && *o.StartupDelay >= 0 {
		cfg.Negotiation.StartupDelayMS = int(o.StartupDelay.Milliseconds())
	}

	if o.LegacyOrder != nil {
		cfg.Providers.LegacyOrder = *o.LegacyOrder
	}

	// An endpoint implies export
	if o.OTelEndpoint != "" {
		cfg.Telemetry.Endpoint = o.OTelEndpoint
		cfg.Telemetry.Enabled = true
	}

	// NO_COLOR disables colored output
	if o.NoColor != "" {
		cfg.Output.Color = "never"
	}
}
