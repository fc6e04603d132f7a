package config

import "github.com/mrz1836/walletgate/internal/provider"

// Negotiation defaults.
const (
	// DefaultStartupDelayMS gives injected wallets time to register their
	// bindings before passive reconnection looks for them.
	DefaultStartupDelayMS = 500

	// DefaultCallTimeoutSeconds bounds each non-prompting provider call.
	DefaultCallTimeoutSeconds = 5

	// DefaultPromptTimeoutSeconds bounds the permission prompt in the CLI.
	DefaultPromptTimeoutSeconds = 120

	// DefaultServiceName is the OpenTelemetry service name.
	DefaultServiceName = "walletgate"
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.walletgate",
		Providers: ProvidersConfig{
			BindingsDir: "",
			LegacyOrder: false,
		},
		Negotiation: NegotiationConfig{
			StartupDelayMS:       DefaultStartupDelayMS,
			CallTimeoutSeconds:   DefaultCallTimeoutSeconds,
			PromptTimeoutSeconds: DefaultPromptTimeoutSeconds,
			RatePerSecond:        provider.DefaultRatePerSecond,
			Burst:                provider.DefaultBurst,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.walletgate/walletgate.log",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "",
			ServiceName: DefaultServiceName,
		},
	}
}
