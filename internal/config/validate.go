package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mrz1836/walletgate/internal/provider"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// Validate checks the configuration for values the negotiator cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Home) == "" {
		return invalid("home", "must not be empty")
	}

	switch c.Output.DefaultFormat {
	case "auto", "text", "json":
	default:
		return invalid("output.default_format", "must be auto, text or json")
	}

	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return invalid("output.color", "must be auto, always or never")
	}

	if !ValidLogLevel(c.Logging.Level) {
		return invalid("logging.level", "must be off, error, info or debug")
	}

	n := c.Negotiation
	switch {
	case n.StartupDelayMS < 0:
		return invalid("negotiation.startup_delay_ms", "must not be negative")
	case n.CallTimeoutSeconds <= 0:
		return invalid("negotiation.call_timeout_seconds", "must be positive")
	case n.PromptTimeoutSeconds < 0:
		return invalid("negotiation.prompt_timeout_seconds", "must not be negative")
	case n.RatePerSecond < 0:
		return invalid("negotiation.rate_per_second", "must not be negative")
	case n.Burst < 1:
		return invalid("negotiation.burst", "must be at least 1")
	}

	if c.Providers.LegacyOrder && len(c.Providers.Wallets) > 0 {
		return gateerr.WithSuggestion(
			invalid("providers.legacy_order", "cannot be combined with providers.wallets"),
			"remove providers.wallets to use the legacy order, or set legacy_order to false",
		)
	}

	if err := validateWallets(c.Providers.Wallets); err != nil {
		return err
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint != "" {
		if u, err := url.Parse(c.Telemetry.Endpoint); err != nil || u.Host == "" {
			return invalid("telemetry.endpoint", "must be an absolute URL")
		}
	}

	return nil
}

// validateWallets checks a custom provider list. Unknown bindings are
// allowed since bridges may expose wallets walletgate has never heard of, but
// a near miss of a built-in binding is almost always a typo.
func validateWallets(wallets []provider.Descriptor) error {
	seen := make(map[string]struct{}, len(wallets))
	known := provider.DefaultDescriptors()

	for i, d := range wallets {
		key := fmt.Sprintf("providers.wallets[%d].binding", i)
		if strings.TrimSpace(d.Binding) == "" {
			return invalid(key, "must not be empty")
		}
		if _, dup := seen[d.Binding]; dup {
			return invalid(key, fmt.Sprintf("duplicate binding %q", d.Binding))
		}
		seen[d.Binding] = struct{}{}

		if s := provider.Suggest(d.Binding, known); s != "" && s != d.Binding {
			return gateerr.WithSuggestion(
				invalid(key, fmt.Sprintf("unknown binding %q", d.Binding)),
				fmt.Sprintf("did you mean %q?", s),
			)
		}
	}
	return nil
}

func invalid(key, reason string) error {
	return gateerr.WithDetails(gateerr.ErrConfigInvalid, map[string]string{
		"key":    key,
		"reason": reason,
	})
}
