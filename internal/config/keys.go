package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// maxKeyDistance is the largest edit distance offered as a "did you mean".
const maxKeyDistance = 3

// field is one settable scalar in the configuration tree.
type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

//nolint:gochecknoglobals // Static key table
var fields = map[string]field{
	"home": {
		get: func(c *Config) string { return c.Home },
		set: func(c *Config, v string) error { c.Home = v; return nil },
	},
	"providers.bindings_dir": {
		get: func(c *Config) string { return c.Providers.BindingsDir },
		set: func(c *Config, v string) error { c.Providers.BindingsDir = v; return nil },
	},
	"providers.legacy_order": {
		get: func(c *Config) string { return strconv.FormatBool(c.Providers.LegacyOrder) },
		set: func(c *Config, v string) error { return setBool(&c.Providers.LegacyOrder, v) },
	},
	"negotiation.startup_delay_ms": {
		get: func(c *Config) string { return strconv.Itoa(c.Negotiation.StartupDelayMS) },
		set: func(c *Config, v string) error { return setInt(&c.Negotiation.StartupDelayMS, v) },
	},
	"negotiation.call_timeout_seconds": {
		get: func(c *Config) string { return strconv.Itoa(c.Negotiation.CallTimeoutSeconds) },
		set: func(c *Config, v string) error { return setInt(&c.Negotiation.CallTimeoutSeconds, v) },
	},
	"negotiation.prompt_timeout_seconds": {
		get: func(c *Config) string { return strconv.Itoa(c.Negotiation.PromptTimeoutSeconds) },
		set: func(c *Config, v string) error { return setInt(&c.Negotiation.PromptTimeoutSeconds, v) },
	},
	"negotiation.rate_per_second": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Negotiation.RatePerSecond, 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return invalidValue(v, "a number")
			}
			c.Negotiation.RatePerSecond = f
			return nil
		},
	},
	"negotiation.burst": {
		get: func(c *Config) string { return strconv.Itoa(c.Negotiation.Burst) },
		set: func(c *Config, v string) error { return setInt(&c.Negotiation.Burst, v) },
	},
	"output.default_format": {
		get: func(c *Config) string { return c.Output.DefaultFormat },
		set: func(c *Config, v string) error { c.Output.DefaultFormat = strings.ToLower(v); return nil },
	},
	"output.color": {
		get: func(c *Config) string { return c.Output.Color },
		set: func(c *Config, v string) error { c.Output.Color = strings.ToLower(v); return nil },
	},
	"output.verbose": {
		get: func(c *Config) string { return strconv.FormatBool(c.Output.Verbose) },
		set: func(c *Config, v string) error { return setBool(&c.Output.Verbose, v) },
	},
	"logging.level": {
		get: func(c *Config) string { return c.Logging.Level },
		set: func(c *Config, v string) error { c.Logging.Level = strings.ToLower(v); return nil },
	},
	"logging.file": {
		get: func(c *Config) string { return c.Logging.File },
		set: func(c *Config, v string) error { c.Logging.File = v; return nil },
	},
	"telemetry.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Telemetry.Enabled) },
		set: func(c *Config, v string) error { return setBool(&c.Telemetry.Enabled, v) },
	},
	"telemetry.endpoint": {
		get: func(c *Config) string { return c.Telemetry.Endpoint },
		set: func(c *Config, v string) error { c.Telemetry.Endpoint = v; return nil },
	},
	"telemetry.service_name": {
		get: func(c *Config) string { return c.Telemetry.ServiceName },
		set: func(c *Config, v string) error { c.Telemetry.ServiceName = v; return nil },
	},
}

// Keys returns every settable key in dot notation, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Get returns the value at key.
func Get(c *Config, key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", unknownKey(key)
	}
	return f.get(c), nil
}

// Set parses value into key and validates the result. On error c is left
// unchanged.
func Set(c *Config, key, value string) error {
	f, ok := fields[key]
	if !ok {
		return unknownKey(key)
	}

	next := *c
	if err := f.set(&next, value); err != nil {
		return gateerr.WithDetails(err, map[string]string{"key": key})
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// SuggestKey returns the known key closest to key, or "" when nothing is
// close enough.
func SuggestKey(key string) string {
	best, bestDist := "", maxKeyDistance+1
	for _, k := range Keys() {
		if d := levenshtein.ComputeDistance(strings.ToLower(key), k); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

func unknownKey(key string) error {
	err := gateerr.WithDetails(gateerr.ErrUnknownConfigKey, map[string]string{"key": key})
	if s := SuggestKey(key); s != "" {
		return gateerr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", s))
	}
	return gateerr.WithSuggestion(err, "run 'walletgate config show' to list settings")
}

func invalidValue(v, want string) error {
	return gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{
		"value":    v,
		"expected": want,
	})
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return invalidValue(v, "true or false")
	}
	*dst = b
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return invalidValue(v, "an integer")
	}
	*dst = n
	return nil
}
