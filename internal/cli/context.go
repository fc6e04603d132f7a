package cli

import (
	"time"

	"github.com/mrz1836/walletgate/internal/config"
	"github.com/mrz1836/walletgate/internal/metrics"
	"github.com/mrz1836/walletgate/internal/negotiator"
	"github.com/mrz1836/walletgate/internal/output"
	"github.com/mrz1836/walletgate/internal/provider"
	"github.com/mrz1836/walletgate/internal/session"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg       *config.Config
	Logger    *config.Logger
	Formatter *output.Formatter
	Metrics   *metrics.Metrics

	// overlay is consulted before the bindings directory. Embedders and tests
	// use it to inject wallets without running a bridge.
	overlay provider.Environment
	store   session.Store
}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(
	c *config.Config,
	l *config.Logger,
	f *output.Formatter,
) *CommandContext {
	return &CommandContext{
		Cfg:       c,
		Logger:    l,
		Formatter: f,
		Metrics:   metrics.Global,
	}
}

// WithEnvironment layers env in front of the bindings directory.
func (c *CommandContext) WithEnvironment(env provider.Environment) *CommandContext {
	c.overlay = env
	return c
}

// WithStore replaces the session file store.
func (c *CommandContext) WithStore(s session.Store) *CommandContext {
	c.store = s
	return c
}

// WithMetrics sets the metrics sink.
func (c *CommandContext) WithMetrics(m *metrics.Metrics) *CommandContext {
	c.Metrics = m
	return c
}

// Bindings returns the bindings directory environment. Every RPC wallet it
// hands out shares one limiter built from the negotiation settings.
func (c *CommandContext) Bindings() *provider.DirEnvironment {
	limiter := provider.NewRateLimiter(c.Cfg.Negotiation.RatePerSecond, c.Cfg.Negotiation.Burst)
	return provider.NewDirEnvironment(c.Cfg.BindingsDir(), provider.WithRateLimiter(limiter))
}

// Environment returns the environment providers are resolved in.
func (c *CommandContext) Environment() provider.Environment {
	return provider.Layered(c.overlay, c.Bindings())
}

// Registries builds the passive and active registries from the configured
// descriptors.
func (c *CommandContext) Registries() (passive, active *provider.StaticRegistry, err error) {
	env := c.Environment()
	passiveList, activeList := c.Cfg.Descriptors()

	passive, err = provider.NewRegistry(env, passiveList...)
	if err != nil {
		return nil, nil, err
	}
	active, err = provider.NewRegistry(env, activeList...)
	if err != nil {
		return nil, nil, err
	}
	return passive, active, nil
}

// Store returns the session store, defaulting to the session file in home.
func (c *CommandContext) Store() session.Store {
	if c.store == nil {
		c.store = session.NewFileStore(session.Path(c.Cfg.HomeDir()))
	}
	return c.store
}

// Negotiator builds a negotiator from the configuration. A positive
// promptTimeout overrides the configured one.
func (c *CommandContext) Negotiator(promptTimeout time.Duration) (*negotiator.Negotiator, error) {
	passive, active, err := c.Registries()
	if err != nil {
		return nil, err
	}

	if promptTimeout <= 0 {
		promptTimeout = c.Cfg.PromptTimeout()
	}

	opts := []negotiator.Option{
		negotiator.WithActiveRegistry(active),
		negotiator.WithStore(c.Store()),
		negotiator.WithMetrics(c.Metrics),
		negotiator.WithStartupDelay(c.Cfg.StartupDelay()),
		negotiator.WithCallTimeout(c.Cfg.CallTimeout()),
		negotiator.WithPromptTimeout(promptTimeout),
	}
	if c.Logger != nil {
		opts = append(opts, negotiator.WithLogger(c.Logger.Named("negotiator")))
	}
	return negotiator.New(passive, opts...)
}
