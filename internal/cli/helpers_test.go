package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"

	"github.com/mrz1836/walletgate/internal/config"
	"github.com/mrz1836/walletgate/internal/metrics"
	"github.com/mrz1836/walletgate/internal/output"
	"github.com/mrz1836/walletgate/internal/provider"
)

// saveGlobals saves all package-level globals and returns a restore function.
func saveGlobals(t *testing.T) func() {
	t.Helper()
	origCfg := cfg
	origLogger := logger
	origFormatter := formatter
	origCmdCtx := cmdCtx
	origShutdown := shutdownTelemetry
	origHomeDir := homeDir
	origOutputFormat := outputFormat
	origVerbose := verbose
	origBindingsDir := bindingsDir
	origConnectTimeout := connectTimeout
	origNoReconnect := connectNoReconnect
	origStatusWait := statusWait
	origRegisterName := registerName
	origRegisterForce := registerForce
	origConfigForce := configForce
	return func() {
		cfg = origCfg
		logger = origLogger
		formatter = origFormatter
		cmdCtx = origCmdCtx
		shutdownTelemetry = origShutdown
		homeDir = origHomeDir
		outputFormat = origOutputFormat
		verbose = origVerbose
		bindingsDir = origBindingsDir
		connectTimeout = origConnectTimeout
		connectNoReconnect = origNoReconnect
		statusWait = origStatusWait
		registerName = origRegisterName
		registerForce = origRegisterForce
		configForce = origConfigForce
	}
}

// testEnv is the state installed by setupCLI.
type testEnv struct {
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	wallets *provider.MapEnvironment
	metrics *metrics.Metrics
}

// setupCLI installs globals for calling command handlers directly: a fresh
// home directory, a null logger, a formatter writing to a buffer, and an
// in-memory environment layered over the bindings directory.
func setupCLI(t *testing.T, format output.Format) *testEnv {
	t.Helper()
	t.Cleanup(saveGlobals(t))

	env := &testEnv{
		out:     new(bytes.Buffer),
		errOut:  new(bytes.Buffer),
		wallets: provider.NewMapEnvironment(nil),
		metrics: &metrics.Metrics{},
	}

	cfg = config.Defaults()
	cfg.Home = t.TempDir()
	cfg.Logging.Level = "off"
	cfg.Negotiation.StartupDelayMS = 10
	cfg.Negotiation.CallTimeoutSeconds = 2

	logger = config.NullLogger()
	formatter = output.NewFormatter(format, env.out)
	cmdCtx = NewCommandContext(cfg, logger, formatter).
		WithEnvironment(env.wallets).
		WithMetrics(env.metrics)

	connectTimeout = 0
	connectNoReconnect = false
	statusWait = false
	registerName = ""
	registerForce = false
	configForce = false

	return env
}

// command returns a bare command writing to env's buffers.
func (e *testEnv) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(e.out)
	cmd.SetErr(e.errOut)
	cmd.SetContext(context.Background())
	return cmd
}
