// Package cli implements the walletgate command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/walletgate/internal/config"
	"github.com/mrz1836/walletgate/internal/metrics"
	"github.com/mrz1836/walletgate/internal/output"
	"github.com/mrz1836/walletgate/internal/telemetry"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// Command group IDs used to organize root help output.
const (
	groupSession   = "session"
	groupProviders = "providers"
	groupConfig    = "config"
)

// annotationResetsConfig marks commands that must run even when the config
// file cannot be parsed.
const annotationResetsConfig = "walletgate/resets-config"

// telemetryShutdownTimeout bounds the final span flush on exit.
const telemetryShutdownTimeout = 5 * time.Second

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	bindingsDir  string

	// Global state initialized in PersistentPreRunE
	cfg               *config.Config
	logger            *config.Logger
	formatter         *output.Formatter
	cmdCtx            *CommandContext
	shutdownTelemetry telemetry.ShutdownFunc
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "walletgate",
	Short: "Negotiate wallet sessions with installed wallet providers",
	Long: `Walletgate establishes an authenticated wallet session with whichever
supported wallet provider is available.

On startup it silently restores a session from a wallet that already granted
permission. When none is found, "walletgate connect" asks the first available
wallet for permission and reports the outcome.

Wallet bridges make providers available by registering a manifest in the
bindings directory.`,
	Example: `  walletgate status
  walletgate connect
  walletgate providers list -o json
  walletgate disconnect`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// reportedError marks an error whose details were already written to the
// user. Execute still maps it to an exit code but does not print it again.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// reported wraps err as already shown to the user.
func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context, which abandons any pending wallet prompt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enrichHelp()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		var shown *reportedError
		if !errors.As(err, &shown) {
			formatErr(err)
		}
		return err
	}
	return nil
}

// formatErr prints err to stderr in the active output format.
func formatErr(err error) {
	format := output.FormatText
	if formatter != nil {
		format = formatter.Format()
	}
	_ = output.FormatError(os.Stderr, err, format)
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return gateerr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, formatter, and the
// command context.
func initGlobals(cmd *cobra.Command) error {
	// Determine home directory
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	// Load config, falling back to defaults when none exists yet
	var err error
	cfg, err = config.Load(config.Path(home))
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist), tolerantOfBadConfig(cmd):
		cfg = config.Defaults()
		cfg.Home = home
	default:
		return gateerr.WithSuggestion(
			gateerr.WithCause(gateerr.ErrConfigInvalid, err),
			"fix the file or run 'walletgate config init --force' to reset it",
		)
	}

	// Apply environment variable overrides
	if err = config.ApplyEnvironment(cfg); err != nil {
		return err
	}

	// Override with command-line flags
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if bindingsDir != "" {
		cfg.Providers.BindingsDir = bindingsDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	if err = cfg.Validate(); err != nil {
		return err
	}

	// Initialize logger
	logger, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		// Use null logger if we can't create the file
		logger = config.NullLogger()
	}

	// Initialize formatter
	formatter = output.NewFormatter(output.ParseFormat(cfg.Output.DefaultFormat), stdout(cmd))

	// Tracing is best effort; a bad collector must not block wallet work
	shutdownTelemetry, err = telemetry.Setup(commandContext(cmd), cfg.Telemetry)
	if err != nil {
		logger.Error("telemetry disabled: %v", err)
	}

	cmdCtx = NewCommandContext(cfg, logger, formatter)
	return nil
}

func tolerantOfBadConfig(cmd *cobra.Command) bool {
	return cmd != nil && cmd.Annotations[annotationResetsConfig] == "true"
}

// cleanup flushes telemetry and releases resources.
func cleanup() {
	if shutdownTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		if err := shutdownTelemetry(ctx); err != nil && logger != nil {
			logger.Error("telemetry shutdown: %v", err)
		}
		cancel()
		shutdownTelemetry = nil
	}
	if logger != nil {
		snap := metrics.Global.Snapshot()
		logger.Debug("metrics: connect_attempts=%d connected=%d passive_hits=%d/%d provider_errors=%d",
			snap.ConnectAttempts, snap.Connected, snap.PassiveHits, snap.PassiveScans, snap.ProviderErrors)
		_ = logger.Close()
	}
}

// stdout returns the command's output writer, falling back to os.Stdout.
func stdout(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}

// out is a helper for CLI output that ignores write errors (standard pattern for CLI tools).
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

// Context returns the global command context.
func Context() *CommandContext {
	return cmdCtx
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupSession, Title: "Wallet Session:"},
		&cobra.Group{ID: groupProviders, Title: "Providers:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID(groupConfig)

	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "walletgate data directory (default: ~/.walletgate)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&bindingsDir, "bindings-dir", "",
		"directory where wallet bridges register (default: <home>/bindings)")
}
