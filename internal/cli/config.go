package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/walletgate/internal/config"
	"github.com/mrz1836/walletgate/internal/output"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configuration",
	GroupID: groupConfig,
	Long:    `View and modify walletgate configuration settings.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.walletgate/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified. With --force it also replaces a file that can no
longer be parsed.`,
	Example: `  walletgate config init
  walletgate config init --force`,
	Annotations: map[string]string{annotationResetsConfig: "true"},
	RunE:        runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display every configuration setting with its effective value, after
environment variable and flag overrides.`,
	Example: `  walletgate config show
  walletgate config show -o json`,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its key.

Keys use dot notation to navigate the configuration tree. Run
"walletgate config show" to list them.`,
	Example: `  walletgate config get negotiation.prompt_timeout_seconds
  walletgate config get output.default_format
  walletgate config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its key.

The value is validated before the configuration file is updated. Environment
variable overrides are not written to the file.`,
	Example: `  walletgate config set negotiation.prompt_timeout_seconds 60
  walletgate config set providers.legacy_order true
  walletgate config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.HomeDir())

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !configForce {
		return gateerr.WithSuggestion(
			gateerr.WithDetails(gateerr.ErrGeneral, map[string]string{"path": configPath}),
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]string{"path": configPath})
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - providers.legacy_order: Use the historical split provider orders")
	outln(w, "  - providers.wallets: Replace the supported wallet list")
	outln(w, "  - negotiation.prompt_timeout_seconds: How long to wait for a wallet prompt")
	outln(w, "  - output.default_format: Output format (text/json)")
	outln(w, "  - logging.level: Log level (off/error/info/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	values := make(map[string]string, len(config.Keys()))
	table := output.NewTable("KEY", "VALUE")
	for _, key := range config.Keys() {
		v, err := config.Get(cfg, key)
		if err != nil {
			return err
		}
		values[key] = v
		table.AddRow(key, v)
	}

	if formatter.IsJSON() {
		return formatter.Print(values)
	}

	w := cmd.OutOrStdout()
	if err := table.Render(w); err != nil {
		return err
	}
	if len(cfg.Providers.Wallets) > 0 {
		out(w, "\n%d custom wallet(s) configured in providers.wallets\n", len(cfg.Providers.Wallets))
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := config.Get(cfg, args[0])
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]string{"key": args[0], "value": value})
	}
	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	// Edit the file contents, not the environment-adjusted config
	configPath := config.Path(cfg.HomeDir())
	current, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return gateerr.WithCause(gateerr.ErrConfigInvalid, err)
		}
		current = config.Defaults()
		current.Home = cfg.Home
	}

	if err := config.Set(current, key, value); err != nil {
		return err
	}
	if err := config.Save(current, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	stored, _ := config.Get(current, key)
	if formatter.IsJSON() {
		return formatter.Print(map[string]string{"key": key, "value": stored})
	}
	out(cmd.OutOrStdout(), "Set %s = %s\n", key, stored)
	return nil
}
