package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/walletgate/internal/account"
	"github.com/mrz1836/walletgate/internal/config"
	"github.com/mrz1836/walletgate/internal/output"
	"github.com/mrz1836/walletgate/internal/provider"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

const (
	// bridgeReadHeaderTimeout bounds slow clients of a served bridge.
	bridgeReadHeaderTimeout = 10 * time.Second
	// bridgeShutdownTimeout bounds draining a served bridge on exit.
	bridgeShutdownTimeout = 5 * time.Second
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	registerName  string
	registerForce bool

	serveListen        string
	serveAccounts      []string
	servePreauthorized bool
	serveReject        bool
)

// providersCmd is the parent command for provider operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providersCmd = &cobra.Command{
	Use:     "providers",
	Short:   "Inspect and register wallet providers",
	GroupID: groupProviders,
	Long: `Inspect the supported wallet providers and manage wallet bridge
registrations in the bindings directory.`,
}

// providersListCmd lists providers in negotiation order.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers in negotiation order",
	Long: `List the supported wallet providers in the order each negotiation protocol
tries them, and whether each one is currently available.

"passive" is the order used to restore a session silently; "active" is the
order used to pick the wallet that "walletgate connect" prompts.`,
	Example: `  walletgate providers list
  walletgate providers list -o json`,
	Args: cobra.NoArgs,
	RunE: runProvidersList,
}

// providersRegisterCmd registers a running wallet bridge.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providersRegisterCmd = &cobra.Command{
	Use:   "register <binding> <endpoint>",
	Short: "Register a wallet bridge",
	Long: `Write a bridge manifest so the wallet bridge listening at endpoint is
available under binding. The endpoint must be an http, https, ws or wss URL.

Bindings that no negotiation order includes are refused unless --force is
given, since walletgate would never query them.`,
	Example: `  walletgate providers register slush http://127.0.0.1:8645
  walletgate providers register martian http://127.0.0.1:9000 --name Martian --force`,
	Args: cobra.ExactArgs(2),
	RunE: runProvidersRegister,
}

// providersUnregisterCmd removes a bridge registration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providersUnregisterCmd = &cobra.Command{
	Use:   "unregister <binding>",
	Short: "Remove a wallet bridge registration",
	Long: `Remove the bridge manifest for binding. The wallet becomes unavailable
immediately. Removing a binding that is not registered succeeds.`,
	Example: `  walletgate providers unregister slush`,
	Args:    cobra.ExactArgs(1),
	RunE:    runProvidersUnregister,
}

// providersServeCmd runs a local development wallet behind a bridge.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providersServeCmd = &cobra.Command{
	Use:   "serve <binding>",
	Short: "Serve a local development wallet",
	Long: `Run a wallet with fixed accounts behind a JSON-RPC bridge and register it
under binding until interrupted. The registration is removed on exit.

By default the wallet approves every prompt. --preauthorized makes it behave as
if permission was granted earlier, so passive reconnection finds it. --reject
declines every prompt.`,
	Example: `  walletgate providers serve slush --account 0x1f9840a85d5af5bf1d1762f925bdaddc4201f984
  walletgate providers serve suiet --account 0xabc --preauthorized
  walletgate providers serve ethosWallet --reject`,
	Args: cobra.ExactArgs(1),
	RunE: runProvidersServe,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersRegisterCmd)
	providersCmd.AddCommand(providersUnregisterCmd)
	providersCmd.AddCommand(providersServeCmd)

	providersRegisterCmd.Flags().StringVar(&registerName, "name", "", "display name recorded in the manifest")
	providersRegisterCmd.Flags().BoolVar(&registerForce, "force", false, "register a binding no negotiation order uses")

	providersServeCmd.Flags().StringVar(&serveListen, "listen", "127.0.0.1:0", "address to listen on")
	providersServeCmd.Flags().StringArrayVar(&serveAccounts, "account", nil, "account to expose (repeatable)")
	providersServeCmd.Flags().BoolVar(&servePreauthorized, "preauthorized", false, "start with permission already granted")
	providersServeCmd.Flags().BoolVar(&serveReject, "reject", false, "decline every permission prompt")
	providersServeCmd.MarkFlagsMutuallyExclusive("preauthorized", "reject")
}

// providerEntry is one row of the provider listing.
type providerEntry struct {
	Order      int    `json:"order"`
	Binding    string `json:"binding"`
	Name       string `json:"name"`
	Priority   int    `json:"priority"`
	Present    bool   `json:"present"`
	Endpoint   string `json:"endpoint,omitempty"`
	InstallURL string `json:"install_url,omitempty"`
}

// providerListing is the JSON shape of "providers list".
type providerListing struct {
	BindingsDir string          `json:"bindings_dir"`
	Passive     []providerEntry `json:"passive"`
	Active      []providerEntry `json:"active"`
}

func runProvidersList(cmd *cobra.Command, _ []string) error {
	passive, active, err := cmdCtx.Registries()
	if err != nil {
		return err
	}
	bindings := cmdCtx.Bindings()

	listing := providerListing{
		BindingsDir: bindings.Dir(),
		Passive:     providerEntries(passive, bindings),
		Active:      providerEntries(active, bindings),
	}

	if formatter.IsJSON() {
		return formatter.Print(listing)
	}

	w := cmd.OutOrStdout()
	out(w, "Bindings directory: %s\n", listing.BindingsDir)
	for _, section := range []struct {
		title   string
		entries []providerEntry
	}{
		{"Passive reconnection order", listing.Passive},
		{"Active connection order", listing.Active},
	} {
		outln(w)
		outln(w, section.title+":")
		table := output.NewTable("#", "BINDING", "NAME", "AVAILABLE", "ENDPOINT")
		for _, e := range section.entries {
			table.AddRow(strconv.Itoa(e.Order), e.Binding, e.Name, yesNo(e.Present), e.Endpoint)
		}
		if err := table.Render(w); err != nil {
			return err
		}
	}
	return nil
}

// providerEntries resolves every descriptor of r once.
func providerEntries(r *provider.StaticRegistry, bindings *provider.DirEnvironment) []providerEntry {
	list := r.List()
	entries := make([]providerEntry, 0, len(list))
	for i, d := range list {
		_, present := r.Resolve(d)
		e := providerEntry{
			Order:      i + 1,
			Binding:    d.Binding,
			Name:       d.DisplayName(),
			Priority:   d.Priority,
			Present:    present,
			InstallURL: d.InstallURL,
		}
		if m, err := bindings.Manifest(d.Binding); err == nil {
			e.Endpoint = m.Endpoint
		}
		entries = append(entries, e)
	}
	return entries
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func runProvidersRegister(cmd *cobra.Command, args []string) error {
	binding, endpoint := args[0], args[1]

	name := registerName
	if !registerForce {
		d, err := knownDescriptor(binding)
		if err != nil {
			return gateerr.WithSuggestion(err, suggestionOr(err, "use --force to register it anyway"))
		}
		if name == "" {
			name = d.DisplayName()
		}
	}

	m := provider.Manifest{Binding: binding, Name: name, Endpoint: endpoint}
	if err := provider.RegisterBridge(cmdCtx.Cfg.BindingsDir(), m); err != nil {
		return err
	}
	cmdCtx.Logger.Info("registered bridge %s at %s", binding, endpoint)

	if formatter.IsJSON() {
		return formatter.Print(m)
	}
	out(cmd.OutOrStdout(), "Registered %s at %s\n", binding, endpoint)
	return nil
}

func runProvidersUnregister(cmd *cobra.Command, args []string) error {
	binding := args[0]
	if err := provider.UnregisterBridge(cmdCtx.Cfg.BindingsDir(), binding); err != nil {
		return err
	}
	cmdCtx.Logger.Info("unregistered bridge %s", binding)

	if formatter.IsJSON() {
		return formatter.Print(map[string]any{"binding": binding, "registered": false})
	}
	out(cmd.OutOrStdout(), "Unregistered %s\n", binding)
	return nil
}

// knownDescriptor finds binding in either negotiation order.
func knownDescriptor(binding string) (provider.Descriptor, error) {
	passive, active, err := cmdCtx.Registries()
	if err != nil {
		return provider.Descriptor{}, err
	}
	if d, err := passive.Lookup(binding); err == nil {
		return d, nil
	}
	return active.Lookup(binding)
}

// suggestionOr returns err's suggestion, or fallback when it has none.
func suggestionOr(err error, fallback string) string {
	if s := gateerr.Suggestion(err); s != "" {
		return s + " " + fallback
	}
	return fallback
}

func runProvidersServe(cmd *cobra.Command, args []string) error {
	binding := args[0]

	accounts, err := account.ParseAll(serveAccounts)
	if err != nil {
		return err
	}

	var opts []provider.StaticOption
	if servePreauthorized {
		opts = append(opts, provider.Preauthorized())
	}
	if serveReject {
		opts = append(opts, provider.RejectPrompts())
	}
	wallet := provider.NewStaticWallet(accounts, opts...)

	ctx := commandContext(cmd)
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", serveListen)
	if err != nil {
		return gateerr.WithCause(gateerr.ErrInvalidInput, err)
	}

	return serveBridge(ctx, cmd, binding, wallet, ln)
}

// serveBridge exposes wallet on ln and keeps it registered under binding
// until ctx ends.
func serveBridge(ctx context.Context, cmd *cobra.Command, binding string, wallet provider.Wallet, ln net.Listener) error {
	rpcServer, err := provider.NewBridgeServer(wallet)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer rpcServer.Stop()

	bridgeLog := cmdCtx.Logger.Named("bridge")
	srv := &http.Server{
		Handler:           rpcServer,
		ReadHeaderTimeout: bridgeReadHeaderTimeout,
		ErrorLog:          log.New(bridgeLog.Writer(config.LogLevelError), "", 0),
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	dir := cmdCtx.Cfg.BindingsDir()
	endpoint := fmt.Sprintf("http://%s", ln.Addr())
	if err := provider.RegisterBridge(dir, provider.Manifest{Binding: binding, Name: binding, Endpoint: endpoint}); err != nil {
		_ = srv.Close()
		return err
	}
	defer func() {
		if err := provider.UnregisterBridge(dir, binding); err != nil {
			bridgeLog.Error("unregistering %s: %v", binding, err)
		}
	}()

	bridgeLog.Info("serving development wallet %s at %s", binding, endpoint)
	if formatter.IsJSON() {
		f := output.NewFormatter(output.FormatJSON, cmd.OutOrStdout())
		if err := f.Print(provider.Manifest{Binding: binding, Name: binding, Endpoint: endpoint}); err != nil {
			return err
		}
	} else {
		out(cmd.OutOrStdout(), "Serving %s at %s (Ctrl-C to stop)\n", binding, endpoint)
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving bridge: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), bridgeShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stopping bridge: %w", err)
	}
	return nil
}
