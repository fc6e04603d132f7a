package cli

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/walletgate/internal/account"
	"github.com/mrz1836/walletgate/internal/output"
	"github.com/mrz1836/walletgate/internal/provider"
	"github.com/mrz1836/walletgate/internal/provider/providertest"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// NOT parallel: command handlers share package-level globals.

func TestRunProvidersList_Text(t *testing.T) {
	env := setupCLI(t, output.FormatText)
	env.wallets.Inject(provider.BindingSuiet, providertest.Fresh())

	require.NoError(t, runProvidersList(env.command(), nil))

	got := env.out.String()
	assert.Contains(t, got, "Bindings directory: "+filepath.Join(cfg.HomeDir(), "bindings"))
	assert.Contains(t, got, "Passive reconnection order:")
	assert.Contains(t, got, "Active connection order:")

	var suietRows int
	for _, line := range strings.Split(got, "\n") {
		if strings.Contains(line, "suiet ") {
			suietRows++
			assert.Contains(t, line, "yes")
		}
		if strings.Contains(line, "slush ") {
			assert.Contains(t, line, " no")
		}
	}
	assert.Equal(t, 2, suietRows, "listed once per order")
}

func TestRunProvidersList_JSONLegacy(t *testing.T) {
	env := setupCLI(t, output.FormatJSON)
	cfg.Providers.LegacyOrder = true

	require.NoError(t, runProvidersList(env.command(), nil))

	var got providerListing
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &got))

	bindings := func(entries []providerEntry) []string {
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = e.Binding
		}
		return out
	}
	assert.Equal(t, []string{"slush", "suiWallet", "suiet"}, bindings(got.Passive))
	assert.Equal(t, []string{"slush", "suiet", "ethosWallet"}, bindings(got.Active))
	assert.Equal(t, 1, got.Active[0].Order)
	assert.False(t, got.Active[0].Present)
	assert.Equal(t, "https://slush.app", got.Active[0].InstallURL)
}

func TestRunProvidersRegister(t *testing.T) {
	env := setupCLI(t, output.FormatText)

	require.NoError(t, runProvidersRegister(env.command(), []string{"slush", "http://127.0.0.1:8645"}))
	assert.Contains(t, env.out.String(), "Registered slush at http://127.0.0.1:8645")

	m, err := cmdCtx.Bindings().Manifest("slush")
	require.NoError(t, err)
	assert.Equal(t, provider.Manifest{Binding: "slush", Name: "Slush", Endpoint: "http://127.0.0.1:8645"}, m)

	env.out.Reset()
	require.NoError(t, runProvidersList(env.command(), nil))
	assert.Contains(t, env.out.String(), "http://127.0.0.1:8645")

	env.out.Reset()
	require.NoError(t, runProvidersUnregister(env.command(), []string{"slush"}))
	assert.Contains(t, env.out.String(), "Unregistered slush")
	_, err = os.Stat(filepath.Join(cfg.BindingsDir(), "slush.json"))
	assert.True(t, os.IsNotExist(err))

	// unregistering twice is fine
	require.NoError(t, runProvidersUnregister(env.command(), []string{"slush"}))
}

func TestRunProvidersRegister_Errors(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		force      bool
		target     error
		suggestion string
	}{
		{"typo of a known binding", []string{"slsh", "http://127.0.0.1:1"}, false, gateerr.ErrUnknownProvider, `did you mean "slush"?`},
		{"unknown binding", []string{"martianWallet", "http://127.0.0.1:1"}, false, gateerr.ErrUnknownProvider, "--force"},
		{"bad endpoint scheme", []string{"slush", "ftp://127.0.0.1:1"}, false, gateerr.ErrInvalidInput, ""},
		{"unsafe binding name", []string{"../slush", "http://127.0.0.1:1"}, true, gateerr.ErrInvalidInput, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupCLI(t, output.FormatText)
			registerForce = tt.force

			err := runProvidersRegister(env.command(), tt.args)
			require.ErrorIs(t, err, tt.target)
			assert.Contains(t, gateerr.Suggestion(err), tt.suggestion)
		})
	}
}

func TestRunProvidersRegister_Force(t *testing.T) {
	env := setupCLI(t, output.FormatText)
	registerForce = true
	registerName = "Martian"

	require.NoError(t, runProvidersRegister(env.command(), []string{"martianWallet", "http://127.0.0.1:9000"}))

	m, err := cmdCtx.Bindings().Manifest("martianWallet")
	require.NoError(t, err)
	assert.Equal(t, "Martian", m.Name)
}

// TestServeBridge_ConnectOverRPC runs a development wallet behind a bridge
// and connects to it through the bindings directory alone.
func TestServeBridge_ConnectOverRPC(t *testing.T) {
	env := setupCLI(t, output.FormatText)
	cmdCtx.WithEnvironment(nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	wallet := provider.NewStaticWallet([]account.Account{"0xC0FFEE"})
	ctx, cancel := context.WithCancel(context.Background())
	serveOut := env.command()
	serveOut.SetOut(new(strings.Builder))

	served := make(chan error, 1)
	go func() {
		served <- serveBridge(ctx, serveOut, provider.BindingSlush, wallet, ln)
	}()

	manifest := filepath.Join(cfg.BindingsDir(), "slush.json")
	require.Eventually(t, func() bool {
		_, statErr := os.Stat(manifest)
		return statErr == nil
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, runConnect(env.command(), nil))
	assert.Contains(t, env.out.String(), "0xC0FFEE")

	// the wallet now holds permission, so a fresh status restores silently
	env.out.Reset()
	require.NoError(t, runStatus(env.command(), nil))
	assert.Contains(t, env.out.String(), "Connected to slush")

	cancel()
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("bridge did not stop")
	}
	_, err = os.Stat(manifest)
	assert.True(t, os.IsNotExist(err), "registration removed on exit")
}

func TestServeBridge_RejectingWallet(t *testing.T) {
	env := setupCLI(t, output.FormatJSON)
	cmdCtx.WithEnvironment(nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	wallet := provider.NewStaticWallet([]account.Account{"0xAA"}, provider.RejectPrompts())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveOut := env.command()
	serveOut.SetOut(new(strings.Builder))
	served := make(chan error, 1)
	go func() {
		served <- serveBridge(ctx, serveOut, provider.BindingSuiet, wallet, ln)
	}()

	require.Eventually(t, func() bool {
		_, ok := cmdCtx.Bindings().Lookup(provider.BindingSuiet)
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	err = runConnect(env.command(), nil)
	require.ErrorIs(t, err, gateerr.ErrUserRejected, "code 4001 crosses the bridge as a rejection")
	assert.Equal(t, gateerr.ExitRejected, ExitCode(err))

	cancel()
	require.NoError(t, <-served)
}
