package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/walletgate/internal/output"
	"github.com/mrz1836/walletgate/internal/provider"
	"github.com/mrz1836/walletgate/internal/provider/providertest"
	"github.com/mrz1836/walletgate/internal/session"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// NOT parallel: command handlers share package-level globals.

func TestRunStatus(t *testing.T) {
	tests := []struct {
		name    string
		wait    bool
		wallet  *providertest.Wallet
		want    string
		prompts int
	}{
		{"permitted wallet restores", false, providertest.Authorized("0xAA"), "Connected to slush\n   Account: 0xAA\n", 0},
		{"permitted wallet after startup delay", true, providertest.Authorized("0xAA"), "Connected to slush\n   Account: 0xAA\n", 0},
		{"fresh wallet is never prompted", false, providertest.Fresh("0xAA"), "Not connected (disconnected)\n", 0},
		{"no wallet", false, nil, "Not connected (disconnected)\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupCLI(t, output.FormatText)
			statusWait = tt.wait
			if tt.wallet != nil {
				env.wallets.Inject(provider.BindingSlush, tt.wallet)
			}

			require.NoError(t, runStatus(env.command(), nil))
			assert.Equal(t, tt.want, env.out.String())
			if tt.wallet != nil {
				assert.Equal(t, tt.prompts, tt.wallet.Calls(providertest.RequestPermissions))
			}
		})
	}
}

func TestRunStatus_JSON(t *testing.T) {
	env := setupCLI(t, output.FormatJSON)
	env.wallets.Inject(provider.BindingEthos, providertest.Authorized("0xEE"))

	require.NoError(t, runStatus(env.command(), nil))

	var got map[string]any
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &got))
	assert.Equal(t, true, got["connected"])
	assert.Equal(t, "connected", got["state"])
	assert.Equal(t, "0xEE", got["account"])
	assert.Equal(t, provider.BindingEthos, got["binding"])
}

func TestStatusBudget(t *testing.T) {
	setupCLI(t, output.FormatText)

	// four passive providers, two 2s calls each, plus slack
	assert.Equal(t, 17*1000, int(statusBudget(false).Milliseconds()))
	assert.Equal(t, 17*1000+10, int(statusBudget(true).Milliseconds()))
}

func TestRunDisconnect(t *testing.T) {
	env := setupCLI(t, output.FormatText)
	w := providertest.Authorized("0xAA")
	env.wallets.Inject(provider.BindingSlush, w)

	require.NoError(t, runDisconnect(env.command(), nil))
	assert.Contains(t, env.out.String(), "Disconnected from slush.")

	rec, err := cmdCtx.Store().Load()
	require.NoError(t, err)
	assert.True(t, rec.UserDisconnected)
	assert.Equal(t, int64(1), env.metrics.Snapshot().Disconnects)
}

func TestRunDisconnect_NotConnected(t *testing.T) {
	env := setupCLI(t, output.FormatText)

	err := runDisconnect(env.command(), nil)
	require.ErrorIs(t, err, gateerr.ErrNotConnected)
	assert.Equal(t, gateerr.ExitNotFound, ExitCode(err))
	assert.Contains(t, gateerr.Suggestion(err), "walletgate status")
	assert.Empty(t, env.out.String())
}

func TestRunDisconnect_JSON(t *testing.T) {
	env := setupCLI(t, output.FormatJSON)
	env.wallets.Inject(provider.BindingSlush, providertest.Authorized("0xAA"))

	require.NoError(t, runDisconnect(env.command(), nil))

	var got disconnectResult
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &got))
	assert.Equal(t, disconnectResult{Disconnected: true, Binding: provider.BindingSlush, Account: "0xAA"}, got)
}

// TestSessionLifecycle walks connect, disconnect, and reconnect across
// separate command runs sharing one home directory, the way separate CLI
// invocations would.
func TestSessionLifecycle(t *testing.T) {
	env := setupCLI(t, output.FormatText)
	w := providertest.Authorized("0xAA")
	env.wallets.Inject(provider.BindingSlush, w)

	status := func() string {
		env.out.Reset()
		require.NoError(t, runStatus(env.command(), nil))
		return env.out.String()
	}

	assert.Contains(t, status(), "Connected to slush")

	require.NoError(t, runDisconnect(env.command(), nil))
	assert.Contains(t, status(), "Not connected", "disconnect suppresses passive reconnection")
	assert.Contains(t, status(), "Not connected", "and keeps suppressing it")

	env.out.Reset()
	require.NoError(t, runConnect(env.command(), nil))
	assert.Equal(t, 1, w.Calls(providertest.RequestPermissions), "connect after disconnect prompts")

	assert.Contains(t, status(), "Connected to slush", "a successful connect lifts the disconnect")

	rec, err := session.NewFileStore(session.Path(cfg.HomeDir())).Load()
	require.NoError(t, err)
	assert.False(t, rec.UserDisconnected)
	assert.Equal(t, session.OriginPassive, rec.Origin)
}
