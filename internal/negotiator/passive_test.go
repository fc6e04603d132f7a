package negotiator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/walletgate/internal/account"
	"github.com/mrz1836/walletgate/internal/negotiator"
	"github.com/mrz1836/walletgate/internal/provider"
	"github.com/mrz1836/walletgate/internal/provider/providertest"
	"github.com/mrz1836/walletgate/internal/session"
)

var errBridgeDown = errors.New("bridge down")

func TestReconnect_DecliningProvidersAreSkipped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		decline func() *providertest.Wallet
	}{
		{"no permission", func() *providertest.Wallet {
			w := providertest.Authorized("0xAA")
			w.Permitted = false
			return w
		}},
		{"permission check error", func() *providertest.Wallet {
			w := providertest.Authorized("0xAA")
			w.HasPermissionsErr = errBridgeDown
			return w
		}},
		{"permission check panic", func() *providertest.Wallet {
			w := providertest.Authorized("0xAA")
			w.PanicIn = providertest.HasPermissions
			return w
		}},
		{"accounts error", func() *providertest.Wallet {
			w := providertest.Authorized("0xAA")
			w.GetAccountsErr = errBridgeDown
			return w
		}},
		{"accounts panic", func() *providertest.Wallet {
			w := providertest.Authorized("0xAA")
			w.PanicIn = providertest.GetAccounts
			return w
		}},
		{"no accounts", func() *providertest.Wallet {
			return providertest.Authorized()
		}},
		{"malformed account", func() *providertest.Wallet {
			return providertest.Authorized("   ")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bad := tt.decline()
			good := providertest.Authorized("0xEE")
			h := newHarness(t, map[string]provider.Wallet{
				provider.BindingSlush: bad,
				provider.BindingSuiet: good,
			})

			s, ok := h.n.Reconnect(context.Background())
			require.True(t, ok)
			assert.Equal(t, provider.BindingSuiet, s.Binding)
			assert.Equal(t, account.Account("0xEE"), s.Account)
			assert.Zero(t, bad.Calls(providertest.RequestPermissions))
		})
	}
}

func TestReconnect_NothingPermittedStaysDisconnected(t *testing.T) {
	t.Parallel()
	a := providertest.Fresh("0xAA")
	b := providertest.Authorized("0xBB")
	b.HasPermissionsErr = errBridgeDown
	h := newHarness(t, map[string]provider.Wallet{
		provider.BindingSlush: a,
		provider.BindingEthos: b,
	})

	s, ok := h.n.Reconnect(context.Background())
	assert.False(t, ok)
	assert.Nil(t, s)
	assert.Equal(t, session.Disconnected, h.n.State())
	assert.Equal(t, session.View{State: session.Disconnected}, h.n.View())

	snap := h.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.PassiveScans)
	assert.Zero(t, snap.PassiveHits)
	assert.Equal(t, int64(2), snap.ProviderCalls)
	assert.Equal(t, int64(1), snap.ProviderErrors)
}

func TestReconnect_PanicIsCounted(t *testing.T) {
	t.Parallel()
	w := providertest.Authorized("0xAA")
	w.PanicIn = providertest.HasPermissions
	h := newHarness(t, map[string]provider.Wallet{provider.BindingSlush: w})

	_, ok := h.n.Reconnect(context.Background())
	assert.False(t, ok)
	assert.Equal(t, int64(1), h.metrics.Snapshot().ProviderPanics)
}

func TestReconnect_Idempotent(t *testing.T) {
	t.Parallel()
	w := providertest.Authorized("0xAA")
	h := newHarness(t, map[string]provider.Wallet{provider.BindingSlush: w})

	first, ok := h.n.Reconnect(context.Background())
	require.True(t, ok)
	second, ok := h.n.Reconnect(context.Background())
	require.True(t, ok)

	assert.Same(t, first, second)
	assert.Equal(t, 1, w.Calls(providertest.HasPermissions))
}

func TestReconnect_IdempotentWhenDisconnected(t *testing.T) {
	t.Parallel()
	h := newHarness(t, map[string]provider.Wallet{provider.BindingSlush: providertest.Fresh("0xAA")})

	for range 2 {
		s, ok := h.n.Reconnect(context.Background())
		assert.False(t, ok)
		assert.Nil(t, s)
		assert.Equal(t, session.Disconnected, h.n.State())
	}
}

func TestReconnect_NeverDegradesEstablishedSession(t *testing.T) {
	t.Parallel()
	w := providertest.Fresh("0xCC")
	h := newHarness(t, map[string]provider.Wallet{provider.BindingSlush: w})

	res, err := h.n.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, res.Connected())

	// The wallet disappears and a different one with permission shows up.
	h.env.Remove(provider.BindingSlush)
	h.env.Inject(provider.BindingSuiet, providertest.Authorized("0xFF"))

	s, ok := h.n.Reconnect(context.Background())
	require.True(t, ok)
	assert.Same(t, res.Session, s)
	assert.Equal(t, session.Connected, h.n.State())
}

func TestReconnect_CallTimeoutContainsStalledProvider(t *testing.T) {
	t.Parallel()
	good := providertest.Authorized("0xEE")
	h := newHarness(t, map[string]provider.Wallet{
		provider.BindingSlush: newStallWallet(t),
		provider.BindingSuiet: good,
	}, negotiator.WithCallTimeout(20*time.Millisecond))

	s, ok := h.n.Reconnect(context.Background())
	require.True(t, ok)
	assert.Equal(t, provider.BindingSuiet, s.Binding)
}

func TestReconnect_CanceledContext(t *testing.T) {
	t.Parallel()
	w := providertest.Authorized("0xAA")
	h := newHarness(t, map[string]provider.Wallet{provider.BindingSlush: w})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := h.n.Reconnect(ctx)
	assert.False(t, ok)
	assert.Zero(t, w.TotalCalls())
}

func TestReconnect_SkippedWhileConnecting(t *testing.T) {
	t.Parallel()
	prompt := providertest.Blocking("0xAA")
	passive := providertest.Authorized("0xBB")
	h := newHarness(t, map[string]provider.Wallet{
		provider.BindingSlush: prompt,
		provider.BindingSuiet: passive,
	})

	done := connectAsync(context.Background(), h.n)
	waitEntered(t, prompt.Entered)

	s, ok := h.n.Reconnect(context.Background())
	assert.False(t, ok)
	assert.Nil(t, s)
	assert.Zero(t, passive.TotalCalls())
	assert.Equal(t, session.Connecting, h.n.State())

	close(prompt.Gate)
	res := waitResult(t, done)
	assert.Equal(t, negotiator.OutcomeConnected, res.Outcome)
	assert.Equal(t, account.Account("0xAA"), h.n.Session().Account)
}

func TestReconnect_ResolvesEveryTime(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	_, ok := h.n.Reconnect(context.Background())
	require.False(t, ok)

	// A wallet registering after the first scan is found by the next one.
	h.env.Inject(provider.BindingSuiWallet, providertest.Authorized("0x5u1"))
	s, ok := h.n.Reconnect(context.Background())
	require.True(t, ok)
	assert.Equal(t, provider.BindingSuiWallet, s.Binding)
}

func TestStart_RunsPassiveReconnectAfterDelay(t *testing.T) {
	t.Parallel()
	w := providertest.Authorized("0xAA")
	h := newHarness(t, map[string]provider.Wallet{provider.BindingSlush: w},
		negotiator.WithStartupDelay(10*time.Millisecond))

	select {
	case <-h.n.Start(context.Background()):
	case <-time.After(5 * time.Second):
		t.Fatal("start did not finish")
	}
	assert.Equal(t, session.Connected, h.n.State())
	assert.Equal(t, account.Account("0xAA"), h.n.View().Account)
}

func TestStart_CanceledBeforeDelay(t *testing.T) {
	t.Parallel()
	w := providertest.Authorized("0xAA")
	h := newHarness(t, map[string]provider.Wallet{provider.BindingSlush: w},
		negotiator.WithStartupDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := h.n.Start(ctx)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("start ignored cancellation")
	}
	assert.Zero(t, w.TotalCalls())
	assert.Equal(t, session.Disconnected, h.n.State())
}
