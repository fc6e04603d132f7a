package negotiator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrz1836/walletgate/internal/account"
	"github.com/mrz1836/walletgate/internal/metrics"
	"github.com/mrz1836/walletgate/internal/negotiator"
	"github.com/mrz1836/walletgate/internal/provider"
)

// harness wires a negotiator to an in-memory environment over the default
// provider list.
type harness struct {
	env     *provider.MapEnvironment
	metrics *metrics.Metrics
	n       *negotiator.Negotiator
}

func newHarness(t *testing.T, wallets map[string]provider.Wallet, opts ...negotiator.Option) *harness {
	t.Helper()

	env := provider.NewMapEnvironment(wallets)
	reg, err := provider.NewRegistry(env, provider.DefaultDescriptors()...)
	require.NoError(t, err)

	m := &metrics.Metrics{}
	opts = append([]negotiator.Option{
		negotiator.WithMetrics(m),
		negotiator.WithStartupDelay(0),
	}, opts...)

	n, err := negotiator.New(reg, opts...)
	require.NoError(t, err)
	return &harness{env: env, metrics: m, n: n}
}

// stallWallet blocks in its non-prompting calls until release is closed,
// ignoring its context.
type stallWallet struct {
	release chan struct{}
}

func newStallWallet(t *testing.T) *stallWallet {
	t.Helper()
	w := &stallWallet{release: make(chan struct{})}
	t.Cleanup(func() { close(w.release) })
	return w
}

func (s *stallWallet) HasPermissions(context.Context) (bool, error) {
	<-s.release
	return true, nil
}

func (s *stallWallet) GetAccounts(context.Context) ([]account.Account, error) {
	<-s.release
	return []account.Account{"0x57a11"}, nil
}

func (s *stallWallet) RequestPermissions(context.Context) (provider.PermissionResult, error) {
	<-s.release
	return provider.PermissionResult{Accounts: []account.Account{"0x57a11"}}, nil
}

// connectAsync runs Connect on a goroutine.
func connectAsync(ctx context.Context, n *negotiator.Negotiator) <-chan negotiator.Result {
	out := make(chan negotiator.Result, 1)
	go func() {
		res, _ := n.Connect(ctx)
		out <- res
	}()
	return out
}

func waitEntered(t *testing.T, entered <-chan struct{}) {
	t.Helper()
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("provider prompt was never entered")
	}
}

func waitResult(t *testing.T, ch <-chan negotiator.Result) negotiator.Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("connect did not finish")
		return negotiator.Result{}
	}
}
