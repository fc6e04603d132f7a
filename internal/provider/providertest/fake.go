// Package providertest provides a scriptable in-memory wallet for tests of
// code that negotiates with providers.
package providertest

import (
	"context"
	"errors"
	"sync"

	"github.com/mrz1836/walletgate/internal/account"
	"github.com/mrz1836/walletgate/internal/provider"
)

// Method names recorded by Wallet.
const (
	HasPermissions     = "HasPermissions"
	GetAccounts        = "GetAccounts"
	RequestPermissions = "RequestPermissions"
)

// ErrRejected is the error wallets commonly throw when the user closes the
// prompt.
var ErrRejected = errors.New("User rejected the request")

// Compile-time interface check
var _ provider.Wallet = (*Wallet)(nil)

// Wallet is a fake provider. Configure the exported fields before handing it
// to the code under test.
type Wallet struct {
	// Permitted is returned by HasPermissions.
	Permitted bool
	// Accounts is returned by GetAccounts.
	Accounts []account.Account
	// Granted is returned by RequestPermissions.
	Granted []account.Account

	HasPermissionsErr     error
	GetAccountsErr        error
	RequestPermissionsErr error

	// PanicIn names a method that panics instead of returning.
	PanicIn string
	// PanicValue is the value PanicIn panics with. Defaults to a fixed
	// message naming the method.
	PanicValue any

	// Gate, when non-nil, makes RequestPermissions block until it is closed
	// or the context ends. Entered receives one value per blocked call.
	Gate    chan struct{}
	Entered chan struct{}

	mu    sync.Mutex
	calls map[string]int
}

// Authorized returns a wallet that already holds permission for accounts and
// grants the same accounts when prompted.
func Authorized(accounts ...string) *Wallet {
	list := toAccounts(accounts)
	return &Wallet{Permitted: true, Accounts: list, Granted: list}
}

// Fresh returns a wallet with no prior permission that grants accounts when
// prompted.
func Fresh(accounts ...string) *Wallet {
	return &Wallet{Granted: toAccounts(accounts)}
}

// Rejecting returns a wallet whose prompt fails with ErrRejected.
func Rejecting() *Wallet {
	return &Wallet{RequestPermissionsErr: ErrRejected}
}

// Blocking returns a wallet whose prompt waits for the Gate to close before
// granting accounts.
func Blocking(accounts ...string) *Wallet {
	w := Fresh(accounts...)
	w.Gate = make(chan struct{})
	w.Entered = make(chan struct{}, 16)
	return w
}

// HasPermissions implements provider.Wallet.
func (w *Wallet) HasPermissions(_ context.Context) (bool, error) {
	w.record(HasPermissions)
	if w.HasPermissionsErr != nil {
		return false, w.HasPermissionsErr
	}
	return w.Permitted, nil
}

// GetAccounts implements provider.Wallet.
func (w *Wallet) GetAccounts(_ context.Context) ([]account.Account, error) {
	w.record(GetAccounts)
	if w.GetAccountsErr != nil {
		return nil, w.GetAccountsErr
	}
	return append([]account.Account(nil), w.Accounts...), nil
}

// RequestPermissions implements provider.Wallet.
func (w *Wallet) RequestPermissions(ctx context.Context) (provider.PermissionResult, error) {
	w.record(RequestPermissions)
	if w.Gate != nil {
		if w.Entered != nil {
			w.Entered <- struct{}{}
		}
		select {
		case <-w.Gate:
		case <-ctx.Done():
			return provider.PermissionResult{}, ctx.Err()
		}
	}
	if w.RequestPermissionsErr != nil {
		return provider.PermissionResult{}, w.RequestPermissionsErr
	}
	return provider.PermissionResult{Accounts: append([]account.Account(nil), w.Granted...)}, nil
}

// Calls returns how many times method was invoked.
func (w *Wallet) Calls(method string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (w *Wallet) TotalCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := 0
	for _, n := range w.calls {
		total += n
	}
	return total
}

func (w *Wallet) record(method string) {
	w.mu.Lock()
	if w.calls == nil {
		w.calls = make(map[string]int)
	}
	w.calls[method]++
	panicking := w.PanicIn == method
	value := w.PanicValue
	w.mu.Unlock()

	if panicking {
		if value == nil {
			value = "providertest: " + method + " exploded"
		}
		panic(value)
	}
}

func toAccounts(raw []string) []account.Account {
	out := make([]account.Account, len(raw))
	for i, r := range raw {
		out[i] = account.Account(r)
	}
	return out
}
