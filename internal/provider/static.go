package provider

import (
	"context"
	"slices"
	"sync"

	"github.com/mrz1836/walletgate/internal/account"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// Compile-time interface check
var _ Wallet = (*StaticWallet)(nil)

// StaticWallet is a Wallet over a fixed account list. It answers prompts
// itself, which makes it useful for local bridges and demos.
type StaticWallet struct {
	mu        sync.Mutex
	accounts  []account.Account
	permitted bool
	reject    bool
}

// StaticOption configures a StaticWallet.
type StaticOption func(*StaticWallet)

// Preauthorized marks the wallet as already permitted, as if the user had
// approved an earlier prompt.
func Preauthorized() StaticOption {
	return func(w *StaticWallet) { w.permitted = true }
}

// RejectPrompts makes every RequestPermissions call fail as a user rejection.
func RejectPrompts() StaticOption {
	return func(w *StaticWallet) { w.reject = true }
}

// NewStaticWallet creates a wallet exposing accounts.
func NewStaticWallet(accounts []account.Account, opts ...StaticOption) *StaticWallet {
	w := &StaticWallet{accounts: slices.Clone(accounts)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HasPermissions reports whether a prompt has been approved.
func (w *StaticWallet) HasPermissions(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.permitted, nil
}

// GetAccounts returns the accounts once permission is held, and nothing
// before that.
func (w *StaticWallet) GetAccounts(ctx context.Context) ([]account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.permitted {
		return nil, nil
	}
	return slices.Clone(w.accounts), nil
}

// RequestPermissions approves immediately unless the wallet rejects prompts.
func (w *StaticWallet) RequestPermissions(ctx context.Context) (PermissionResult, error) {
	if err := ctx.Err(); err != nil {
		return PermissionResult{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reject {
		return PermissionResult{}, gateerr.ErrUserRejected
	}
	w.permitted = true
	return PermissionResult{Accounts: slices.Clone(w.accounts)}, nil
}

// Revoke drops the permission, as a user would from the wallet's settings.
func (w *StaticWallet) Revoke() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.permitted = false
}
