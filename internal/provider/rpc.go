package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mrz1836/walletgate/internal/account"
)

// JSON-RPC methods served by wallet bridges.
const (
	MethodHasPermissions     = "wallet_hasPermissions"
	MethodGetAccounts        = "wallet_getAccounts"
	MethodRequestPermissions = "wallet_requestPermissions"
)

// Compile-time interface check
var _ Wallet = (*RPCWallet)(nil)

// RPCWallet talks to a wallet bridge over JSON-RPC. Each call dials, calls and
// closes, so a handle holds no connection between calls and stays valid when
// the bridge restarts.
type RPCWallet struct {
	binding  string
	endpoint string
	limiter  *RateLimiter
	retry    RetryConfig
}

// RPCOption configures an RPCWallet.
type RPCOption func(*RPCWallet)

// WithRateLimiter throttles non-prompting calls through l.
func WithRateLimiter(l *RateLimiter) RPCOption {
	return func(w *RPCWallet) {
		w.limiter = l
	}
}

// WithRetryConfig sets the retry policy for non-prompting calls.
func WithRetryConfig(cfg RetryConfig) RPCOption {
	return func(w *RPCWallet) {
		w.retry = cfg
	}
}

// NewRPCWallet creates a bridge client for binding at endpoint.
func NewRPCWallet(binding, endpoint string, opts ...RPCOption) *RPCWallet {
	w := &RPCWallet{
		binding:  binding,
		endpoint: endpoint,
		retry:    DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Binding returns the binding this wallet was registered under.
func (w *RPCWallet) Binding() string {
	return w.binding
}

// Endpoint returns the bridge endpoint URL.
func (w *RPCWallet) Endpoint() string {
	return w.endpoint
}

// HasPermissions asks the bridge whether this origin is already authorized.
func (w *RPCWallet) HasPermissions(ctx context.Context) (bool, error) {
	return Retry(ctx, w.retry, func() (bool, error) {
		var ok bool
		err := w.call(ctx, true, &ok, MethodHasPermissions)
		return ok, err
	})
}

// GetAccounts lists the accounts this origin is authorized for.
func (w *RPCWallet) GetAccounts(ctx context.Context) ([]account.Account, error) {
	raw, err := Retry(ctx, w.retry, func() ([]string, error) {
		var accounts []string
		err := w.call(ctx, true, &accounts, MethodGetAccounts)
		return accounts, err
	})
	if err != nil {
		return nil, err
	}
	return account.FromStrings(raw), nil
}

// RequestPermissions asks the bridge to prompt the user. It is attempted once.
func (w *RPCWallet) RequestPermissions(ctx context.Context) (PermissionResult, error) {
	var reply permissionReply
	if err := w.call(ctx, false, &reply, MethodRequestPermissions); err != nil {
		return PermissionResult{}, err
	}
	return PermissionResult{Accounts: account.FromStrings(reply.Accounts)}, nil
}

// call performs one JSON-RPC round trip. Transport failures are marked
// retryable; errors returned by the wallet itself are not.
func (w *RPCWallet) call(ctx context.Context, throttled bool, result any, method string) error {
	if throttled && w.limiter != nil {
		if err := w.limiter.Wait(ctx, w.endpoint); err != nil {
			return fmt.Errorf("%s: waiting for rate limiter: %w", w.binding, err)
		}
	}

	client, err := rpc.DialContext(ctx, w.endpoint)
	if err != nil {
		return MarkRetryable(fmt.Errorf("%s: dialing bridge: %w", w.binding, err))
	}
	defer client.Close()

	if err := client.CallContext(ctx, result, method); err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) || ctx.Err() != nil {
			return fmt.Errorf("%s: %s: %w", w.binding, method, err)
		}
		return MarkRetryable(fmt.Errorf("%s: %s: %w", w.binding, method, err))
	}
	return nil
}

// permissionReply is the wire form of PermissionResult.
type permissionReply struct {
	Accounts []string `json:"accounts"`
}
