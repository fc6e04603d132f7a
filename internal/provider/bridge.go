package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mrz1836/walletgate/internal/account"
	"github.com/mrz1836/walletgate/internal/fileutil"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

const (
	manifestExtension   = ".json"
	manifestPermissions = 0o600
)

// bindingNameRegex restricts binding names to safe file names.
var bindingNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Manifest is the registration file a wallet bridge drops into the bindings
// directory while it is running.
type Manifest struct {
	Binding  string `json:"binding"`
	Name     string `json:"name,omitempty"`
	Endpoint string `json:"endpoint"`
}

// Validate checks the manifest is usable.
func (m Manifest) Validate() error {
	if !bindingNameRegex.MatchString(m.Binding) {
		return gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{"binding": m.Binding})
	}
	u, err := url.Parse(m.Endpoint)
	if err != nil {
		return gateerr.WithCause(gateerr.ErrInvalidInput, err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{
			"endpoint": m.Endpoint,
			"reason":   "scheme must be http, https, ws or wss",
		})
	}
	if u.Host == "" {
		return gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{"endpoint": m.Endpoint, "reason": "missing host"})
	}
	return nil
}

// Compile-time interface check
var _ Environment = (*DirEnvironment)(nil)

// DirEnvironment resolves bindings from manifests in a directory. Presence is
// re-read on every lookup, so bridges can come and go while walletgate runs.
type DirEnvironment struct {
	dir  string
	opts []RPCOption
}

// NewDirEnvironment creates an environment over dir. All wallets it hands out
// share one rate limiter unless opts override it.
func NewDirEnvironment(dir string, opts ...RPCOption) *DirEnvironment {
	all := append([]RPCOption{WithRateLimiter(DefaultRateLimiter())}, opts...)
	return &DirEnvironment{dir: dir, opts: all}
}

// Dir returns the bindings directory.
func (e *DirEnvironment) Dir() string {
	return e.dir
}

// Lookup returns an RPC wallet for binding if a valid manifest is present.
func (e *DirEnvironment) Lookup(binding string) (Wallet, bool) {
	m, err := e.Manifest(binding)
	if err != nil {
		return nil, false
	}
	return NewRPCWallet(m.Binding, m.Endpoint, e.opts...), true
}

// Manifest reads and validates the manifest for binding.
func (e *DirEnvironment) Manifest(binding string) (Manifest, error) {
	if !bindingNameRegex.MatchString(binding) {
		return Manifest{}, gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{"binding": binding})
	}

	var m Manifest
	if err := fileutil.ReadJSON(manifestPath(e.dir, binding), &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, gateerr.WithDetails(gateerr.ErrProviderAbsent, map[string]string{"binding": binding})
		}
		return Manifest{}, err
	}
	if m.Binding != binding {
		return Manifest{}, gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{
			"binding":  binding,
			"manifest": m.Binding,
		})
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Manifests returns every valid manifest in the directory, sorted by binding.
// Invalid files are skipped.
func (e *DirEnvironment) Manifests() ([]Manifest, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading bindings directory: %w", err)
	}

	var out []Manifest
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, manifestExtension) {
			continue
		}
		m, err := e.Manifest(strings.TrimSuffix(name, manifestExtension))
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b Manifest) int { return strings.Compare(a.Binding, b.Binding) })
	return out, nil
}

// RegisterBridge writes m into dir, replacing any previous registration.
func RegisterBridge(dir string, m Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return fileutil.WriteJSON(manifestPath(dir, m.Binding), m, manifestPermissions)
}

// UnregisterBridge removes the registration for binding. Removing a binding
// that is not registered is not an error.
func UnregisterBridge(dir, binding string) error {
	if !bindingNameRegex.MatchString(binding) {
		return gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{"binding": binding})
	}
	if err := os.Remove(manifestPath(dir, binding)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing manifest: %w", err)
	}
	return nil
}

func manifestPath(dir, binding string) string {
	return filepath.Join(dir, binding+manifestExtension)
}

// NewBridgeServer exposes w over JSON-RPC under the "wallet" namespace. The
// returned server is an http.Handler; wallet hosts mount it and then call
// RegisterBridge with its URL.
func NewBridgeServer(w Wallet) (*rpc.Server, error) {
	if w == nil {
		return nil, gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{"reason": "nil wallet"})
	}
	server := rpc.NewServer()
	if err := server.RegisterName("wallet", &bridgeService{wallet: w}); err != nil {
		return nil, fmt.Errorf("registering wallet service: %w", err)
	}
	return server, nil
}

// bridgeService adapts a Wallet to go-ethereum's RPC method conventions.
type bridgeService struct {
	wallet Wallet
}

func (s *bridgeService) HasPermissions(ctx context.Context) (bool, error) {
	return s.wallet.HasPermissions(ctx)
}

func (s *bridgeService) GetAccounts(ctx context.Context) ([]string, error) {
	accounts, err := s.wallet.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return accountStrings(accounts), nil
}

func (s *bridgeService) RequestPermissions(ctx context.Context) (permissionReply, error) {
	res, err := s.wallet.RequestPermissions(ctx)
	if err != nil {
		if IsUserRejection(err) {
			return permissionReply{}, &codedError{code: UserRejectedCode, msg: err.Error()}
		}
		return permissionReply{}, err
	}
	return permissionReply{Accounts: accountStrings(res.Accounts)}, nil
}

func accountStrings(accounts []account.Account) []string {
	out := make([]string, len(accounts))
	for i, a := range accounts {
		out[i] = a.String()
	}
	return out
}
