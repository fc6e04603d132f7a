// Package provider models the injected wallet providers walletgate negotiates
// with: the static list of known bindings, the environment they are looked up
// in, and the capability interface every provider exposes.
package provider

import (
	"context"

	"github.com/mrz1836/walletgate/internal/account"
)

// Well-known binding names injected by supported wallets.
const (
	BindingSlush     = "slush"
	BindingSuiWallet = "suiWallet"
	BindingSuiet     = "suiet"
	BindingEthos     = "ethosWallet"
)

// Wallet is the capability surface of an injected wallet provider.
// HasPermissions and GetAccounts never prompt the user. RequestPermissions may
// show a prompt and can block for as long as the user takes to answer.
type Wallet interface {
	HasPermissions(ctx context.Context) (bool, error)
	GetAccounts(ctx context.Context) ([]account.Account, error)
	RequestPermissions(ctx context.Context) (PermissionResult, error)
}

// PermissionResult is the answer to one RequestPermissions call.
type PermissionResult struct {
	Accounts []account.Account `json:"accounts"`
}

// Descriptor identifies one known provider binding.
type Descriptor struct {
	Binding    string `json:"binding" yaml:"binding"`
	Name       string `json:"name" yaml:"name"`
	Priority   int    `json:"priority" yaml:"priority"`
	InstallURL string `json:"install_url,omitempty" yaml:"install_url,omitempty"`
}

// DisplayName returns Name, falling back to the binding.
func (d Descriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Binding
}

// DefaultDescriptors returns the unified provider list used by both
// negotiation protocols.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{Binding: BindingSlush, Name: "Slush", Priority: 10, InstallURL: "https://slush.app"},
		{Binding: BindingSuiWallet, Name: "Sui Wallet", Priority: 20, InstallURL: "https://suiwallet.com"},
		{Binding: BindingSuiet, Name: "Suiet", Priority: 30, InstallURL: "https://suiet.app"},
		{Binding: BindingEthos, Name: "Ethos Wallet", Priority: 40, InstallURL: "https://ethoswallet.xyz"},
	}
}

// LegacyPassiveDescriptors returns the historical passive reconnection order.
func LegacyPassiveDescriptors() []Descriptor {
	return pick(BindingSlush, BindingSuiWallet, BindingSuiet)
}

// LegacyActiveDescriptors returns the historical active connection order.
func LegacyActiveDescriptors() []Descriptor {
	return pick(BindingSlush, BindingSuiet, BindingEthos)
}

// pick returns the default descriptors for bindings, re-prioritized in the
// order given.
func pick(bindings ...string) []Descriptor {
	all := DefaultDescriptors()
	out := make([]Descriptor, 0, len(bindings))
	for i, b := range bindings {
		for _, d := range all {
			if d.Binding == b {
				d.Priority = (i + 1) * 10
				out = append(out, d)
			}
		}
	}
	return out
}
