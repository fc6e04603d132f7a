// Package account defines the account identifier handed out by wallet
// providers. Accounts are opaque strings; hex addresses get a few extra
// conveniences for display, comparison, and log-safe fingerprints.
package account

import (
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"

	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// shortLen is the length above which Short abbreviates an address.
const shortLen = 14

// fingerprintBytes is the number of digest bytes kept in a fingerprint.
const fingerprintBytes = 4

// Account is an address identifying one wallet account.
type Account string

// Parse validates a raw account identifier returned by a provider.
func Parse(raw string) (Account, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", gateerr.WithDetails(gateerr.ErrInvalidAccount, map[string]string{"reason": "empty"})
	}
	if strings.ContainsFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) {
		return "", gateerr.WithDetails(gateerr.ErrInvalidAccount, map[string]string{"reason": "contains whitespace"})
	}
	return Account(s), nil
}

// ParseAll validates every entry of raw, stopping at the first malformed one.
func ParseAll(raw []string) ([]Account, error) {
	out := make([]Account, 0, len(raw))
	for _, r := range raw {
		a, err := Parse(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// FromStrings converts raw provider output without validating it. Callers
// decide which entries matter; the negotiator only parses the first.
func FromStrings(raw []string) []Account {
	out := make([]Account, len(raw))
	for i, r := range raw {
		out[i] = Account(r)
	}
	return out
}

// Valid reports whether the account would pass Parse unchanged.
func (a Account) Valid() bool {
	parsed, err := Parse(string(a))
	return err == nil && parsed == a
}

// String returns the account as given by the provider.
func (a Account) String() string {
	return string(a)
}

// IsHex reports whether the account is a 0x-prefixed hex address.
// Odd-length addresses are accepted, matching the short form Sui wallets use.
func (a Account) IsHex() bool {
	_, ok := a.hexBytes()
	return ok
}

// Equal compares two accounts. Hex addresses compare by value so that case
// and leading zeros do not matter; anything else compares exactly.
func (a Account) Equal(other Account) bool {
	ac, aok := a.canonicalHex()
	bc, bok := other.canonicalHex()
	if aok && bok {
		return ac == bc
	}
	return a == other
}

// Short abbreviates long addresses for display, e.g. 0x1234…cdef. Counting
// is by rune so non-ASCII identifiers stay valid UTF-8.
func (a Account) Short() string {
	r := []rune(string(a))
	if len(r) <= shortLen {
		return string(a)
	}
	return string(r[:6]) + "…" + string(r[len(r)-4:])
}

// Fingerprint returns a short digest of the account, safe to write to logs.
func (a Account) Fingerprint() string {
	if a == "" {
		return "none"
	}
	key := string(a)
	if c, ok := a.canonicalHex(); ok {
		key = c
	}
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:fingerprintBytes])
}

// canonicalHex returns the hex digits of the address without leading zeros.
func (a Account) canonicalHex() (string, bool) {
	b, ok := a.hexBytes()
	if !ok {
		return "", false
	}
	return strings.TrimLeft(hex.EncodeToString(b), "0"), true
}

func (a Account) hexBytes() ([]byte, bool) {
	s := string(a)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, false
	}
	digits := s[2:]
	if digits == "" {
		return nil, false
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	b, err := hexutil.Decode("0x" + digits)
	if err != nil {
		return nil, false
	}
	return b, true
}
