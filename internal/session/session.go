// Package session holds the single authenticated wallet session: the Session
// value established by the negotiator, the View handed to the presentation
// layer, and a Store that remembers the last session across restarts.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/walletgate/internal/account"
	"github.com/mrz1836/walletgate/internal/provider"
)

// ErrSessionCorrupted indicates the persisted session record could not be read.
var ErrSessionCorrupted = errors.New("session corrupted")

// State is the negotiation state of the session.
type State int

// Session states. Connecting is only observable while an active connection
// attempt is in flight.
const (
	Disconnected State = iota
	Connecting
	Connected
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "disconnected":
		*s = Disconnected
	case "connecting":
		*s = Connecting
	case "connected":
		*s = Connected
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}

// Origin records which protocol established a session.
type Origin string

// Session origins.
const (
	OriginPassive Origin = "passive"
	OriginActive  Origin = "active"
)

// Session is an established wallet session. The wallet handle is borrowed
// from the environment and is not persisted.
type Session struct {
	ID            string          `json:"id"`
	Binding       string          `json:"binding"`
	Wallet        provider.Wallet `json:"-"`
	Account       account.Account `json:"account"`
	Origin        Origin          `json:"origin"`
	EstablishedAt time.Time       `json:"established_at"`
}

// New creates a session for acct on wallet w.
func New(binding string, w provider.Wallet, acct account.Account, origin Origin, now time.Time) *Session {
	return &Session{
		ID:            uuid.NewString(),
		Binding:       binding,
		Wallet:        w,
		Account:       acct,
		Origin:        origin,
		EstablishedAt: now,
	}
}

// Connected reports whether s is a usable session.
func (s *Session) Connected() bool {
	return s != nil && s.Wallet != nil && s.Account != ""
}

// View is everything the presentation layer receives about the session.
type View struct {
	Connected bool            `json:"connected"`
	Account   account.Account `json:"account,omitempty"`
	Binding   string          `json:"binding,omitempty"`
	State     State           `json:"state"`
}

// ViewOf builds the view for state and the current session, if any.
func ViewOf(state State, s *Session) View {
	v := View{State: state}
	if state == Connected && s.Connected() {
		v.Connected = true
		v.Account = s.Account
		v.Binding = s.Binding
	}
	return v
}
