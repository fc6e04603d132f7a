package negotiator

import (
	"github.com/mrz1836/walletgate/internal/metrics"
	"github.com/mrz1836/walletgate/internal/provider"
	"github.com/mrz1836/walletgate/internal/session"
)

// Outcome is the terminal classification of one active connection attempt.
type Outcome int

// Active connection outcomes.
const (
	OutcomeConnected Outcome = iota + 1
	OutcomeUserRejected
	OutcomeConnectionFailed
	OutcomeNoWalletFound
)

// String returns the outcome label used in metrics and JSON output.
func (o Outcome) String() string {
	switch o {
	case OutcomeConnected:
		return metrics.OutcomeConnected
	case OutcomeUserRejected:
		return metrics.OutcomeUserRejected
	case OutcomeConnectionFailed:
		return metrics.OutcomeConnectionFailed
	case OutcomeNoWalletFound:
		return metrics.OutcomeNoWalletFound
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result describes how an active connection attempt ended.
type Result struct {
	Outcome Outcome
	// Session is set only for OutcomeConnected.
	Session *session.Session
	// Binding names the provider that was prompted. Empty for
	// OutcomeNoWalletFound.
	Binding string
	// Supported lists the wallets that were looked for when none resolved.
	Supported []provider.Descriptor
	// Err is the classified error for every outcome except OutcomeConnected.
	Err error
}

// Connected reports whether the attempt established a session.
func (r Result) Connected() bool {
	return r.Outcome == OutcomeConnected && r.Session.Connected()
}
