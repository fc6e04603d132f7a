package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mrz1836/walletgate/internal/negotiator"
	"github.com/mrz1836/walletgate/internal/session"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// NoticeKind classifies a user-facing notification.
type NoticeKind string

// Notification kinds, one per active connection outcome.
const (
	NoticeSuccess  NoticeKind = "success"
	NoticeNoWallet NoticeKind = "no_wallet"
	NoticeRejected NoticeKind = "user_rejected"
	NoticeFailure  NoticeKind = "failure"
)

// Notification texts.
const (
	msgConnected = "Wallet connected successfully."
	msgNoWallet  = "No supported wallet was found."
	msgRejected  = "The wallet connection request was rejected."
	msgFailure   = "Wallet connection failed."
)

// WalletRef names a supported wallet in the no-wallet notification.
type WalletRef struct {
	Name       string `json:"name"`
	Binding    string `json:"binding"`
	InstallURL string `json:"install_url,omitempty"`
}

// Notice is the single notification shown after an active connection
// attempt.
type Notice struct {
	Kind       NoticeKind  `json:"kind"`
	Message    string      `json:"message"`
	Binding    string      `json:"binding,omitempty"`
	Account    string      `json:"account,omitempty"`
	Wallets    []WalletRef `json:"wallets,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// NoticeFor maps an attempt's result to its notification.
func NoticeFor(res negotiator.Result) Notice {
	switch res.Outcome {
	case negotiator.OutcomeConnected:
		n := Notice{Kind: NoticeSuccess, Message: msgConnected, Binding: res.Binding}
		if res.Session != nil {
			n.Account = res.Session.Account.String()
		}
		return n

	case negotiator.OutcomeNoWalletFound:
		n := Notice{Kind: NoticeNoWallet, Message: msgNoWallet, Suggestion: gateerr.Suggestion(res.Err)}
		for _, d := range res.Supported {
			n.Wallets = append(n.Wallets, WalletRef{Name: d.DisplayName(), Binding: d.Binding, InstallURL: d.InstallURL})
		}
		return n

	case negotiator.OutcomeUserRejected:
		return Notice{
			Kind:       NoticeRejected,
			Message:    msgRejected,
			Binding:    res.Binding,
			Suggestion: gateerr.Suggestion(res.Err),
		}

	default:
		n := Notice{Kind: NoticeFailure, Message: msgFailure, Binding: res.Binding}
		if res.Err != nil {
			n.Reason = describe(res.Err).Message
		}
		return n
	}
}

// Notify writes n in the given format.
func Notify(w io.Writer, format Format, n Notice) error {
	if format == FormatJSON {
		return writeJSON(w, n)
	}

	var sb strings.Builder
	sb.WriteString(noticePrefix(n.Kind) + n.Message + "\n")

	if n.Account != "" {
		fmt.Fprintf(&sb, "   Account: %s\n", n.Account)
	}
	if n.Binding != "" && n.Kind == NoticeSuccess {
		fmt.Fprintf(&sb, "   Wallet:  %s\n", n.Binding)
	}
	if n.Reason != "" {
		fmt.Fprintf(&sb, "   Reason:  %s\n", n.Reason)
	}
	if len(n.Wallets) > 0 {
		sb.WriteString("\nSupported wallets:\n")
		for _, ref := range n.Wallets {
			if ref.InstallURL != "" {
				fmt.Fprintf(&sb, "  - %s (%s)\n", ref.Name, ref.InstallURL)
			} else {
				fmt.Fprintf(&sb, "  - %s\n", ref.Name)
			}
		}
	}
	if n.Suggestion != "" && n.Kind != NoticeNoWallet {
		fmt.Fprintf(&sb, "\n%s\n", n.Suggestion)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func noticePrefix(kind NoticeKind) string {
	switch kind {
	case NoticeSuccess:
		return "✅ "
	case NoticeNoWallet:
		return "ℹ️  "
	default:
		return "⚠️  "
	}
}

// statusView is the JSON shape of a session view.
type statusView struct {
	Connected bool   `json:"connected"`
	State     string `json:"state"`
	Account   string `json:"account,omitempty"`
	Binding   string `json:"binding,omitempty"`
}

// WriteView writes the session view handed to the presentation layer.
func WriteView(w io.Writer, format Format, v session.View) error {
	if format == FormatJSON {
		return writeJSON(w, statusView{
			Connected: v.Connected,
			State:     v.State.String(),
			Account:   v.Account.String(),
			Binding:   v.Binding,
		})
	}

	if !v.Connected {
		_, err := fmt.Fprintf(w, "Not connected (%s)\n", v.State)
		return err
	}
	_, err := fmt.Fprintf(w, "Connected to %s\n   Account: %s\n", v.Binding, v.Account)
	return err
}
