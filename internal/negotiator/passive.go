package negotiator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mrz1836/walletgate/internal/account"
	"github.com/mrz1836/walletgate/internal/provider"
	"github.com/mrz1836/walletgate/internal/session"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// Reconnect restores a session from a provider that already holds the
// user's permission, without prompting. Providers are tried in passive order
// and every provider failure is contained; the first provider that reports
// permission and at least one account wins. An established session is
// returned unchanged, and a scan result is discarded if an active connection
// started meanwhile.
func (n *Negotiator) Reconnect(ctx context.Context) (*session.Session, bool) {
	ctx, span := n.tracer.Start(ctx, "negotiator.Reconnect")
	defer span.End()

	n.mu.Lock()
	switch {
	case n.state == session.Connected && n.current != nil:
		s := n.current
		n.mu.Unlock()
		return s, true
	case n.connecting:
		n.mu.Unlock()
		n.log.Debug("passive reconnection skipped: active connection in progress")
		return nil, false
	}
	n.mu.Unlock()

	if n.userDisconnected() {
		n.log.Debug("passive reconnection skipped: user disconnected")
		span.SetAttributes(attribute.Bool("walletgate.user_disconnected", true))
		return nil, false
	}

	s := n.scan(ctx)
	n.metrics.RecordPassiveScan(s != nil)
	if s == nil {
		return nil, false
	}

	n.mu.Lock()
	if n.state != session.Disconnected || n.connecting {
		current := n.current
		connected := n.state == session.Connected && current != nil
		n.mu.Unlock()
		n.log.Debug("passive result from %s discarded: state changed during scan", s.Binding)
		if connected {
			return current, true
		}
		return nil, false
	}
	n.current = s
	n.setStateLocked(session.Connected)
	n.mu.Unlock()

	span.SetAttributes(attribute.String("wallet.binding", s.Binding))
	n.log.Info("session restored from %s for account %s", s.Binding, s.Account.Fingerprint())
	n.persist(s)
	return s, true
}

// scan walks the passive order and returns the first session it can
// establish, or nil.
func (n *Negotiator) scan(ctx context.Context) *session.Session {
	for _, d := range n.passive.List() {
		if ctx.Err() != nil {
			return nil
		}

		w, ok := n.passive.Resolve(d)
		if !ok || w == nil {
			n.log.Debug("provider %s: %v", d.Binding, gateerr.ErrProviderAbsent)
			continue
		}

		acct, err := n.probe(ctx, d, w)
		if err != nil {
			n.log.Debug("provider %s declined passive reconnection: %v", d.Binding, err)
			continue
		}
		return session.New(d.Binding, w, acct, session.OriginPassive, n.now())
	}
	return nil
}

// probe asks w, without prompting, for its permission and first account.
func (n *Negotiator) probe(ctx context.Context, d provider.Descriptor, w provider.Wallet) (account.Account, error) {
	permitted, err := invoke(ctx, n, d.Binding, methodHasPermissions, n.callTimeout, w.HasPermissions)
	if err != nil {
		return "", gateerr.WithCause(gateerr.ErrPermissionCheckFailed, err)
	}
	if !permitted {
		return "", gateerr.WithDetails(gateerr.ErrPermissionCheckFailed, map[string]string{"reason": "no permission"})
	}

	accounts, err := invoke(ctx, n, d.Binding, methodGetAccounts, n.callTimeout, w.GetAccounts)
	if err != nil {
		return "", gateerr.WithCause(gateerr.ErrPermissionCheckFailed, err)
	}
	if len(accounts) == 0 {
		return "", gateerr.WithDetails(gateerr.ErrPermissionCheckFailed, map[string]string{"reason": "no accounts"})
	}

	acct, err := account.Parse(accounts[0].String())
	if err != nil {
		return "", gateerr.WithCause(gateerr.ErrPermissionCheckFailed, err)
	}
	return acct, nil
}
