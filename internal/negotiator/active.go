package negotiator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mrz1836/walletgate/internal/account"
	"github.com/mrz1836/walletgate/internal/provider"
	"github.com/mrz1836/walletgate/internal/session"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// Connect asks the first available provider in active order for permission.
// Exactly one provider is prompted, once; its answer decides the outcome and
// no other provider is tried. When no provider is available the outcome is
// OutcomeNoWalletFound and no provider method is called.
//
// Only one attempt may run at a time. A concurrent call returns
// ErrConnectInProgress immediately; every other failure is reported through
// Result.Err. When a session already exists it is returned without prompting.
func (n *Negotiator) Connect(ctx context.Context) (Result, error) {
	n.mu.Lock()
	if n.connecting {
		n.mu.Unlock()
		n.metrics.RecordBusy()
		return Result{}, gateerr.ErrConnectInProgress
	}
	if n.state == session.Connected && n.current != nil {
		s := n.current
		n.mu.Unlock()
		return Result{Outcome: OutcomeConnected, Session: s, Binding: s.Binding}, nil
	}
	n.connecting = true
	n.setStateLocked(session.Connecting)
	n.mu.Unlock()

	ctx, span := n.tracer.Start(ctx, "negotiator.Connect")
	defer span.End()

	res := n.connect(ctx)

	n.mu.Lock()
	n.connecting = false
	if res.Outcome == OutcomeConnected {
		n.current = res.Session
		n.setStateLocked(session.Connected)
	} else {
		n.current = nil
		n.setStateLocked(session.Disconnected)
	}
	n.mu.Unlock()

	n.metrics.RecordConnect(res.Outcome.String())
	span.SetAttributes(
		attribute.String("walletgate.outcome", res.Outcome.String()),
		attribute.String("wallet.binding", res.Binding),
	)

	if res.Outcome == OutcomeConnected {
		n.log.Info("connected to %s with account %s", res.Binding, res.Session.Account.Fingerprint())
		n.persist(res.Session)
	} else {
		span.SetStatus(codes.Error, res.Outcome.String())
		n.log.Error("active connection ended with %s: %v", res.Outcome, res.Err)
	}
	return res, nil
}

func (n *Negotiator) connect(ctx context.Context) Result {
	descriptors := n.active.List()
	for _, d := range descriptors {
		w, ok := n.active.Resolve(d)
		if !ok || w == nil {
			n.log.Debug("provider %s: %v", d.Binding, gateerr.ErrProviderAbsent)
			continue
		}
		return n.prompt(ctx, d, w)
	}

	return Result{
		Outcome:   OutcomeNoWalletFound,
		Supported: descriptors,
		Err: gateerr.WithSuggestion(
			gateerr.ErrNoWalletFound,
			"Install a supported wallet: "+supportedNames(descriptors)+".",
		),
	}
}

// prompt makes the single RequestPermissions call of an attempt.
func (n *Negotiator) prompt(ctx context.Context, d provider.Descriptor, w provider.Wallet) Result {
	res := Result{Binding: d.Binding}

	promptCtx := ctx
	if n.promptTimeout > 0 {
		var cancel context.CancelFunc
		promptCtx, cancel = context.WithTimeout(ctx, n.promptTimeout)
		defer cancel()
	}

	started := time.Now()
	grant, err := invoke(promptCtx, n, d.Binding, methodRequestPermissions, 0, w.RequestPermissions)
	n.metrics.RecordPrompt(time.Since(started))

	// Panics and timeouts are classified before rejection: the rejection
	// check matches on message text, which a panic value can also contain.
	var pe *PanicError
	switch {
	case err == nil:
	case errors.As(err, &pe):
		res.Outcome = OutcomeConnectionFailed
		res.Err = gateerr.WithCause(gateerr.ErrConnectionFailed, err)
		return res
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		res.Outcome = OutcomeConnectionFailed
		res.Err = gateerr.WithCause(gateerr.ErrConnectionFailed,
			gateerr.WithDetails(gateerr.ErrPromptTimeout, map[string]string{
				"binding": d.Binding,
				"timeout": n.promptTimeout.String(),
			}))
		return res
	case provider.IsUserRejection(err):
		res.Outcome = OutcomeUserRejected
		res.Err = gateerr.WithCause(gateerr.ErrUserRejected, err)
		return res
	default:
		res.Outcome = OutcomeConnectionFailed
		res.Err = gateerr.WithCause(gateerr.ErrConnectionFailed, err)
		return res
	}

	if len(grant.Accounts) == 0 {
		res.Outcome = OutcomeConnectionFailed
		res.Err = gateerr.WithDetails(gateerr.ErrConnectionFailed, map[string]string{
			"binding": d.Binding,
			"reason":  "no accounts granted",
		})
		return res
	}

	acct, err := account.Parse(grant.Accounts[0].String())
	if err != nil {
		res.Outcome = OutcomeConnectionFailed
		res.Err = gateerr.WithCause(gateerr.ErrConnectionFailed, err)
		return res
	}

	res.Outcome = OutcomeConnected
	res.Session = session.New(d.Binding, w, acct, session.OriginActive, n.now())
	return res
}

// supportedNames joins display names as "A, B or C".
func supportedNames(ds []provider.Descriptor) string {
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.DisplayName()
	}
	switch len(names) {
	case 0:
		return "none configured"
	case 1:
		return names[0]
	default:
		return fmt.Sprintf("%s or %s", strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
	}
}
