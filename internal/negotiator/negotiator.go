// Package negotiator establishes the single wallet session. It restores a
// previously granted session without prompting (passive reconnection) and
// runs the user-initiated permission request (active connection).
package negotiator

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrz1836/walletgate/internal/metrics"
	"github.com/mrz1836/walletgate/internal/provider"
	"github.com/mrz1836/walletgate/internal/session"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

const tracerName = "github.com/mrz1836/walletgate/internal/negotiator"

// Defaults applied by New.
const (
	DefaultStartupDelay = 500 * time.Millisecond
	DefaultCallTimeout  = 5 * time.Second
)

// Logger is the logging surface the negotiator writes to.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Option configures a Negotiator.
type Option func(*Negotiator)

// WithActiveRegistry sets a separate provider order for active connection.
// By default both protocols use the registry passed to New.
func WithActiveRegistry(r provider.Registry) Option {
	return func(n *Negotiator) {
		if r != nil {
			n.active = r
		}
	}
}

// WithStore persists the session record so explicit disconnects survive a
// restart.
func WithStore(s session.Store) Option {
	return func(n *Negotiator) { n.store = s }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(n *Negotiator) {
		if l != nil {
			n.log = l
		}
	}
}

// WithMetrics sets the metrics sink. Defaults to metrics.Global.
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Negotiator) {
		if m != nil {
			n.metrics = m
		}
	}
}

// WithTracer sets the tracer. Defaults to the global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option {
	return func(n *Negotiator) {
		if t != nil {
			n.tracer = t
		}
	}
}

// WithStartupDelay sets how long Start waits before passive reconnection.
func WithStartupDelay(d time.Duration) Option {
	return func(n *Negotiator) {
		if d >= 0 {
			n.startupDelay = d
		}
	}
}

// WithCallTimeout bounds each non-prompting provider call. Zero disables
// the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(n *Negotiator) {
		if d >= 0 {
			n.callTimeout = d
		}
	}
}

// WithPromptTimeout bounds the permission prompt. Zero, the default, waits
// for the user indefinitely.
func WithPromptTimeout(d time.Duration) Option {
	return func(n *Negotiator) {
		if d >= 0 {
			n.promptTimeout = d
		}
	}
}

// WithClock sets the time source used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *Negotiator) {
		if now != nil {
			n.now = now
		}
	}
}

// Negotiator owns the session state machine. It is safe for concurrent use.
// Provider calls are never made while holding the state lock.
type Negotiator struct {
	passive provider.Registry
	active  provider.Registry
	store   session.Store
	log     Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time

	startupDelay  time.Duration
	callTimeout   time.Duration
	promptTimeout time.Duration

	mu         sync.Mutex
	state      session.State
	current    *session.Session
	connecting bool
	subs       map[int]chan session.View
	nextSub    int
}

// New creates a negotiator over registry.
func New(registry provider.Registry, opts ...Option) (*Negotiator, error) {
	if registry == nil {
		return nil, gateerr.WithDetails(gateerr.ErrConfigInvalid, map[string]string{"reason": "nil provider registry"})
	}

	n := &Negotiator{
		passive:      registry,
		active:       registry,
		log:          nopLogger{},
		metrics:      metrics.Global,
		tracer:       otel.Tracer(tracerName),
		now:          time.Now,
		startupDelay: DefaultStartupDelay,
		callTimeout:  DefaultCallTimeout,
		state:        session.Disconnected,
		subs:         make(map[int]chan session.View),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Start runs passive reconnection once after the startup delay. The returned
// channel is closed when the attempt finishes or ctx ends.
func (n *Negotiator) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		timer := time.NewTimer(n.startupDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		n.Reconnect(ctx)
	}()
	return done
}

// State returns the current state.
func (n *Negotiator) State() session.State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Session returns the established session, or nil.
func (n *Negotiator) Session() *session.Session {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != session.Connected {
		return nil
	}
	return n.current
}

// View returns the presentation handoff for the current state.
func (n *Negotiator) View() session.View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return session.ViewOf(n.state, n.current)
}

// Subscribe returns a channel that receives the current view immediately and
// again on every state change. A slow reader sees the latest view; older
// undelivered views are dropped. The cancel func closes the channel.
func (n *Negotiator) Subscribe(buffer int) (<-chan session.View, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan session.View, buffer)

	n.mu.Lock()
	id := n.nextSub
	n.nextSub++
	n.subs[id] = ch
	deliver(ch, session.ViewOf(n.state, n.current))
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			close(ch)
			n.mu.Unlock()
		})
	}
}

// Disconnect ends the session and records the choice so passive
// reconnection does not silently restore it. The next successful active
// connection lifts the record.
func (n *Negotiator) Disconnect() error {
	n.mu.Lock()
	if n.state != session.Connected || n.current == nil {
		n.mu.Unlock()
		return gateerr.ErrNotConnected
	}
	s := n.current
	n.current = nil
	n.setStateLocked(session.Disconnected)
	n.mu.Unlock()

	n.metrics.RecordDisconnect()
	n.log.Info("session %s with %s disconnected by user", s.ID, s.Binding)

	if n.store == nil {
		return nil
	}
	if err := n.store.Save(session.DisconnectedRecord(n.now())); err != nil {
		return gateerr.Wrap(err, "recording disconnect")
	}
	return nil
}

// setStateLocked moves to state and notifies subscribers. Callers hold n.mu.
func (n *Negotiator) setStateLocked(state session.State) {
	n.state = state
	v := session.ViewOf(n.state, n.current)
	for _, ch := range n.subs {
		deliver(ch, v)
	}
}

// deliver sends v without blocking, replacing the oldest pending view when
// the channel is full.
func deliver(ch chan session.View, v session.View) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// persist records an established session. Failures are logged only since
// the live session is unaffected.
func (n *Negotiator) persist(s *session.Session) {
	if n.store == nil {
		return
	}
	if err := n.store.Save(session.RecordOf(s, n.now())); err != nil {
		n.log.Error("saving session record: %v", err)
	}
}

// userDisconnected reports whether the stored record holds an explicit
// disconnect.
func (n *Negotiator) userDisconnected() bool {
	if n.store == nil {
		return false
	}
	r, err := n.store.Load()
	if err != nil {
		n.log.Error("loading session record: %v", err)
		return false
	}
	return r.UserDisconnected
}
