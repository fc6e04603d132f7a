// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"sync/atomic"
	"time"
)

// Outcome labels accepted by RecordConnect.
const (
	OutcomeConnected        = "connected"
	OutcomeUserRejected     = "user_rejected"
	OutcomeConnectionFailed = "connection_failed"
	OutcomeNoWalletFound    = "no_wallet_found"
)

// Metrics holds negotiation metrics using atomic counters for thread safety.
type Metrics struct {
	// Passive reconnection
	passiveScans atomic.Int64
	passiveHits  atomic.Int64

	// Provider calls
	providerCalls  atomic.Int64
	providerErrors atomic.Int64
	providerPanics atomic.Int64

	// Active connection
	connectAttempts  atomic.Int64
	connected        atomic.Int64
	userRejected     atomic.Int64
	connectionFailed atomic.Int64
	noWalletFound    atomic.Int64
	busyRejections   atomic.Int64
	promptNanos      atomic.Int64
	prompts          atomic.Int64

	disconnects atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordPassiveScan records one passive reconnection scan and whether it
// established a session.
func (m *Metrics) RecordPassiveScan(established bool) {
	m.passiveScans.Add(1)
	if established {
		m.passiveHits.Add(1)
	}
}

// RecordProviderCall records a single call into a wallet provider.
func (m *Metrics) RecordProviderCall(err error) {
	m.providerCalls.Add(1)
	if err != nil {
		m.providerErrors.Add(1)
	}
}

// RecordProviderPanic records a provider call that panicked.
func (m *Metrics) RecordProviderPanic() {
	m.providerPanics.Add(1)
}

// RecordPrompt records the time a user spent on a permission prompt.
func (m *Metrics) RecordPrompt(d time.Duration) {
	m.prompts.Add(1)
	m.promptNanos.Add(d.Nanoseconds())
}

// RecordConnect records the outcome of one active connection attempt.
func (m *Metrics) RecordConnect(outcome string) {
	m.connectAttempts.Add(1)

	switch outcome {
	case OutcomeConnected:
		m.connected.Add(1)
	case OutcomeUserRejected:
		m.userRejected.Add(1)
	case OutcomeConnectionFailed:
		m.connectionFailed.Add(1)
	case OutcomeNoWalletFound:
		m.noWalletFound.Add(1)
	}
}

// RecordBusy records a connect call rejected because another was in flight.
func (m *Metrics) RecordBusy() {
	m.busyRejections.Add(1)
}

// RecordDisconnect records an explicit disconnect.
func (m *Metrics) RecordDisconnect() {
	m.disconnects.Add(1)
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	PassiveScans     int64 `json:"passive_scans"`
	PassiveHits      int64 `json:"passive_hits"`
	ProviderCalls    int64 `json:"provider_calls"`
	ProviderErrors   int64 `json:"provider_errors"`
	ProviderPanics   int64 `json:"provider_panics"`
	ConnectAttempts  int64 `json:"connect_attempts"`
	Connected        int64 `json:"connected"`
	UserRejected     int64 `json:"user_rejected"`
	ConnectionFailed int64 `json:"connection_failed"`
	NoWalletFound    int64 `json:"no_wallet_found"`
	BusyRejections   int64 `json:"busy_rejections"`
	Prompts          int64 `json:"prompts"`
	PromptNanos      int64 `json:"prompt_nanos"`
	Disconnects      int64 `json:"disconnects"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		PassiveScans:     m.passiveScans.Load(),
		PassiveHits:      m.passiveHits.Load(),
		ProviderCalls:    m.providerCalls.Load(),
		ProviderErrors:   m.providerErrors.Load(),
		ProviderPanics:   m.providerPanics.Load(),
		ConnectAttempts:  m.connectAttempts.Load(),
		Connected:        m.connected.Load(),
		UserRejected:     m.userRejected.Load(),
		ConnectionFailed: m.connectionFailed.Load(),
		NoWalletFound:    m.noWalletFound.Load(),
		BusyRejections:   m.busyRejections.Load(),
		Prompts:          m.prompts.Load(),
		PromptNanos:      m.promptNanos.Load(),
		Disconnects:      m.disconnects.Load(),
	}
}

// PromptLatencyAvgMs returns the average prompt latency in milliseconds.
// Returns 0 if no prompts have been shown.
func (m *Metrics) PromptLatencyAvgMs() float64 {
	n := m.prompts.Load()
	if n == 0 {
		return 0
	}
	return float64(m.promptNanos.Load()) / float64(n) / 1e6
}

// PassiveHitRate returns the share of passive scans that restored a session
// as a percentage (0-100).
func (m *Metrics) PassiveHitRate() float64 {
	scans := m.passiveScans.Load()
	if scans == 0 {
		return 0
	}
	return float64(m.passiveHits.Load()) / float64(scans) * 100
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Int64{
		&m.passiveScans, &m.passiveHits,
		&m.providerCalls, &m.providerErrors, &m.providerPanics,
		&m.connectAttempts, &m.connected, &m.userRejected,
		&m.connectionFailed, &m.noWalletFound, &m.busyRejections,
		&m.promptNanos, &m.prompts, &m.disconnects,
	} {
		c.Store(0)
	}
}
