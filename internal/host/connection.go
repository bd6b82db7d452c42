// Package host maintains exactly one logical session with the audio
// host's local remote-procedure service: channel setup, registration,
// heartbeat and reconnection, plus the session-scoped operations the
// marker pipeline needs.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/markerbridge/internal/core/domain"
	"github.com/vietddude/markerbridge/internal/hostrpc"
	"github.com/vietddude/markerbridge/internal/metrics"
	"github.com/vietddude/markerbridge/internal/recovery"
)

var (
	// ErrNotConnected is returned by session operations while the
	// manager holds no live session.
	ErrNotConnected = errors.New("not connected to host")

	// ErrNoSessionID is returned when registration yields no token.
	ErrNoSessionID = errors.New("host registration returned no session id")
)

// Config parameterizes the connection manager.
type Config struct {
	Endpoint        string
	CompanyName     string
	ApplicationName string

	RequestTimeout     time.Duration
	ReadyTimeout       time.Duration
	HeartbeatInterval  time.Duration
	HeartbeatMaxMisses int
	Reconnect          recovery.Backoff
}

// DefaultConfig returns the standard connection parameters.
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:           endpoint,
		CompanyName:        "vietddude",
		ApplicationName:    "markerbridge",
		RequestTimeout:     10 * time.Second,
		ReadyTimeout:       5 * time.Second,
		HeartbeatInterval:  30 * time.Second,
		HeartbeatMaxMisses: 3,
		Reconnect: recovery.Backoff{
			Base:        2 * time.Second,
			Multiplier:  2.0,
			Cap:         60 * time.Second,
			Jitter:      1 * time.Second,
			MaxAttempts: 5,
		},
	}
}

// DialFunc opens a fresh transport channel.
type DialFunc func() (hostrpc.Transport, error)

// connectAttempt lets concurrent Connect callers join one in-flight
// attempt's outcome instead of starting a second one.
type connectAttempt struct {
	done chan struct{}
	err  error
}

// Manager owns the transport channel, session identity, heartbeat loop
// and reconnection scheduling.
type Manager struct {
	cfg    Config
	dial   DialFunc
	notify NotifyFunc
	log    *slog.Logger

	mu              sync.Mutex
	state           State
	transport       hostrpc.Transport
	sessionID       string
	session         *domain.Session
	inflight        *connectAttempt
	manual          bool
	closing         bool
	hbCancel        context.CancelFunc
	reconnectCancel context.CancelFunc
}

// NewManager creates a disconnected manager. notify may be nil.
func NewManager(cfg Config, dial DialFunc, notify NotifyFunc) *Manager {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.ReadyTimeout == 0 {
		cfg.ReadyTimeout = 5 * time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.HeartbeatMaxMisses == 0 {
		cfg.HeartbeatMaxMisses = 3
	}
	if cfg.Reconnect.Base == 0 {
		cfg.Reconnect = DefaultConfig(cfg.Endpoint).Reconnect
	}
	return &Manager{
		cfg:    cfg,
		dial:   dial,
		notify: notify,
		log:    slog.Default(),
		state:  StateDisconnected,
	}
}

// State returns the current lifecycle position.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionID returns the host-issued session token, empty when absent.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Connect establishes the session. It is idempotent while an attempt is
// in flight: concurrent callers block on the same outcome.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateConnected {
		m.mu.Unlock()
		return nil
	}
	if att := m.inflight; att != nil {
		m.mu.Unlock()
		select {
		case <-att.done:
			return att.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	att := &connectAttempt{done: make(chan struct{})}
	m.inflight = att
	m.manual = false
	m.mu.Unlock()

	err := m.doConnect(ctx)

	m.mu.Lock()
	att.err = err
	m.inflight = nil
	m.mu.Unlock()
	close(att.done)

	return err
}

func (m *Manager) doConnect(ctx context.Context) error {
	m.setState(StateConnecting, "opening channel")

	t, err := m.dial()
	if err != nil {
		m.setState(StateDisconnected, "channel open failed")
		return &recovery.ClassifiedError{
			Category:  recovery.CategoryNetwork,
			Operation: "connect",
			Err:       err,
		}
	}

	readyCtx, cancel := context.WithTimeout(ctx, m.cfg.ReadyTimeout)
	err = t.Ready(readyCtx)
	cancel()
	if err != nil {
		t.Close()
		m.setState(StateDisconnected, "channel not ready")
		return &recovery.ClassifiedError{
			Category:  recovery.CategoryNetwork,
			Operation: "connect",
			Err:       fmt.Errorf("channel ready wait: %w", err),
		}
	}

	m.mu.Lock()
	m.transport = t
	m.mu.Unlock()

	m.setState(StateRegistering, "registering with host")

	resp, err := m.send(ctx, hostrpc.CmdRegisterConnection, hostrpc.RegisterConnectionRequest{
		CompanyName:     m.cfg.CompanyName,
		ApplicationName: m.cfg.ApplicationName,
	})
	if err != nil {
		m.cleanupFailedAttempt("registration failed")
		return fmt.Errorf("register connection: %w", err)
	}

	var reg hostrpc.RegisterConnectionResponse
	if err := resp.DecodeBody(&reg); err != nil {
		m.cleanupFailedAttempt("registration failed")
		return err
	}
	if reg.SessionID == "" {
		m.cleanupFailedAttempt("registration failed")
		return ErrNoSessionID
	}

	m.mu.Lock()
	m.sessionID = reg.SessionID
	m.mu.Unlock()

	m.setState(StateConnected, "registered")

	// One confirmation heartbeat before declaring success to the caller.
	if err := m.ping(ctx); err != nil {
		m.cleanupFailedAttempt("liveness check failed")
		return fmt.Errorf("post-register liveness check: %w", err)
	}

	m.startHeartbeat()

	m.log.Info("connected to host",
		"endpoint", m.cfg.Endpoint,
		"session_id", reg.SessionID)
	return nil
}

// Disconnect tears the session down. When manual is true no reconnection
// is scheduled afterwards. A second call in a row is a no-op.
func (m *Manager) Disconnect(manual bool) {
	m.mu.Lock()
	if manual {
		m.manual = true
	}
	if m.state == StateDisconnected && m.transport == nil &&
		m.hbCancel == nil && m.reconnectCancel == nil {
		m.mu.Unlock()
		return
	}
	hbCancel := m.hbCancel
	rcCancel := m.reconnectCancel
	t := m.transport
	m.hbCancel = nil
	m.reconnectCancel = nil
	m.transport = nil
	m.sessionID = ""
	m.session = nil
	m.mu.Unlock()

	// Timers always stop before the channel is released.
	if hbCancel != nil {
		hbCancel()
	}
	if rcCancel != nil {
		rcCancel()
	}
	if t != nil {
		t.Close()
	}

	m.setState(StateDisconnected, "disconnected")
}

// Close shuts the manager down for good: manual disconnect plus a flag
// that suppresses any further reconnection scheduling.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closing = true
	m.mu.Unlock()
	m.Disconnect(true)
}

func (m *Manager) teardown(reason string) {
	m.log.Warn("connection teardown", "reason", reason)
	m.Disconnect(false)
}

// cleanupFailedAttempt releases a partially-built connection without
// touching the reconnection timer, so a running reconnect loop survives
// its own failed attempts.
func (m *Manager) cleanupFailedAttempt(reason string) {
	m.mu.Lock()
	t := m.transport
	m.transport = nil
	m.sessionID = ""
	m.session = nil
	m.mu.Unlock()

	if t != nil {
		t.Close()
	}
	m.setState(StateDisconnected, reason)
}

func (m *Manager) setState(s State, reason string) {
	m.mu.Lock()
	old := m.state
	m.state = s
	notify := m.notify
	m.mu.Unlock()

	if old == s {
		return
	}
	metrics.ConnectionState.Set(float64(s))
	m.log.Debug("connection state", "from", old.String(), "to", s.String(), "reason", reason)
	if notify != nil {
		notify(StateChange{Old: old, New: s, Reason: reason})
	}
}

// send builds the request, stamps the current session identity into the
// header and performs one bounded-deadline exchange. The stamp happens
// immediately before transmission, so the header can never carry a stale
// session id.
func (m *Manager) send(ctx context.Context, cmd hostrpc.Command, body any) (*hostrpc.Response, error) {
	m.mu.Lock()
	t := m.transport
	sessionID := m.sessionID
	m.mu.Unlock()

	if t == nil {
		return nil, ErrNotConnected
	}

	req, err := hostrpc.NewRequest(cmd, body)
	if err != nil {
		return nil, err
	}
	req.SetSessionID(sessionID)

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	metrics.RPCRequests.WithLabelValues(string(cmd)).Inc()
	start := time.Now()
	resp, err := t.Send(callCtx, req)
	metrics.RPCLatency.WithLabelValues(string(cmd)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RPCErrors.WithLabelValues(string(cmd)).Inc()
		return nil, err
	}

	if err := resp.Err(); err != nil {
		metrics.RPCErrors.WithLabelValues(string(cmd)).Inc()
		return nil, err
	}
	for _, w := range resp.Warnings() {
		m.log.Warn("host warning", "command", cmd, "type", w.Type, "message", w.Message)
	}

	return resp, nil
}

// ping performs one host-ready-check exchange.
func (m *Manager) ping(ctx context.Context) error {
	_, err := m.send(ctx, hostrpc.CmdHostReadyCheck, nil)
	return err
}

func (m *Manager) startHeartbeat() {
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if m.hbCancel != nil {
		m.hbCancel()
	}
	m.hbCancel = cancel
	m.mu.Unlock()

	go m.heartbeatLoop(ctx)
}

// heartbeatLoop probes liveness on a fixed interval while Connected.
// After the configured run of consecutive failures it forces a
// disconnect, which schedules reconnection unless the disconnect was
// manual or the process is shutting down.
func (m *Manager) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := m.ping(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			metrics.HeartbeatFailures.Inc()
			m.log.Warn("heartbeat failed",
				"consecutive", failures,
				"max", m.cfg.HeartbeatMaxMisses,
				"error", err)
			if failures >= m.cfg.HeartbeatMaxMisses {
				m.teardown("heartbeat threshold exceeded")
				m.scheduleReconnect()
				return
			}
			continue
		}
		failures = 0
	}
}

// scheduleReconnect starts the background reconnection loop, unless one
// is already running, the disconnect was manual, or we are shutting down.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if m.manual || m.closing || m.reconnectCancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.reconnectCancel = cancel
	m.mu.Unlock()

	go m.reconnectLoop(ctx)
}

func (m *Manager) reconnectLoop(ctx context.Context) {
	defer func() {
		m.mu.Lock()
		m.reconnectCancel = nil
		m.mu.Unlock()
	}()

	b := m.cfg.Reconnect
	for attempt := 0; ; attempt++ {
		if b.Exhausted(attempt) {
			m.setState(StateFailed, "reconnect attempts exhausted")
			m.log.Error("giving up on reconnection",
				"attempts", b.MaxAttempts,
				"endpoint", m.cfg.Endpoint)
			return
		}

		m.setState(StateReconnecting, fmt.Sprintf("reconnect attempt %d", attempt+1))
		if err := b.Wait(ctx, attempt); err != nil {
			return
		}

		if err := m.Connect(ctx); err != nil {
			m.log.Warn("reconnect attempt failed", "attempt", attempt+1, "error", err)
			continue
		}

		metrics.Reconnects.Inc()
		m.log.Info("reconnected to host", "attempt", attempt+1)
		return
	}
}
