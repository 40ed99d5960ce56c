package viewsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"go.uber.org/zap"
)

const (
	DefaultReconnectDelay    = 5 * time.Second
	DefaultReconnectMaxDelay = 60 * time.Second
	DefaultFailureThreshold  = 5
)

// State is the push connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateRetryScheduled
	StateClosed
)

var allStates = []State{StateDisconnected, StateConnecting, StateConnected, StateRetryScheduled, StateClosed}

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateRetryScheduled:
		return "retry_scheduled"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnectionConfig wires a ConnectionManager.
type ConnectionConfig struct {
	Transport domain.PushTransport
	UserID    uuid.UUID
	Handler   domain.PushHandler
	// OnConnected runs after every successful connect and subscribe; it is
	// where the initial fetch happens. Its error is logged only.
	OnConnected func(ctx context.Context) error
	// OnStatus receives the error to surface once FailureThreshold
	// consecutive attempts failed, and nil after the next success.
	OnStatus         func(err error)
	Scheduler        Scheduler
	Backoff          Backoff
	FailureThreshold int
	Logger           *zap.Logger
	Metrics          *Metrics
}

// ConnectionManager owns this consumer's use of a shared push transport:
// connect, subscribe, initial fetch, and a single scheduled retry when the
// connect fails or the stream drops. Close only unsubscribes; the
// transport itself stays open for other consumers.
type ConnectionManager struct {
	cfg    ConnectionConfig
	logger *zap.Logger

	mu          sync.Mutex
	state       State
	ctx         context.Context
	cancel      context.CancelFunc
	timer       Timer
	unsubscribe func()
	failures    int
	surfaced    bool
	generation  int
}

func NewConnectionManager(cfg ConnectionConfig) *ConnectionManager {
	if cfg.Scheduler == nil {
		cfg.Scheduler = realScheduler{}
	}
	if cfg.Backoff.Base <= 0 {
		cfg.Backoff.Base = DefaultReconnectDelay
	}
	if cfg.Backoff.Max <= 0 {
		cfg.Backoff.Max = DefaultReconnectMaxDelay
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionManager{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "connection_manager"), zap.Stringer("user_id", cfg.UserID)),
		state:  StateDisconnected,
	}
}

func (m *ConnectionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Failures returns the number of consecutive failed attempts.
func (m *ConnectionManager) Failures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

// Start makes the first attempt synchronously. A failed attempt is not
// returned: a retry is scheduled instead. ctx bounds the whole lifecycle.
func (m *ConnectionManager) Start(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.state == StateClosed:
		m.mu.Unlock()
		return domain.ErrSessionClosed
	case m.ctx != nil:
		m.mu.Unlock()
		return nil
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	m.attempt()
	return nil
}

func (m *ConnectionManager) attempt() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	ctx := m.ctx
	if ctx.Err() != nil {
		m.setStateLocked(StateDisconnected)
		m.mu.Unlock()
		return
	}
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	err := m.cfg.Transport.Connect(ctx, m.cfg.UserID)
	m.cfg.Metrics.observeConnect(err)
	if err != nil {
		if !errors.Is(err, domain.ErrConnection) {
			err = fmt.Errorf("%w: %w", domain.ErrConnection, err)
		}
		m.fail(err)
		return
	}

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.unsubscribe = m.cfg.Transport.Subscribe(m.cfg.Handler)
	disconnected := m.cfg.Transport.Disconnected()
	m.failures = 0
	m.generation++
	gen := m.generation
	surfaced := m.surfaced
	m.surfaced = false
	m.setStateLocked(StateConnected)
	m.mu.Unlock()

	m.logger.Info("push stream subscribed")
	if surfaced && m.cfg.OnStatus != nil {
		m.cfg.OnStatus(nil)
	}
	if m.cfg.OnConnected != nil {
		if err := m.cfg.OnConnected(ctx); err != nil {
			m.logger.Warn("initial fetch after connect failed", zap.Error(err))
		}
	}
	go m.watch(ctx, disconnected, gen)
}

// watch turns a dropped stream into a scheduled retry.
func (m *ConnectionManager) watch(ctx context.Context, disconnected <-chan struct{}, gen int) {
	select {
	case <-ctx.Done():
		return
	case <-disconnected:
	}

	m.mu.Lock()
	if m.state != StateConnected || m.generation != gen {
		m.mu.Unlock()
		return
	}
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	m.logger.Warn("push stream dropped")
	m.fail(fmt.Errorf("%w: stream dropped", domain.ErrConnection))
}

func (m *ConnectionManager) fail(err error) {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	// No retries once the lifecycle context is done.
	if ctxErr := m.ctx.Err(); ctxErr != nil {
		m.setStateLocked(StateDisconnected)
		m.mu.Unlock()
		m.logger.Info("push reconnect abandoned", zap.Error(ctxErr))
		return
	}
	m.failures++
	failures := m.failures
	delay := m.cfg.Backoff.Delay(failures)
	m.timer = m.cfg.Scheduler.AfterFunc(delay, m.attempt)
	m.setStateLocked(StateRetryScheduled)
	surface := failures >= m.cfg.FailureThreshold
	if surface {
		m.surfaced = true
	}
	m.mu.Unlock()

	m.cfg.Metrics.observeRetry(delay)
	m.logger.Info("push reconnect scheduled",
		zap.Duration("delay", delay),
		zap.Int("failures", failures),
		zap.Error(err))
	if surface && m.cfg.OnStatus != nil {
		m.cfg.OnStatus(err)
	}
}

func (m *ConnectionManager) setStateLocked(s State) {
	m.state = s
	m.cfg.Metrics.setState(s)
}

// Close cancels any pending retry and drops this consumer's subscription.
// It is safe to call more than once.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.setStateLocked(StateClosed)
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	m.logger.Info("connection manager closed")
}
