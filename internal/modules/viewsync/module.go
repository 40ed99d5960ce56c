package viewsync

import (
	"context"

	"github.com/google/uuid"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"go.uber.org/zap"
)

type Config struct {
	UserID           uuid.UUID
	PageSize         int
	Backoff          Backoff
	FailureThreshold int
	Scheduler        Scheduler
	Logger           *zap.Logger
	Metrics          *Metrics
}

// Module is one live view: a Session fed by a ConnectionManager.
type Module struct {
	session *Session
	conn    *ConnectionManager
	logger  *zap.Logger
}

func NewModule(api domain.QueryAPI, transport domain.PushTransport, cfg Config) *Module {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	session := NewSession(cfg.UserID, api,
		WithLogger(logger),
		WithMetrics(cfg.Metrics),
		WithPageSize(cfg.PageSize),
	)
	conn := NewConnectionManager(ConnectionConfig{
		Transport:        transport,
		UserID:           cfg.UserID,
		Handler:          session.HandlePush,
		OnConnected:      session.Refresh,
		OnStatus:         session.setConnectionError,
		Scheduler:        cfg.Scheduler,
		Backoff:          cfg.Backoff,
		FailureThreshold: cfg.FailureThreshold,
		Logger:           logger,
		Metrics:          cfg.Metrics,
	})
	return &Module{session: session, conn: conn, logger: logger}
}

// Start loads the type list and runs connect, subscribe and the initial
// fetch. When the first connect fails the fetch waits for the retry.
func (m *Module) Start(ctx context.Context) error {
	m.session.refreshTypes(ctx)
	return m.conn.Start(ctx)
}

func (m *Module) Session() *Session {
	return m.session
}

func (m *Module) Connection() *ConnectionManager {
	return m.conn
}

// Close tears the view down. The push transport stays open.
func (m *Module) Close() {
	m.conn.Close()
	m.session.Close()
}
