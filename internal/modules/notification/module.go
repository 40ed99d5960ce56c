package notification

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/notification-sync/internal/modules/notification/application"
	"github.com/saransh1220/notification-sync/internal/modules/notification/infrastructure/cache"
	"github.com/saransh1220/notification-sync/internal/modules/notification/infrastructure/persistence/postgres"
	"github.com/saransh1220/notification-sync/internal/modules/notification/infrastructure/pubsub"
	"github.com/saransh1220/notification-sync/internal/modules/notification/infrastructure/websocket"
	notification_http "github.com/saransh1220/notification-sync/internal/modules/notification/interfaces/http"
	"go.uber.org/zap"
)

type Module struct {
	service *application.NotificationService
	handler *notification_http.NotificationHandler
	hub     *websocket.Hub
	relay   *pubsub.Relay
	logger  *zap.Logger
}

// NewModule wires the server side. With a redis client, pushes fan out
// through redis pub/sub and the type list is cached; without one, pushes
// go straight to the local hub.
func NewModule(ctx context.Context, db *sqlx.DB, rdb *redis.Client, logger *zap.Logger) (*Module, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo := postgres.NewPgNotificationRepository(db)
	hub := websocket.NewHub(logger)
	go hub.Run()

	m := &Module{hub: hub, logger: logger}

	var publisher application.Publisher = hub
	var types application.TypeCache
	if rdb != nil {
		relay := pubsub.NewRelay(rdb, pubsub.DefaultChannel, hub, logger)
		if err := relay.Start(ctx); err != nil {
			hub.Stop()
			return nil, err
		}
		m.relay = relay
		publisher = relay
		types = cache.NewRedisTypeCache(rdb)
	}

	m.service = application.NewNotificationService(repo, publisher, types, logger)
	m.handler = notification_http.NewNotificationHandler(m.service, hub, logger)
	return m, nil
}

func (m *Module) HTTPHandler() *notification_http.NotificationHandler {
	return m.handler
}

func (m *Module) Service() *application.NotificationService {
	return m.service
}

func (m *Module) Hub() *websocket.Hub {
	return m.hub
}

func (m *Module) Shutdown() {
	if m.relay != nil {
		if err := m.relay.Close(); err != nil {
			m.logger.Warn("relay close failed", zap.Error(err))
		}
	}
	m.hub.Stop()
}
