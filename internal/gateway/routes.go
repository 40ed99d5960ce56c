package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saransh1220/notification-sync/internal/gateway/middleware"
	notification_http "github.com/saransh1220/notification-sync/internal/modules/notification/interfaces/http"
)

// RouterConfig holds the handlers and middleware settings needed for routing
type RouterConfig struct {
	NotificationHandler *notification_http.NotificationHandler
	AllowedOrigins      string
	// Metrics defaults to HTTP metrics on the default registry.
	Metrics  *middleware.HTTPMetrics
	Gatherer prometheus.Gatherer
}

// SetupRoutes creates the router for the Query API and the push stream
func SetupRoutes(config RouterConfig) *Router {
	router := NewRouter()

	metrics := config.Metrics
	if metrics == nil {
		metrics = middleware.NewHTTPMetrics(prometheus.DefaultRegisterer)
	}
	gatherer := config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.Use(middleware.CORS(config.AllowedOrigins), metrics.Middleware)

	// Health Check
	router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus Metrics Endpoint
	router.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Notification Routes
	h := config.NotificationHandler
	router.HandleFunc("GET /api/notifications/user/{userId}", h.ListNotifications)
	router.HandleFunc("GET /api/notifications/user/{userId}/unread", h.ListUnread)
	router.HandleFunc("GET /api/notifications/user/{userId}/unread/count", h.UnreadCount)
	router.HandleFunc("GET /api/notifications/user/{userId}/type/{type}", h.ListByType)
	router.HandleFunc("GET /api/notifications/user/{userId}/search", h.Search)
	router.HandleFunc("PATCH /api/notifications/user/{userId}/read-all", h.MarkAllAsRead)
	router.HandleFunc("GET /api/notifications/types", h.ListTypes)
	router.HandleFunc("PATCH /api/notifications/{id}/read", h.MarkAsRead)
	router.HandleFunc("POST /api/notifications", h.Create)

	// Push stream
	router.HandleFunc("GET /ws", h.Subscribe)

	return router
}
