package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/saransh1220/notification-sync/internal/gateway/middleware"
	"github.com/saransh1220/notification-sync/internal/modules/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	m, err := notification.NewModule(context.Background(), sqlx.NewDb(sqlDB, "sqlmock"), nil, nil)
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)

	reg := prometheus.NewRegistry()
	router := SetupRoutes(RouterConfig{
		NotificationHandler: m.HTTPHandler(),
		AllowedOrigins:      "http://localhost:4200",
		Metrics:             middleware.NewHTTPMetrics(reg),
		Gatherer:            reg,
	})
	return router.Handler(), mock
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Origin", "http://localhost:4200")
	h.ServeHTTP(rec, req)
	return rec
}

func TestSetupRoutes_HealthCheck(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := serve(h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "http://localhost:4200", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetupRoutes_Metrics(t *testing.T) {
	h, _ := newTestRouter(t)

	serve(h, http.MethodGet, "/health")
	rec := serve(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="GET /health",status="200"} 1`)
}

func TestSetupRoutes_Types(t *testing.T) {
	h, mock := newTestRouter(t)
	mock.ExpectQuery("SELECT DISTINCT notification_type").
		WillReturnRows(sqlmock.NewRows([]string{"notification_type"}).AddRow("billing").AddRow("security"))

	rec := serve(h, http.MethodGet, "/api/notifications/types")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["billing","security"]`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Every user-scoped route reaches the handler, which rejects the bad id.
func TestSetupRoutes_NotificationRoutes(t *testing.T) {
	h, _ := newTestRouter(t)

	routes := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/notifications/user/bad"},
		{http.MethodGet, "/api/notifications/user/bad/unread"},
		{http.MethodGet, "/api/notifications/user/bad/unread/count"},
		{http.MethodGet, "/api/notifications/user/bad/type/billing"},
		{http.MethodGet, "/api/notifications/user/bad/search?term=x"},
		{http.MethodPatch, "/api/notifications/user/bad/read-all"},
		{http.MethodPatch, "/api/notifications/bad/read?userId=bad"},
		{http.MethodGet, "/ws?userId=bad"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.target, func(t *testing.T) {
			rec := serve(h, rt.method, rt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSetupRoutes_CreateRejectsBadBody(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/notifications", strings.NewReader("{"))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetupRoutes_UnknownAndWrongMethod(t *testing.T) {
	h, _ := newTestRouter(t)

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/specs").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodDelete, "/api/notifications/types").Code)
}
