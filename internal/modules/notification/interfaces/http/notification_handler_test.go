package http_test

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/saransh1220/notification-sync/internal/modules/notification/application"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	ws "github.com/saransh1220/notification-sync/internal/modules/notification/infrastructure/websocket"
	notificationhttp "github.com/saransh1220/notification-sync/internal/modules/notification/interfaces/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listCall struct {
	kind          string
	arg           string
	limit, offset int
}

type notificationRepoStub struct {
	calls         []listCall
	items         []domain.Notification
	total         int
	listErr       error
	unread        int
	types         []string
	markErr       error
	markAllErr    error
	createErr     error
	created       []*domain.Notification
	markedID      uuid.UUID
	markedForUser uuid.UUID
}

func (s *notificationRepoStub) list(kind, arg string, limit, offset int) ([]domain.Notification, int, error) {
	s.calls = append(s.calls, listCall{kind, arg, limit, offset})
	return s.items, s.total, s.listErr
}

func (s *notificationRepoStub) Create(_ context.Context, n *domain.Notification) error {
	s.created = append(s.created, n)
	return s.createErr
}
func (s *notificationRepoStub) ListByUser(_ context.Context, _ uuid.UUID, limit, offset int) ([]domain.Notification, int, error) {
	return s.list("all", "", limit, offset)
}
func (s *notificationRepoStub) ListUnread(_ context.Context, _ uuid.UUID, limit, offset int) ([]domain.Notification, int, error) {
	return s.list("unread", "", limit, offset)
}
func (s *notificationRepoStub) ListByType(_ context.Context, _ uuid.UUID, t string, limit, offset int) ([]domain.Notification, int, error) {
	return s.list("type", t, limit, offset)
}
func (s *notificationRepoStub) Search(_ context.Context, _ uuid.UUID, term string, limit, offset int) ([]domain.Notification, int, error) {
	return s.list("search", term, limit, offset)
}
func (s *notificationRepoStub) UnreadCount(context.Context, uuid.UUID) (int, error) {
	return s.unread, nil
}
func (s *notificationRepoStub) ListTypes(context.Context) ([]string, error) {
	return s.types, nil
}
func (s *notificationRepoStub) MarkAsRead(_ context.Context, notificationID, userID uuid.UUID) error {
	s.markedID, s.markedForUser = notificationID, userID
	return s.markErr
}
func (s *notificationRepoStub) MarkAllAsRead(context.Context, uuid.UUID) error {
	return s.markAllErr
}

func newHandler(t *testing.T, repo *notificationRepoStub) (*notificationhttp.NotificationHandler, *ws.Hub) {
	t.Helper()
	hub := ws.NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)
	svc := application.NewNotificationService(repo, hub, nil, nil)
	return notificationhttp.NewNotificationHandler(svc, hub, nil), hub
}

func userRequest(method, target string, userID uuid.UUID) *stdhttp.Request {
	req := httptest.NewRequest(method, target, nil)
	req.SetPathValue("userId", userID.String())
	return req
}

func TestNotificationHandler_ListNotifications(t *testing.T) {
	userID := uuid.New()
	repo := &notificationRepoStub{
		items: []domain.Notification{{ID: uuid.New(), Title: "A", ReadStatus: domain.ReadStatusUnread}},
		total: 12,
	}
	h, _ := newHandler(t, repo)

	w := httptest.NewRecorder()
	h.ListNotifications(w, userRequest(stdhttp.MethodGet, "/api/notifications/user/x?page=1&size=5", userID))
	require.Equal(t, stdhttp.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var page domain.Page
	require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
	assert.Len(t, page.Content, 1)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 12, page.TotalElements)
	assert.Equal(t, []listCall{{"all", "", 5, 5}}, repo.calls)
}

func TestNotificationHandler_Pagination(t *testing.T) {
	userID := uuid.New()

	t.Run("defaults", func(t *testing.T) {
		repo := &notificationRepoStub{}
		h, _ := newHandler(t, repo)
		w := httptest.NewRecorder()
		h.ListUnread(w, userRequest(stdhttp.MethodGet, "/api/notifications/user/x/unread", userID))
		require.Equal(t, stdhttp.StatusOK, w.Code)
		assert.Equal(t, []listCall{{"unread", "", 10, 0}}, repo.calls)
		assert.Contains(t, w.Body.String(), `"content":[]`)
	})

	t.Run("size capped", func(t *testing.T) {
		repo := &notificationRepoStub{}
		h, _ := newHandler(t, repo)
		w := httptest.NewRecorder()
		h.ListUnread(w, userRequest(stdhttp.MethodGet, "/api/notifications/user/x/unread?size=1000", userID))
		require.Equal(t, stdhttp.StatusOK, w.Code)
		assert.Equal(t, []listCall{{"unread", "", 100, 0}}, repo.calls)
	})

	for _, q := range []string{"page=-1", "page=abc&size=0", "size=x"} {
		t.Run("invalid falls back "+q, func(t *testing.T) {
			repo := &notificationRepoStub{}
			h, _ := newHandler(t, repo)
			w := httptest.NewRecorder()
			h.ListNotifications(w, userRequest(stdhttp.MethodGet, "/api/notifications/user/x?"+q, userID))
			assert.Equal(t, stdhttp.StatusOK, w.Code)
			assert.Equal(t, []listCall{{"all", "", 10, 0}}, repo.calls)
		})
	}
}

func TestNotificationHandler_TypeAndSearch(t *testing.T) {
	userID := uuid.New()
	repo := &notificationRepoStub{}
	h, _ := newHandler(t, repo)

	req := userRequest(stdhttp.MethodGet, "/api/notifications/user/x/type/billing", userID)
	req.SetPathValue("type", "billing")
	w := httptest.NewRecorder()
	h.ListByType(w, req)
	require.Equal(t, stdhttp.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.Search(w, userRequest(stdhttp.MethodGet, "/api/notifications/user/x/search?term=late+fee&page=2", userID))
	require.Equal(t, stdhttp.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.Search(w, userRequest(stdhttp.MethodGet, "/api/notifications/user/x/search", userID))
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)

	assert.Equal(t, []listCall{{"type", "billing", 10, 0}, {"search", "late fee", 10, 20}}, repo.calls)
}

func TestNotificationHandler_BadUserAndServiceError(t *testing.T) {
	repo := &notificationRepoStub{listErr: errors.New("db down")}
	h, _ := newHandler(t, repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodGet, "/api/notifications/user/nope", nil)
	req.SetPathValue("userId", "nope")
	h.ListNotifications(w, req)
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.ListNotifications(w, userRequest(stdhttp.MethodGet, "/api/notifications/user/x", uuid.New()))
	assert.Equal(t, stdhttp.StatusInternalServerError, w.Code)
}

func TestNotificationHandler_CountAndTypes(t *testing.T) {
	repo := &notificationRepoStub{unread: 3, types: []string{"billing"}}
	h, _ := newHandler(t, repo)

	w := httptest.NewRecorder()
	h.UnreadCount(w, userRequest(stdhttp.MethodGet, "/api/notifications/user/x/unread/count", uuid.New()))
	require.Equal(t, stdhttp.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":3}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ListTypes(w, httptest.NewRequest(stdhttp.MethodGet, "/api/notifications/types", nil))
	require.Equal(t, stdhttp.StatusOK, w.Code)
	assert.JSONEq(t, `["billing"]`, w.Body.String())
}

func TestNotificationHandler_MarkAsRead(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()

	markReq := func(id, user string) *stdhttp.Request {
		req := httptest.NewRequest(stdhttp.MethodPatch, "/api/notifications/"+id+"/read?userId="+user, nil)
		req.SetPathValue("id", id)
		return req
	}

	repo := &notificationRepoStub{}
	h, _ := newHandler(t, repo)

	w := httptest.NewRecorder()
	h.MarkAsRead(w, markReq(notificationID.String(), userID.String()))
	assert.Equal(t, stdhttp.StatusNoContent, w.Code)
	assert.Equal(t, notificationID, repo.markedID)
	assert.Equal(t, userID, repo.markedForUser)

	w = httptest.NewRecorder()
	h.MarkAsRead(w, markReq("bad", userID.String()))
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.MarkAsRead(w, markReq(notificationID.String(), "bad"))
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)

	repo.markErr = domain.ErrNotificationNotFound
	w = httptest.NewRecorder()
	h.MarkAsRead(w, markReq(notificationID.String(), userID.String()))
	assert.Equal(t, stdhttp.StatusNotFound, w.Code)

	repo.markErr = errors.New("db down")
	w = httptest.NewRecorder()
	h.MarkAsRead(w, markReq(notificationID.String(), userID.String()))
	assert.Equal(t, stdhttp.StatusInternalServerError, w.Code)
}

func TestNotificationHandler_MarkAllAsRead(t *testing.T) {
	repo := &notificationRepoStub{}
	h, _ := newHandler(t, repo)

	w := httptest.NewRecorder()
	h.MarkAllAsRead(w, userRequest(stdhttp.MethodPatch, "/api/notifications/user/x/read-all", uuid.New()))
	assert.Equal(t, stdhttp.StatusNoContent, w.Code)

	repo.markAllErr = errors.New("db down")
	w = httptest.NewRecorder()
	h.MarkAllAsRead(w, userRequest(stdhttp.MethodPatch, "/api/notifications/user/x/read-all", uuid.New()))
	assert.Equal(t, stdhttp.StatusInternalServerError, w.Code)
}

func TestNotificationHandler_Create(t *testing.T) {
	userID := uuid.New()
	repo := &notificationRepoStub{}
	h, _ := newHandler(t, repo)

	body := `{"userId":"` + userID.String() + `","title":"Invoice","content":"Your invoice is ready","notificationType":"billing"}`
	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(stdhttp.MethodPost, "/api/notifications", strings.NewReader(body)))
	require.Equal(t, stdhttp.StatusCreated, w.Code)

	var got domain.Notification
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, domain.ReadStatusUnread, got.ReadStatus)
	require.Len(t, repo.created, 1)

	w = httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(stdhttp.MethodPost, "/api/notifications", strings.NewReader("{")))
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(stdhttp.MethodPost, "/api/notifications", strings.NewReader(`{"title":"x"}`)))
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)

	repo.createErr = errors.New("db down")
	w = httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(stdhttp.MethodPost, "/api/notifications", strings.NewReader(body)))
	assert.Equal(t, stdhttp.StatusInternalServerError, w.Code)
}

func TestNotificationHandler_SubscribeRequiresUser(t *testing.T) {
	h, _ := newHandler(t, &notificationRepoStub{})

	w := httptest.NewRecorder()
	h.Subscribe(w, httptest.NewRequest(stdhttp.MethodGet, "/ws", nil))
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)
}
