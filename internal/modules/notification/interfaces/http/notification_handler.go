package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/saransh1220/notification-sync/internal/modules/notification/application"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"github.com/saransh1220/notification-sync/internal/modules/notification/infrastructure/websocket"
	"go.uber.org/zap"
)

const (
	defaultPageSize = domain.DefaultPageSize
	maxPageSize     = 100
)

type NotificationHandler struct {
	service *application.NotificationService
	hub     *websocket.Hub
	logger  *zap.Logger
}

func NewNotificationHandler(service *application.NotificationService, hub *websocket.Hub, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{service: service, hub: hub, logger: logger.With(zap.String("component", "notification_http"))}
}

// Subscribe upgrades GET /ws?userId= to the push stream.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		http.Error(w, "invalid userId", http.StatusBadRequest)
		return
	}
	websocket.ServeWs(h.hub, w, r, userID)
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	h.listPage(w, r, func(userID uuid.UUID, page, size int) (domain.Page, error) {
		return h.service.ListAll(r.Context(), userID, page, size)
	})
}

func (h *NotificationHandler) ListUnread(w http.ResponseWriter, r *http.Request) {
	h.listPage(w, r, func(userID uuid.UUID, page, size int) (domain.Page, error) {
		return h.service.ListUnread(r.Context(), userID, page, size)
	})
}

func (h *NotificationHandler) ListByType(w http.ResponseWriter, r *http.Request) {
	notificationType := r.PathValue("type")
	if notificationType == "" {
		http.Error(w, "type is required", http.StatusBadRequest)
		return
	}
	h.listPage(w, r, func(userID uuid.UUID, page, size int) (domain.Page, error) {
		return h.service.ListByType(r.Context(), userID, notificationType, page, size)
	})
}

func (h *NotificationHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if term == "" {
		http.Error(w, "term is required", http.StatusBadRequest)
		return
	}
	h.listPage(w, r, func(userID uuid.UUID, page, size int) (domain.Page, error) {
		return h.service.Search(r.Context(), userID, term, page, size)
	})
}

func (h *NotificationHandler) listPage(w http.ResponseWriter, r *http.Request, fetch func(userID uuid.UUID, page, size int) (domain.Page, error)) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	page, size := pagination(r)

	result, err := fetch(userID, page, size)
	if err != nil {
		h.logger.Error("list notifications failed", zap.Stringer("user_id", userID), zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "failed to fetch notifications", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		h.logger.Error("unread count failed", zap.Stringer("user_id", userID), zap.Error(err))
		http.Error(w, "failed to get unread count", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *NotificationHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ListTypes(r.Context())
	if err != nil {
		h.logger.Error("list types failed", zap.Error(err))
		http.Error(w, "failed to fetch notification types", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, types)
}

// MarkAsRead handles PATCH /api/notifications/{id}/read?userId=.
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	notificationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		http.Error(w, "invalid userId", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkAsRead(r.Context(), notificationID, userID); err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error("mark as read failed", zap.Stringer("notification_id", notificationID), zap.Error(err))
		http.Error(w, "failed to mark notification as read", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkAllAsRead(r.Context(), userID); err != nil {
		h.logger.Error("mark all as read failed", zap.Stringer("user_id", userID), zap.Error(err))
		http.Error(w, "failed to mark all notifications as read", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in application.CreateNotificationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.service.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidNotification) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("create notification failed", zap.Error(err))
		http.Error(w, "failed to create notification", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, n)
}

func (h *NotificationHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response failed", zap.Error(err))
	}
}

func pathUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		http.Error(w, "invalid userId", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return userID, true
}

// pagination reads the 0-indexed page and the page size. Unparseable
// values fall back to the defaults; size is capped at maxPageSize.
func pagination(r *http.Request) (page, size int) {
	size = defaultPageSize
	if p := r.URL.Query().Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v >= 0 {
			page = v
		}
	}
	if s := r.URL.Query().Get("size"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			size = v
		}
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
