package domain

import (
	"context"

	"github.com/google/uuid"
)

// NotificationRepository is the server-side store behind the Query API.
// List methods also return the total number of matching rows.
type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error)
	ListUnread(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error)
	ListByType(ctx context.Context, userID uuid.UUID, notificationType string, limit, offset int) ([]Notification, int, error)
	Search(ctx context.Context, userID uuid.UUID, term string, limit, offset int) ([]Notification, int, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	ListTypes(ctx context.Context) ([]string, error)
	MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
}

// QueryAPI is the request/response collaborator the client session talks
// to. Pages are 1-indexed here; adapters translate to the wire convention.
type QueryAPI interface {
	ListAll(ctx context.Context, userID uuid.UUID, page, size int) (Page, error)
	ListUnread(ctx context.Context, userID uuid.UUID, page, size int) (Page, error)
	ListByType(ctx context.Context, userID uuid.UUID, notificationType string, page, size int) (Page, error)
	Search(ctx context.Context, userID uuid.UUID, term string, page, size int) (Page, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	ListTypes(ctx context.Context) ([]string, error)
	AcknowledgeRead(ctx context.Context, notificationID, userID uuid.UUID) error
}

// PushHandler receives one pushed notification.
type PushHandler func(Notification)

// PushTransport is the shared push stream.
//
// Connect is idempotent for the same user. Subscribe returns an unsubscribe
// func that may be called more than once. Disconnected returns a channel
// that is closed when the current connection drops; it is already closed
// when there is no live connection.
type PushTransport interface {
	Connect(ctx context.Context, userID uuid.UUID) error
	Subscribe(handler PushHandler) (unsubscribe func())
	Disconnected() <-chan struct{}
}
