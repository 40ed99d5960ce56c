package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
)

const notificationColumns = `id, user_id, title, content, notification_type, source_service, created_at, read_status`

type PgNotificationRepository struct {
	db *sqlx.DB
}

func NewPgNotificationRepository(db *sqlx.DB) *PgNotificationRepository {
	return &PgNotificationRepository{db: db}
}

func (r *PgNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.ReadStatus == "" {
		n.ReadStatus = domain.ReadStatusUnread
	}
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES (:id, :user_id, :title, :content, :notification_type, :source_service, :created_at, :read_status)
	`
	_, err := r.db.NamedExecContext(ctx, query, n)
	return err
}

func (r *PgNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, int, error) {
	return r.list(ctx, `user_id = $1`, []any{userID}, limit, offset)
}

func (r *PgNotificationRepository) ListUnread(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, int, error) {
	return r.list(ctx, `user_id = $1 AND read_status = 'UNREAD'`, []any{userID}, limit, offset)
}

func (r *PgNotificationRepository) ListByType(ctx context.Context, userID uuid.UUID, notificationType string, limit, offset int) ([]domain.Notification, int, error) {
	return r.list(ctx, `user_id = $1 AND notification_type = $2`, []any{userID, notificationType}, limit, offset)
}

// Search matches term as a case-insensitive substring of content or title.
func (r *PgNotificationRepository) Search(ctx context.Context, userID uuid.UUID, term string, limit, offset int) ([]domain.Notification, int, error) {
	pattern := "%" + escapeLike(term) + "%"
	return r.list(ctx, `user_id = $1 AND (content ILIKE $2 OR title ILIKE $2)`, []any{userID, pattern}, limit, offset)
}

func (r *PgNotificationRepository) list(ctx context.Context, where string, args []any, limit, offset int) ([]domain.Notification, int, error) {
	n := len(args)
	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, notificationColumns, where, n+1, n+2)

	var notifications []domain.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, append(args, limit, offset)...); err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM notifications WHERE ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *PgNotificationRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND read_status = 'UNREAD'
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}

func (r *PgNotificationRepository) ListTypes(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT notification_type FROM notifications ORDER BY notification_type`
	var types []string
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, err
	}
	return types, nil
}

func (r *PgNotificationRepository) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read_status = 'READ'
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *PgNotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read_status = 'READ'
		WHERE user_id = $1 AND read_status = 'UNREAD'
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
