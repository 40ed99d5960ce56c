package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"go.uber.org/zap"
)

// Publisher pushes a freshly created notification to its user's stream.
type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// TypeCache caches the distinct notification type list.
type TypeCache interface {
	Get(ctx context.Context) ([]string, bool, error)
	Set(ctx context.Context, types []string) error
	Invalidate(ctx context.Context) error
}

type CreateNotificationInput struct {
	UserID           uuid.UUID `json:"userId"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	NotificationType string    `json:"notificationType"`
	SourceService    string    `json:"sourceService"`
}

type NotificationService struct {
	repo      domain.NotificationRepository
	publisher Publisher
	types     TypeCache
	logger    *zap.Logger
}

// NewNotificationService wires the service. types may be nil, in which
// case every ListTypes call hits the repository.
func NewNotificationService(repo domain.NotificationRepository, publisher Publisher, types TypeCache, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		types:     types,
		logger:    logger.With(zap.String("component", "notification_service")),
	}
}

// Create stores the notification and pushes it to the user. A failed push
// is logged, not returned: the notification exists and the next fetch
// will surface it.
func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*domain.Notification, error) {
	if in.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrInvalidNotification)
	}
	if in.NotificationType == "" {
		return nil, fmt.Errorf("%w: notificationType is required", domain.ErrInvalidNotification)
	}
	if in.Title == "" && in.Content == "" {
		return nil, fmt.Errorf("%w: title or content is required", domain.ErrInvalidNotification)
	}

	notification := &domain.Notification{
		ID:               uuid.New(),
		UserID:           in.UserID,
		Title:            in.Title,
		Content:          in.Content,
		NotificationType: in.NotificationType,
		SourceService:    in.SourceService,
		CreatedAt:        time.Now().UTC(),
		ReadStatus:       domain.ReadStatusUnread,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	if s.types != nil {
		if err := s.types.Invalidate(ctx); err != nil {
			s.logger.Warn("type cache invalidation failed", zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, *notification); err != nil {
			s.logger.Warn("push failed", zap.Stringer("notification_id", notification.ID), zap.Error(err))
		}
	}
	return notification, nil
}

// ListAll and the other list methods take a 0-indexed page.
func (s *NotificationService) ListAll(ctx context.Context, userID uuid.UUID, page, size int) (domain.Page, error) {
	return toPage(s.repo.ListByUser(ctx, userID, size, page*size))(size)
}

func (s *NotificationService) ListUnread(ctx context.Context, userID uuid.UUID, page, size int) (domain.Page, error) {
	return toPage(s.repo.ListUnread(ctx, userID, size, page*size))(size)
}

func (s *NotificationService) ListByType(ctx context.Context, userID uuid.UUID, notificationType string, page, size int) (domain.Page, error) {
	return toPage(s.repo.ListByType(ctx, userID, notificationType, size, page*size))(size)
}

func (s *NotificationService) Search(ctx context.Context, userID uuid.UUID, term string, page, size int) (domain.Page, error) {
	return toPage(s.repo.Search(ctx, userID, term, size, page*size))(size)
}

func toPage(items []domain.Notification, total int, err error) func(size int) (domain.Page, error) {
	return func(size int) (domain.Page, error) {
		if err != nil {
			return domain.Page{}, err
		}
		if items == nil {
			items = []domain.Notification{}
		}
		return domain.Page{
			Content:       items,
			TotalPages:    domain.TotalPagesFor(total, size),
			TotalElements: total,
		}, nil
	}
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *NotificationService) ListTypes(ctx context.Context) ([]string, error) {
	if s.types != nil {
		types, ok, err := s.types.Get(ctx)
		if err != nil {
			s.logger.Warn("type cache read failed", zap.Error(err))
		} else if ok {
			return types, nil
		}
	}

	types, err := s.repo.ListTypes(ctx)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []string{}
	}
	if s.types != nil {
		if err := s.types.Set(ctx, types); err != nil {
			s.logger.Warn("type cache write failed", zap.Error(err))
		}
	}
	return types, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
