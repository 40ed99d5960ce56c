package viewsync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"go.uber.org/zap"
)

// MarkAsRead acknowledges id with the Query API and, only once that
// succeeds, flips the visible entry to READ and decrements the unread
// counter (never below 0). An entry already READ on the visible page, or an
// off-page id already acknowledged since the last page-1 count, does not
// decrement again. A second call for the same id while the first is
// outstanding returns domain.ErrAckInFlight.
func (s *Session) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if _, busy := s.marking[id]; busy {
		s.mu.Unlock()
		return domain.ErrAckInFlight
	}
	s.marking[id] = struct{}{}
	s.mu.Unlock()
	s.notify()

	ackErr := s.api.AcknowledgeRead(ctx, id, s.userID)
	s.metrics.observeAck(ackErr)

	s.mu.Lock()
	delete(s.marking, id)
	if s.closed {
		s.mu.Unlock()
		if ackErr != nil {
			return fmt.Errorf("%w: %w", domain.ErrAck, ackErr)
		}
		return nil
	}
	var err error
	if ackErr != nil {
		err = fmt.Errorf("%w: %w", domain.ErrAck, ackErr)
		s.err = err
	} else {
		s.applyReadLocked(id)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("mark as read failed", zap.Stringer("notification_id", id), zap.Error(err))
	}
	s.notify()
	return err
}

func (s *Session) applyReadLocked(id uuid.UUID) {
	_, seen := s.acked[id]
	s.acked[id] = struct{}{}
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if !s.items[i].IsUnread() {
			return
		}
		s.items[i].ReadStatus = domain.ReadStatusRead
		seen = false
		break
	}
	if !seen && s.unread > 0 {
		s.unread--
	}
}
