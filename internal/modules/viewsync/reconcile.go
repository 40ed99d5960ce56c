package viewsync

import (
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"go.uber.org/zap"
)

// Disposition is what reconciling one push did to the session.
type Disposition int

const (
	// DispositionIgnored: no state changed.
	DispositionIgnored Disposition = iota
	// DispositionCounted: only the unread counter moved.
	DispositionCounted
	// DispositionInserted: the item was prepended to the visible page.
	DispositionInserted
	// DispositionDuplicate: the item was already visible.
	DispositionDuplicate
	// DispositionMalformed: the payload was dropped.
	DispositionMalformed
	// DispositionClosed: the session no longer accepts pushes.
	DispositionClosed
)

func (d Disposition) String() string {
	switch d {
	case DispositionIgnored:
		return "ignored"
	case DispositionCounted:
		return "counted"
	case DispositionInserted:
		return "inserted"
	case DispositionDuplicate:
		return "duplicate"
	case DispositionMalformed:
		return "malformed"
	case DispositionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// HandlePush reconciles one pushed notification against the live view.
// It never panics on bad input and is safe to use as a domain.PushHandler.
func (s *Session) HandlePush(n domain.Notification) {
	d := s.Reconcile(n)
	s.metrics.observePush(d)
	switch d {
	case DispositionMalformed:
		s.logger.Warn("dropping push message", zap.Stringer("notification_id", n.ID), zap.String("read_status", string(n.ReadStatus)))
	case DispositionCounted, DispositionInserted, DispositionDuplicate:
		s.notify()
	}
}

// Reconcile applies n and reports what happened. An unread push always
// bumps the counter; it only joins the visible page when the live view
// admits it, the view is on page 1 and the id is not already shown. The
// page is then truncated back to the page size; totalPages is left as is
// until the next fetch.
func (s *Session) Reconcile(n domain.Notification) Disposition {
	if err := n.Validate(); err != nil {
		return DispositionMalformed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return DispositionClosed
	}

	counted := false
	if n.IsUnread() {
		s.unread++
		counted = true
	}

	view := s.view
	if view.Page != 1 || !view.Admits(n) {
		if counted {
			return DispositionCounted
		}
		return DispositionIgnored
	}

	for _, item := range s.items {
		if item.ID == n.ID {
			return DispositionDuplicate
		}
	}

	size := min(len(s.items)+1, view.PageSize)
	items := make([]domain.Notification, 0, size)
	items = append(items, n)
	items = append(items, s.items[:size-1]...)
	s.items = items
	return DispositionInserted
}
