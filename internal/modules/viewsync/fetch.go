package viewsync

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type fetchResult struct {
	page   domain.Page
	unread int
}

// fetch queries the current view and replaces the visible page wholesale.
// On page 1 the unread count is queried alongside and both are applied
// together or not at all. A response whose view no longer matches the
// live one is discarded.
func (s *Session) fetch(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	view := s.view
	s.inflight++
	s.err = nil
	s.mu.Unlock()
	s.notify()

	start := time.Now()
	result, err := s.query(ctx, view)
	s.metrics.observeFetch(view.Query(), err, time.Since(start))

	s.mu.Lock()
	s.inflight--
	stale := s.closed || s.view != view
	switch {
	case stale:
	case err != nil:
		s.err = err
	default:
		s.items = slices.Clone(result.page.Content)
		s.totalPages = result.page.TotalPages
		if view.Page == 1 {
			s.unread = result.unread
			clear(s.acked)
		}
	}
	s.mu.Unlock()

	if stale {
		s.metrics.staleFetch()
		s.logger.Debug("discarding stale fetch",
			zap.String("query", view.Query().String()),
			zap.Int("page", view.Page))
	} else if err != nil {
		s.logger.Warn("fetch failed", zap.String("query", view.Query().String()), zap.Int("page", view.Page), zap.Error(err))
	}
	s.notify()
	return err
}

func (s *Session) query(ctx context.Context, view domain.ViewState) (fetchResult, error) {
	var result fetchResult
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		page, err := s.listPage(ctx, view)
		if err != nil {
			return err
		}
		result.page = page
		return nil
	})
	if view.Page == 1 {
		p.Go(func(ctx context.Context) error {
			n, err := s.api.CountUnread(ctx, s.userID)
			if err != nil {
				return err
			}
			result.unread = n
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return fetchResult{}, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	if result.page.Content == nil {
		result.page.Content = []domain.Notification{}
	}
	return result, nil
}

func (s *Session) listPage(ctx context.Context, view domain.ViewState) (domain.Page, error) {
	return ListPage(ctx, s.api, s.userID, view)
}

// ListPage issues the single paged query view resolves to.
func ListPage(ctx context.Context, api domain.QueryAPI, userID uuid.UUID, view domain.ViewState) (domain.Page, error) {
	switch view.Query() {
	case domain.QuerySearch:
		return api.Search(ctx, userID, view.SearchTerm, view.Page, view.PageSize)
	case domain.QueryUnread:
		return api.ListUnread(ctx, userID, view.Page, view.PageSize)
	case domain.QueryByType:
		return api.ListByType(ctx, userID, string(view.Filter), view.Page, view.PageSize)
	default:
		return api.ListAll(ctx, userID, view.Page, view.PageSize)
	}
}
