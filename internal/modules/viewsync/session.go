// Package viewsync keeps a paged, filtered view of one user's notifications
// in sync with the Query API and the push stream.
package viewsync

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"go.uber.org/zap"
)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	View        domain.ViewState
	Items       []domain.Notification
	TotalPages  int
	UnreadCount int
	Loading     bool
	// Err is the last fetch or mark-as-read failure. It is cleared when the
	// next fetch is issued.
	Err error
	// ConnectionErr is set once push reconnects keep failing and cleared on
	// the next successful connect.
	ConnectionErr error
	Types         []string
	Marking       map[uuid.UUID]bool
}

func (s Snapshot) IsMarking(id uuid.UUID) bool {
	return s.Marking[id]
}

type watcher struct {
	fn func(Snapshot)
}

// Session owns the view state of one user. Every mutation happens under mu
// and every Query API call happens outside it, so a push can be reconciled
// while a fetch is in flight. Pushes always read the live view.
type Session struct {
	userID  uuid.UUID
	api     domain.QueryAPI
	logger  *zap.Logger
	metrics *Metrics

	mu         sync.Mutex
	view       domain.ViewState
	items      []domain.Notification
	totalPages int
	unread     int
	inflight   int
	err        error
	connErr    error
	types      []string
	marking    map[uuid.UUID]struct{}
	acked      map[uuid.UUID]struct{}
	watchers   []*watcher
	closed     bool
}

type SessionOption func(*Session)

func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithPageSize overrides domain.DefaultPageSize. Values below 1 are ignored.
func WithPageSize(size int) SessionOption {
	return func(s *Session) {
		if size > 0 {
			s.view.PageSize = size
		}
	}
}

func NewSession(userID uuid.UUID, api domain.QueryAPI, opts ...SessionOption) *Session {
	s := &Session{
		userID:  userID,
		api:     api,
		logger:  zap.NewNop(),
		view:    domain.NewViewState(domain.DefaultPageSize),
		items:   []domain.Notification{},
		marking: make(map[uuid.UUID]struct{}),
		acked:   make(map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "view_session"), zap.Stringer("user_id", userID))
	return s
}

func (s *Session) UserID() uuid.UUID {
	return s.userID
}

func (s *Session) SetFilter(ctx context.Context, f domain.Filter) error {
	if err := s.update(func(v domain.ViewState) (domain.ViewState, error) { return v.WithFilter(f), nil }); err != nil {
		return err
	}
	err := s.fetch(ctx)
	s.refreshTypes(ctx)
	return err
}

// SetSearchTerm activates search; an empty term falls back to the filter.
func (s *Session) SetSearchTerm(ctx context.Context, term string) error {
	if err := s.update(func(v domain.ViewState) (domain.ViewState, error) { return v.WithSearchTerm(term), nil }); err != nil {
		return err
	}
	err := s.fetch(ctx)
	s.refreshTypes(ctx)
	return err
}

// SetPage moves to page p (1-indexed).
func (s *Session) SetPage(ctx context.Context, p int) error {
	if err := s.update(func(v domain.ViewState) (domain.ViewState, error) { return v.WithPage(p) }); err != nil {
		return err
	}
	return s.fetch(ctx)
}

// Refresh refetches the current view.
func (s *Session) Refresh(ctx context.Context) error {
	return s.fetch(ctx)
}

func (s *Session) update(change func(domain.ViewState) (domain.ViewState, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	next, err := change(s.view)
	if err != nil {
		return err
	}
	s.view = next
	return nil
}

// LoadTypes refreshes the known notification types.
func (s *Session) LoadTypes(ctx context.Context) error {
	types, err := s.api.ListTypes(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	s.types = slices.Clone(types)
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Session) refreshTypes(ctx context.Context) {
	if err := s.LoadTypes(ctx); err != nil {
		s.logger.Warn("loading notification types failed", zap.Error(err))
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	marking := make(map[uuid.UUID]bool, len(s.marking))
	for id := range s.marking {
		marking[id] = true
	}
	return Snapshot{
		View:          s.view,
		Items:         slices.Clone(s.items),
		TotalPages:    s.totalPages,
		UnreadCount:   s.unread,
		Loading:       s.inflight > 0,
		Err:           s.err,
		ConnectionErr: s.connErr,
		Types:         slices.Clone(s.types),
		Marking:       marking,
	}
}

// Watch registers fn to receive a snapshot after every state change. fn
// runs on the goroutine that made the change and must not block.
func (s *Session) Watch(fn func(Snapshot)) (cancel func()) {
	w := &watcher{fn: fn}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	s.watchers = append(s.watchers, w)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if i := slices.Index(s.watchers, w); i >= 0 {
				s.watchers = slices.Delete(slices.Clone(s.watchers), i, i+1)
			}
		})
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	if len(s.watchers) == 0 {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	watchers := s.watchers
	s.mu.Unlock()

	for _, w := range watchers {
		w.fn(snap)
	}
}

// setConnectionError records the connection manager's status.
func (s *Session) setConnectionError(err error) {
	s.mu.Lock()
	if s.closed || (s.connErr == nil && err == nil) {
		s.mu.Unlock()
		return
	}
	s.connErr = err
	s.mu.Unlock()
	s.notify()
}

// Close stops the session from accepting commands and pushes. It is safe
// to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.watchers = nil
}
