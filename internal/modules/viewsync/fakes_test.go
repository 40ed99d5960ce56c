package viewsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
)

type apiCall struct {
	method string
	arg    string
	page   int
	size   int
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall

	listFn  func(ctx context.Context, call apiCall) (domain.Page, error)
	countFn func(ctx context.Context) (int, error)
	typesFn func(ctx context.Context) ([]string, error)
	ackFn   func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeAPI) record(c apiCall) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func (f *fakeAPI) count(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.method == method {
			n++
		}
	}
	return n
}

func (f *fakeAPI) list(ctx context.Context, c apiCall) (domain.Page, error) {
	f.record(c)
	if f.listFn == nil {
		return domain.Page{}, nil
	}
	return f.listFn(ctx, c)
}

func (f *fakeAPI) ListAll(ctx context.Context, _ uuid.UUID, page, size int) (domain.Page, error) {
	return f.list(ctx, apiCall{method: "all", page: page, size: size})
}

func (f *fakeAPI) ListUnread(ctx context.Context, _ uuid.UUID, page, size int) (domain.Page, error) {
	return f.list(ctx, apiCall{method: "unread", page: page, size: size})
}

func (f *fakeAPI) ListByType(ctx context.Context, _ uuid.UUID, t string, page, size int) (domain.Page, error) {
	return f.list(ctx, apiCall{method: "type", arg: t, page: page, size: size})
}

func (f *fakeAPI) Search(ctx context.Context, _ uuid.UUID, term string, page, size int) (domain.Page, error) {
	return f.list(ctx, apiCall{method: "search", arg: term, page: page, size: size})
}

func (f *fakeAPI) CountUnread(ctx context.Context, _ uuid.UUID) (int, error) {
	f.record(apiCall{method: "count"})
	if f.countFn == nil {
		return 0, nil
	}
	return f.countFn(ctx)
}

func (f *fakeAPI) ListTypes(ctx context.Context) ([]string, error) {
	f.record(apiCall{method: "types"})
	if f.typesFn == nil {
		return nil, nil
	}
	return f.typesFn(ctx)
}

func (f *fakeAPI) AcknowledgeRead(ctx context.Context, id, _ uuid.UUID) error {
	f.record(apiCall{method: "ack", arg: id.String()})
	if f.ackFn == nil {
		return nil
	}
	return f.ackFn(ctx, id)
}

func note(title string, status domain.ReadStatus) domain.Notification {
	return domain.Notification{
		ID:               uuid.New(),
		Title:            title,
		Content:          title + " content",
		NotificationType: "system",
		SourceService:    "tests",
		CreatedAt:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ReadStatus:       status,
	}
}

func notes(n int) []domain.Notification {
	out := make([]domain.Notification, n)
	for i := range out {
		out[i] = note(fmt.Sprintf("n%d", i), domain.ReadStatusUnread)
	}
	return out
}

func ids(items []domain.Notification) []uuid.UUID {
	out := make([]uuid.UUID, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}

// fakeTransport is a PushTransport whose connect results are scripted.
type fakeTransport struct {
	mu          sync.Mutex
	connectErrs []error
	onConnect   func()
	connects    int
	handlers    map[int]domain.PushHandler
	nextID      int
	subscribes  int
	done        chan struct{}
}

func newFakeTransport(connectErrs ...error) *fakeTransport {
	return &fakeTransport{connectErrs: connectErrs, handlers: map[int]domain.PushHandler{}}
}

func (t *fakeTransport) Connect(ctx context.Context, _ uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.connects
	t.connects++
	if t.onConnect != nil {
		t.onConnect()
	}
	if i < len(t.connectErrs) && t.connectErrs[i] != nil {
		return t.connectErrs[i]
	}
	if t.done == nil {
		t.done = make(chan struct{})
	}
	return nil
}

func (t *fakeTransport) Subscribe(h domain.PushHandler) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.subscribes++
	t.handlers[id] = h
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.handlers, id)
	}
}

func (t *fakeTransport) Disconnected() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return t.done
}

// drop simulates the stream going away.
func (t *fakeTransport) drop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		close(t.done)
		t.done = nil
	}
}

func (t *fakeTransport) push(n domain.Notification) {
	t.mu.Lock()
	hs := make([]domain.PushHandler, 0, len(t.handlers))
	for _, h := range t.handlers {
		hs = append(hs, h)
	}
	t.mu.Unlock()
	for _, h := range hs {
		h(n)
	}
}

func (t *fakeTransport) stats() (connects, subscribes, live int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connects, t.subscribes, len(t.handlers)
}

// manualScheduler records scheduled calls; tests fire them explicitly.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
	s       *manualScheduler
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{delay: d, f: f, s: s}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// pending returns the timers that are neither stopped nor fired.
func (s *manualScheduler) pending() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func (s *manualScheduler) delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.timers))
	for i, t := range s.timers {
		out[i] = t.delay
	}
	return out
}

// fire runs the only pending timer on the calling goroutine.
func (s *manualScheduler) fire() bool {
	p := s.pending()
	if len(p) != 1 {
		return false
	}
	t := p[0]
	s.mu.Lock()
	t.fired = true
	s.mu.Unlock()
	t.f()
	return true
}
