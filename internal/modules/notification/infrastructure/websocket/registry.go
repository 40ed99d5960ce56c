package websocket

import (
	"sync"

	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"go.uber.org/zap"
)

type subscription struct {
	handler domain.PushHandler
}

// Registry routes pushed notifications to local handlers in subscription
// order. Dispatch is expected to be called from a single goroutine, which
// keeps delivery order intact.
type Registry struct {
	mu     sync.RWMutex
	subs   []*subscription
	closed bool
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger.With(zap.String("component", "push_registry"))}
}

// Subscribe registers handler. The returned func removes it; calls after
// the first, or after Close, do nothing.
func (r *Registry) Subscribe(handler domain.PushHandler) func() {
	sub := &subscription{handler: handler}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return func() {}
	}
	r.subs = append(r.subs, sub)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(sub) })
	}
}

func (r *Registry) remove(sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.subs {
		if s == sub {
			// copy so in-flight dispatch snapshots stay untouched
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return
		}
	}
}

// Dispatch invokes every handler with n. A panicking handler is logged and
// skipped; it never stops delivery to the rest.
func (r *Registry) Dispatch(n domain.Notification) {
	r.mu.RLock()
	subs := r.subs
	r.mu.RUnlock()

	for _, sub := range subs {
		r.invoke(sub, n)
	}
}

func (r *Registry) invoke(sub *subscription, n domain.Notification) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("push handler panicked", zap.Stringer("notification_id", n.ID), zap.Any("panic", rec))
		}
	}()
	sub.handler(n)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Close drops every subscription.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.subs = nil
}
