package websocket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_DispatchInOrderToEverySubscriber(t *testing.T) {
	r := NewRegistry(nil)
	var calls []string

	r.Subscribe(func(n domain.Notification) { calls = append(calls, "a:"+n.Title) })
	r.Subscribe(func(n domain.Notification) { calls = append(calls, "b:"+n.Title) })

	r.Dispatch(domain.Notification{ID: uuid.New(), Title: "1"})
	r.Dispatch(domain.Notification{ID: uuid.New(), Title: "2"})

	assert.Equal(t, []string{"a:1", "b:1", "a:2", "b:2"}, calls)
}

func TestRegistry_UnsubscribeIsIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	var a, b int
	unsubA := r.Subscribe(func(domain.Notification) { a++ })
	r.Subscribe(func(domain.Notification) { b++ })
	assert.Equal(t, 2, r.Len())

	unsubA()
	unsubA()
	assert.Equal(t, 1, r.Len())

	r.Dispatch(domain.Notification{ID: uuid.New()})
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
}

func TestRegistry_PanickingHandlerDoesNotBreakDispatch(t *testing.T) {
	r := NewRegistry(nil)
	var got int
	r.Subscribe(func(domain.Notification) { panic("boom") })
	r.Subscribe(func(domain.Notification) { got++ })

	assert.NotPanics(t, func() {
		r.Dispatch(domain.Notification{ID: uuid.New()})
		r.Dispatch(domain.Notification{ID: uuid.New()})
	})
	assert.Equal(t, 2, got)
}

func TestRegistry_AfterClose(t *testing.T) {
	r := NewRegistry(nil)
	unsub := r.Subscribe(func(domain.Notification) { t.Fatal("closed registry must not dispatch") })
	r.Close()

	assert.NotPanics(t, unsub)
	late := r.Subscribe(func(domain.Notification) { t.Fatal("closed registry must not dispatch") })
	assert.NotPanics(t, late)

	r.Dispatch(domain.Notification{ID: uuid.New()})
	assert.Equal(t, 0, r.Len())
}
