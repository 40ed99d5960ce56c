package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pushServer upgrades every request and writes whatever is sent on out.
type pushServer struct {
	srv     *httptest.Server
	out     chan []byte
	mu      sync.Mutex
	userIDs []string
	kick    chan struct{}
}

func newPushServer(t *testing.T) *pushServer {
	t.Helper()
	ps := &pushServer{out: make(chan []byte, 16), kick: make(chan struct{}, 1)}
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.userIDs = append(ps.userIDs, r.URL.Query().Get("userId"))
		ps.mu.Unlock()
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
		for {
			select {
			case <-gone:
				return
			case msg := <-ps.out:
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-ps.kick:
				return
			}
		}
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *pushServer) url() string {
	return "ws" + strings.TrimPrefix(ps.srv.URL, "http") + "/ws"
}

func (ps *pushServer) dials() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]string(nil), ps.userIDs...)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestStream_DeliversValidMessagesAndDropsMalformed(t *testing.T) {
	ps := newPushServer(t)
	s := NewStream(ps.url(), nil)
	defer s.Close()

	userID := uuid.New()
	require.NoError(t, s.Connect(context.Background(), userID))

	got := make(chan domain.Notification, 4)
	unsub := s.Subscribe(func(n domain.Notification) { got <- n })
	defer unsub()

	good := domain.Notification{ID: uuid.New(), Title: "t", Content: "c", NotificationType: "SYSTEM", ReadStatus: domain.ReadStatusUnread}
	ps.out <- []byte("{not json")
	ps.out <- mustJSON(t, map[string]any{"title": "missing id", "readStatus": "UNREAD"})
	ps.out <- mustJSON(t, good)

	select {
	case n := <-got:
		assert.Equal(t, good.ID, n.ID)
		assert.Equal(t, domain.ReadStatusUnread, n.ReadStatus)
	case <-time.After(2 * time.Second):
		t.Fatal("expected valid notification after malformed ones")
	}
	assert.Len(t, got, 0)
	assert.Equal(t, []string{userID.String()}, ps.dials())
}

func TestStream_ConnectIsIdempotentPerUser(t *testing.T) {
	ps := newPushServer(t)
	s := NewStream(ps.url(), nil)
	defer s.Close()

	userID := uuid.New()
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, userID))
	require.NoError(t, s.Connect(ctx, userID))
	assert.Len(t, ps.dials(), 1)

	err := s.Connect(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrConnection)
}

func TestStream_DisconnectedClosesWhenServerDrops(t *testing.T) {
	ps := newPushServer(t)
	s := NewStream(ps.url(), nil)
	defer s.Close()

	select {
	case <-s.Disconnected():
	default:
		t.Fatal("no live connection should report disconnected")
	}

	require.NoError(t, s.Connect(context.Background(), uuid.New()))
	dropped := s.Disconnected()
	select {
	case <-dropped:
		t.Fatal("live connection reported disconnected")
	default:
	}

	ps.kick <- struct{}{}
	select {
	case <-dropped:
	case <-time.After(2 * time.Second):
		t.Fatal("expected disconnect signal")
	}
}

func TestStream_DialFailure(t *testing.T) {
	s := NewStream("ws://127.0.0.1:1/ws", nil)
	err := s.Connect(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrConnection)
}

func TestStream_CloseIsFinal(t *testing.T) {
	ps := newPushServer(t)
	s := NewStream(ps.url(), nil)
	require.NoError(t, s.Connect(context.Background(), uuid.New()))

	s.Subscribe(func(domain.Notification) {})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 0, s.Subscribers())

	err := s.Connect(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrStreamClosed)
}
