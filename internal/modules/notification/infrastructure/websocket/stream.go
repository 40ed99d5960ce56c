package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"go.uber.org/zap"
)

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Stream is the client side of the push stream. One Stream is shared by
// every view of the same user: Connect is idempotent, and consumers only
// ever unsubscribe. The owner calls Close when the process is done with it.
type Stream struct {
	url        string
	dialer     *websocket.Dialer
	registry   *Registry
	logger     *zap.Logger
	pingPeriod time.Duration
	pongWait   time.Duration

	// serializes handshakes so concurrent Connect calls dial once
	dialMu sync.Mutex

	mu     sync.Mutex
	conn   *websocket.Conn
	userID uuid.UUID
	done   chan struct{}
	closed bool
}

type StreamOption func(*Stream)

func WithDialer(d *websocket.Dialer) StreamOption {
	return func(s *Stream) { s.dialer = d }
}

// WithKeepAlive overrides the ping period and the read deadline extension.
func WithKeepAlive(pingPeriod, pongWait time.Duration) StreamOption {
	return func(s *Stream) {
		s.pingPeriod = pingPeriod
		s.pongWait = pongWait
	}
}

func NewStream(rawURL string, logger *zap.Logger, opts ...StreamOption) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "push_stream"))
	s := &Stream{
		url:        rawURL,
		dialer:     websocket.DefaultDialer,
		registry:   NewRegistry(logger),
		logger:     logger,
		pingPeriod: pingPeriod,
		pongWait:   pongWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens the stream for userID. It returns nil right away when the
// stream is already live for that user.
func (s *Stream) Connect(ctx context.Context, userID uuid.UUID) error {
	s.dialMu.Lock()
	defer s.dialMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrStreamClosed
	}
	if s.conn != nil {
		bound := s.userID
		s.mu.Unlock()
		if bound == userID {
			return nil
		}
		return fmt.Errorf("%w: stream already bound to user %s", domain.ErrConnection, bound)
	}
	s.mu.Unlock()

	target, err := s.endpoint(userID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	conn, _, err := s.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}

	done := make(chan struct{})
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return domain.ErrStreamClosed
	}
	s.conn = conn
	s.userID = userID
	s.done = done
	s.mu.Unlock()

	s.logger.Info("push stream connected", zap.Stringer("user_id", userID))
	go s.readLoop(conn, done)
	go s.keepAlive(conn, done)
	return nil
}

func (s *Stream) endpoint(userID uuid.UUID) (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("userId", userID.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Stream) Subscribe(handler domain.PushHandler) func() {
	return s.registry.Subscribe(handler)
}

func (s *Stream) Disconnected() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return closedCh
	}
	return s.done
}

// Subscribers returns the number of registered handlers.
func (s *Stream) Subscribers() int {
	return s.registry.Len()
}

func (s *Stream) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
			s.done = nil
		}
		s.mu.Unlock()
		conn.Close()
		close(done)
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(s.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("push stream dropped", zap.Error(err))
			} else {
				s.logger.Info("push stream closed", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.pongWait))
		s.deliver(message)
	}
}

func (s *Stream) deliver(message []byte) {
	var n domain.Notification
	if err := json.Unmarshal(message, &n); err != nil {
		s.logger.Warn("dropping push message", zap.Error(fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)))
		return
	}
	if err := n.Validate(); err != nil {
		s.logger.Warn("dropping push message", zap.Error(err))
		return
	}
	s.registry.Dispatch(n)
}

func (s *Stream) keepAlive(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(s.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.logger.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}

// Close tears the connection down for every consumer. Only the owner of
// the stream should call it.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	s.registry.Close()
	if conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	return conn.Close()
}
