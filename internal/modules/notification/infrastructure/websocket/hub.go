package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"go.uber.org/zap"
)

type UnicastMessage struct {
	UserID  uuid.UUID
	Message []byte
}

type countRequest struct {
	userID uuid.UUID
	reply  chan int
}

// Hub maintains the set of active push connections and fans messages out
// to them. All client bookkeeping happens on the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Messages for every client.
	broadcast chan []byte

	// Messages for one user's clients.
	unicast chan UnicastMessage

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	counts chan countRequest

	// Channel to signal termination
	stop     chan struct{}
	stopOnce sync.Once

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		broadcast:  make(chan []byte),
		unicast:    make(chan UnicastMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),

		clients: make(map[*Client]bool),
		stop:    make(chan struct{}),
		logger:  logger.With(zap.String("component", "websocket_hub")),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info("client registered", zap.String("addr", client.remoteAddr()), zap.Stringer("user_id", client.userID))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("client unregistered", zap.String("addr", client.remoteAddr()), zap.Stringer("user_id", client.userID))
			}
		case message := <-h.broadcast:
			h.logger.Debug("broadcasting message", zap.Int("clients", len(h.clients)))
			for client := range h.clients {
				h.deliver(client, message)
			}
		case msg := <-h.unicast:
			h.logger.Debug("sending unicast", zap.Stringer("user_id", msg.UserID))
			for client := range h.clients {
				if client.userID == msg.UserID {
					h.deliver(client, msg.Message)
				}
			}
		case req := <-h.counts:
			n := 0
			for client := range h.clients {
				if client.userID == req.userID {
					n++
				}
			}
			req.reply <- n
		case <-h.stop:
			h.logger.Info("stopping hub")
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		}
	}
}

// deliver drops a client whose send buffer is full instead of blocking
// every other client behind it.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		close(client.send)
		delete(h.clients, client)
		h.logger.Warn("dropping slow client", zap.Stringer("user_id", client.userID))
	}
}

func (h *Hub) BroadcastMessage(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.stop:
	}
}

func (h *Hub) SendToUser(userID uuid.UUID, message []byte) {
	select {
	case h.unicast <- UnicastMessage{UserID: userID, Message: message}:
	case <-h.stop:
	}
}

// Publish encodes n and unicasts it to n.UserID's local connections.
func (h *Hub) Publish(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	select {
	case h.unicast <- UnicastMessage{UserID: n.UserID, Message: payload}:
		return nil
	case <-h.stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount returns how many live connections the user has. It returns 0
// once the hub is stopped.
func (h *Hub) ClientCount(userID uuid.UUID) int {
	req := countRequest{userID: userID, reply: make(chan int, 1)}
	select {
	case h.counts <- req:
		return <-req.reply
	case <-h.stop:
		return 0
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}
