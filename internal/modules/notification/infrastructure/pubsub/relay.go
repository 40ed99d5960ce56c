package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"go.uber.org/zap"
)

const DefaultChannel = "notifications:created"

// Sender delivers an encoded notification to one user's local connections.
type Sender interface {
	SendToUser(userID uuid.UUID, message []byte)
}

// Relay fans created notifications out across server instances: Publish
// writes to a redis channel and every instance's Relay forwards what it
// hears to its own hub.
type Relay struct {
	client  *redis.Client
	channel string
	local   Sender
	logger  *zap.Logger

	mu   sync.Mutex
	sub  *redis.PubSub
	done chan struct{}
}

func NewRelay(client *redis.Client, channel string, local Sender, logger *zap.Logger) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		client:  client,
		channel: channel,
		local:   local,
		logger:  logger.With(zap.String("component", "push_relay")),
	}
}

func (r *Relay) Publish(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Start subscribes to the channel and forwards messages until ctx is done
// or Close is called. It returns once the subscription is confirmed.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return nil
	}

	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.sub = sub
	r.done = make(chan struct{})

	go r.forward(ctx, sub, r.done)
	r.logger.Info("relay subscribed", zap.String("channel", r.channel))
	return nil
}

func (r *Relay) forward(ctx context.Context, sub *redis.PubSub, done chan struct{}) {
	defer close(done)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			sub.Close()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.relay(msg.Payload)
		}
	}
}

func (r *Relay) relay(payload string) {
	var n domain.Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		r.logger.Warn("dropping relay message", zap.Error(err))
		return
	}
	if n.UserID == uuid.Nil {
		r.logger.Warn("dropping relay message without user", zap.Stringer("notification_id", n.ID))
		return
	}
	r.local.SendToUser(n.UserID, []byte(payload))
}

// Close stops forwarding and waits for the loop to exit.
func (r *Relay) Close() error {
	r.mu.Lock()
	sub, done := r.sub, r.done
	r.sub, r.done = nil, nil
	r.mu.Unlock()

	if sub == nil {
		return nil
	}
	err := sub.Close()
	<-done
	return err
}
