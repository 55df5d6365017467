package notifier

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Redis pub/sub channel the relay bridges over.
const DefaultChannel = "queue.events"

type relayEnvelope struct {
	NodeID string `json:"node_id"`
	Event  Event  `json:"event"`
}

// RedisRelay bridges hub events across service instances over Redis
// pub/sub: locally published events go out on the channel, and events from
// other nodes are re-published into the local hub. Relay failures are
// logged and never reach the write path.
type RedisRelay struct {
	client  *redis.Client
	hub     *Hub
	channel string
	nodeID  string
	logger  *zap.Logger

	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRedisRelay builds a relay with a fresh node identity.
func NewRedisRelay(client *redis.Client, hub *Hub, channel string, logger *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{
		client:  client,
		hub:     hub,
		channel: channel,
		nodeID:  uuid.NewString(),
		logger:  logger,
	}
}

// Start launches the outbound and inbound pumps.
func (r *RedisRelay) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	sub := r.hub.Subscribe(TopicAll)
	pubsub := r.client.Subscribe(ctx, r.channel)

	r.wg.Add(2)
	go r.forwardLocal(ctx, sub)
	go r.consumeRemote(ctx, pubsub)
}

// Stop tears the pumps down and waits for them to exit.
func (r *RedisRelay) Stop() {
	r.stopOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
	})
	r.wg.Wait()
}

func (r *RedisRelay) forwardLocal(ctx context.Context, sub *Subscription) {
	defer r.wg.Done()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case event := <-sub.Events():
			// Events injected from other nodes carry their origin;
			// forwarding them again would loop.
			if event.Origin != "" {
				continue
			}
			if err := r.publishOut(ctx, event); err != nil {
				r.logger.Warn("relay publish failed", zap.Error(err))
			}
		}
	}
}

func (r *RedisRelay) publishOut(ctx context.Context, event Event) error {
	payload, err := json.Marshal(relayEnvelope{NodeID: r.nodeID, Event: event})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, string(payload)).Err()
}

func (r *RedisRelay) consumeRemote(ctx context.Context, pubsub *redis.PubSub) {
	defer r.wg.Done()
	defer pubsub.Close() //nolint:errcheck

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.handlePayload(msg.Payload)
		}
	}
}

// handlePayload re-publishes one wire message into the local hub, skipping
// echoes of this node's own messages.
func (r *RedisRelay) handlePayload(payload string) {
	var envelope relayEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		r.logger.Warn("relay received malformed payload", zap.Error(err))
		return
	}
	if envelope.NodeID == r.nodeID {
		return
	}
	event := envelope.Event
	event.Origin = envelope.NodeID
	r.hub.Publish(event)
}
