package redis

import (
	"context"

	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/messaging"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT BRIDGE
// ══════════════════════════════════════════════════════════════════════════════

// EventBridge adapts the Cache client to the messaging.RedisClient interface
// so the Redis event bus can ride the same connection pool as the caches.
type EventBridge struct {
	cache *Cache
}

// NewEventBridge creates a new EventBridge.
func NewEventBridge(cache *Cache) *EventBridge {
	return &EventBridge{cache: cache}
}

// Publish implements messaging.RedisClient.
func (b *EventBridge) Publish(ctx context.Context, channel string, message interface{}) error {
	// The bus hands over pre-serialized JSON; publish it verbatim.
	if s, ok := message.(string); ok {
		return b.cache.Client().Publish(ctx, channel, s).Err()
	}
	return b.cache.Publish(ctx, channel, message)
}

// Subscribe implements messaging.RedisClient. The returned channel closes
// when ctx is cancelled.
func (b *EventBridge) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	pubsub := b.cache.Subscribe(ctx, channels...)

	// Confirm the subscription before handing back the channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		defer pubsub.Close()

		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close implements messaging.RedisClient. The underlying Cache owns the
// connection; nothing to release here.
func (b *EventBridge) Close() error {
	return nil
}
