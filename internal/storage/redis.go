package storage

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"

	"resolveit/backend/internal/logging"
	"resolveit/backend/internal/models"
)

// EventsChannel is the Redis Pub/Sub channel complaint events travel on.
const EventsChannel = "resolveit:complaint-events"

// RedisBroker fans complaint events out to every API replica.
type RedisBroker struct {
	Redis   *redis.Client
	Channel string
}

// NewRedisBroker Constructor
func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{Redis: rdb, Channel: EventsChannel}
}

// PublishEvent publishes the event as JSON.
func (b *RedisBroker) PublishEvent(ctx context.Context, ev models.ComplaintEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal event", goerr.V("type", ev.Type))
	}
	if err := b.Redis.Publish(ctx, b.Channel, payload).Err(); err != nil {
		return goerr.Wrap(err, "failed to publish event",
			goerr.V("type", ev.Type), goerr.V("complaint_id", ev.ComplaintID))
	}
	return nil
}

// SubscribeEvents delivers events from other replicas (and this one) until
// ctx is cancelled. The returned channel is closed afterwards.
func (b *RedisBroker) SubscribeEvents(ctx context.Context) (<-chan models.ComplaintEvent, error) {
	pubsub := b.Redis.Subscribe(ctx, b.Channel)
	// Wait for the subscription to be confirmed so early events are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, goerr.Wrap(err, "failed to subscribe", goerr.V("channel", b.Channel))
	}

	out := make(chan models.ComplaintEvent, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.ComplaintEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logging.Default().Warn("dropping malformed event", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Ping checks connectivity.
func (b *RedisBroker) Ping(ctx context.Context) error {
	if err := b.Redis.Ping(ctx).Err(); err != nil {
		return goerr.Wrap(err, "redis ping failed")
	}
	return nil
}
