package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "classhub:broadcast"

// envelope is what travels over the Redis channel. An empty Topic means every client.
type envelope struct {
	Topic string          `json:"topic,omitempty"`
	Frame json.RawMessage `json:"frame"`
}

// RedisRelay fans room and global frames out through a Redis channel so
// every process sharing the channel delivers them to its own clients.
// Direct sends and subscriptions stay local to the Hub.
type RedisRelay struct {
	*Hub

	logger  *slog.Logger
	client  *redis.Client
	channel string
}

func NewRedisRelay(logger *slog.Logger, hub *Hub, client *redis.Client, channel string) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}

	return &RedisRelay{
		Hub:     hub,
		logger:  logger.With("component", "broadcast-redis"),
		client:  client,
		channel: channel,
	}
}

func (that *RedisRelay) PublishRoom(ctx context.Context, topic, action string, payload any) error {
	return that.publish(ctx, topic, action, payload)
}

func (that *RedisRelay) PublishAll(ctx context.Context, action string, payload any) error {
	return that.publish(ctx, "", action, payload)
}

func (that *RedisRelay) publish(ctx context.Context, topic, action string, payload any) error {
	frame, err := Encode(action, payload)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope{Topic: topic, Frame: frame})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err = that.client.Publish(ctx, that.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s to redis: %w", action, err)
	}

	return nil
}

// Run delivers frames received on the channel to local clients until ctx is done.
// ready is closed once the subscription is confirmed.
func (that *RedisRelay) Run(ctx context.Context, ready chan<- struct{}) error {
	log := that.logger.With("method", "Run")

	pubsub := that.client.Subscribe(ctx, that.channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			log.Error("failed to close subscription", "error", err)
		}
	}()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", that.channel, err)
	}

	if ready != nil {
		close(ready)
	}

	log.Info("relay subscribed", "channel", that.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Error("failed to unmarshal envelope", "error", err)
				continue
			}

			if env.Topic == "" {
				that.DeliverAll(env.Frame)
				continue
			}

			that.DeliverRoom(env.Topic, env.Frame)
		}
	}
}
