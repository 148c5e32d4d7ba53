package kv

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultChannel is the pub/sub channel snapshot changes are announced on.
const DefaultChannel = "rtdb:changes"

// RedisSlot keeps the snapshot in a Redis string without expiry.
type RedisSlot struct {
	c *redis.Client
}

func NewRedisSlot(c *redis.Client) *RedisSlot { return &RedisSlot{c: c} }

func (r *RedisSlot) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", err
	}
	return val, nil
}

func (r *RedisSlot) Set(ctx context.Context, key string, value string) error {
	return r.c.Set(ctx, key, value, 0).Err()
}

func (r *RedisSlot) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, key).Err()
}

// RedisNotifier announces changes over Redis pub/sub.
type RedisNotifier struct {
	c       *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisNotifier(c *redis.Client, channel string, log *zap.Logger) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisNotifier{c: c, channel: channel, log: log}
}

func (n *RedisNotifier) Publish(ctx context.Context, c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return n.c.Publish(ctx, n.channel, payload).Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context) (<-chan Change, error) {
	ps := n.c.Subscribe(ctx, n.channel)
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, err
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					n.log.Warn("dropping malformed change notification", zap.Error(err))
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

var (
	_ Slot     = (*RedisSlot)(nil)
	_ Notifier = (*RedisNotifier)(nil)
)
