package services

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisClient narrows the redis pub/sub operations used by services.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message any) error
	Subscribe(ctx context.Context, channels ...string) Subscription
}

// Subscription is the receiving half of a redis subscription.
type Subscription interface {
	Channel() <-chan *redis.Message
	Close() error
}

// RedisAdapter wraps *redis.Client to satisfy RedisClient.
type RedisAdapter struct {
	client *redis.Client
}

// NewRedisAdapter builds a RedisClient adapter around a redis client.
func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Publish(ctx context.Context, channel string, message any) error {
	return r.client.Publish(ctx, channel, message).Err()
}

func (r *RedisAdapter) Subscribe(ctx context.Context, channels ...string) Subscription {
	return pubSubAdapter{ps: r.client.Subscribe(ctx, channels...)}
}

type pubSubAdapter struct {
	ps *redis.PubSub
}

func (p pubSubAdapter) Channel() <-chan *redis.Message {
	return p.ps.Channel()
}

func (p pubSubAdapter) Close() error {
	return p.ps.Close()
}
