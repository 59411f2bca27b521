package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the client shared by the notification broker and
// the rate limiter.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type RedisDB struct {
	Client *redis.Client
}

var (
	newRedisClient = redis.NewClient
	redisPing      = func(ctx context.Context, client *redis.Client) error { return client.Ping(ctx).Err() }
)

func NewRedisDB(ctx context.Context, opts RedisOptions) (*RedisDB, error) {
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := newRedisClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     poolSize,
		MinIdleConns: 3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := redisPing(pingCtx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}

	return &RedisDB{Client: client}, nil
}

func (db *RedisDB) Close() error {
	if db.Client == nil {
		return nil
	}
	return db.Client.Close()
}

func (db *RedisDB) Health(ctx context.Context) error {
	if db.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return redisPing(ctx, db.Client)
}
