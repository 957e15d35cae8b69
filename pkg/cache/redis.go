package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

// RedisClient is the connection pool shared by the item cache and the
// health check.
type RedisClient struct {
	client *redis.Client
}

// poolOptions sizes the pool for short GET/SET/DEL calls: a failing Redis
// must not hold up an item request for long.
func poolOptions(opts *redis.Options) {
	opts.PoolSize = 10
	opts.MinIdleConns = 1
	opts.MaxRetries = 2
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second
	opts.PoolTimeout = 2 * time.Second
}

// NewRedisClient connects to the Redis at url (redis:// or rediss://) and
// pings it before returning.
func NewRedisClient(ctx context.Context, url string) (*RedisClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	poolOptions(opts)

	rc := &RedisClient{client: redis.NewClient(opts)}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		_ = rc.client.Close()
		return nil, err
	}
	return rc, nil
}

// NewRedisClientFrom wraps an existing client, e.g. one built in tests.
func NewRedisClientFrom(rdb *redis.Client) *RedisClient {
	return &RedisClient{client: rdb}
}

// Ping checks the connection.
func (r *RedisClient) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	return nil
}

// Close releases the pool. It is safe on a nil client.
func (r *RedisClient) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("cache: redis close: %w", err)
	}
	return nil
}

// Client returns the underlying redis.Client.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}
