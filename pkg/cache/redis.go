// Package cache holds the Redis-backed read models and the pub/sub notifier
// that drives live snapshot subscriptions.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// RedisOptions tunes the shared client. Zero fields fall back to go-redis
// defaults, except Timeout which defaults to 3s.
type RedisOptions struct {
	URL string
	// Name is sent with CLIENT SETNAME so connections are attributable per process.
	Name     string
	PoolSize int
	Timeout  time.Duration
	// ConnectAttempts bounds the startup ping; containers often start before Redis.
	ConnectAttempts int
}

func (o RedisOptions) build() (*redis.Options, error) {
	opts, err := redis.ParseURL(o.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	opts.ClientName = o.Name
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout
	opts.DialTimeout = 2 * timeout
	if o.PoolSize > 0 {
		opts.PoolSize = o.PoolSize
		opts.MinIdleConns = max(o.PoolSize/10, 1)
	}
	return opts, nil
}

// RedisClient is the connection pool shared by sessions, the product cache
// and the snapshot notifier.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects and pings with exponential backoff until
// o.ConnectAttempts pings have failed or ctx ends.
func NewRedisClient(ctx context.Context, o RedisOptions) (*RedisClient, error) {
	opts, err := o.build()
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	backoff := retry.WithMaxRetries(uint64(max(o.ConnectAttempts-1, 0)), retry.NewExponential(250*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return &RedisClient{client: rdb}, nil
}

// Ping satisfies httpx.HealthChecker.
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Client exposes the pool for packages that issue their own commands.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}
