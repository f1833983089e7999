// Package cache provides the Redis-backed rate limiter and job locks.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options tunes the connection pool. Zero values take the defaults below.
type Options struct {
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
}

const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
	defaultDialTimeout  = 5 * time.Second
)

// Cache wraps the Redis client shared by the rate limiter and job locks.
type Cache struct {
	client *redis.Client
	now    func() time.Time
}

// New connects to redisURL and pings it once.
func New(ctx context.Context, redisURL string, opts Options) (*Cache, error) {
	ropt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	applyOptions(ropt, opts)

	client := redis.NewClient(ropt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewFromClient(client), nil
}

func applyOptions(ropt *redis.Options, opts Options) {
	ropt.PoolSize = defaultPoolSize
	if opts.PoolSize > 0 {
		ropt.PoolSize = opts.PoolSize
	}
	ropt.MinIdleConns = defaultMinIdleConns
	if opts.MinIdleConns > 0 {
		ropt.MinIdleConns = min(opts.MinIdleConns, ropt.PoolSize)
	}
	ropt.DialTimeout = defaultDialTimeout
	if opts.DialTimeout > 0 {
		ropt.DialTimeout = opts.DialTimeout
	}
	ropt.PoolTimeout = ropt.DialTimeout + time.Second
	ropt.ConnMaxIdleTime = 5 * time.Minute
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client) *Cache {
	return &Cache{client: client, now: time.Now}
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the raw client to tests that need to flush keys.
func (c *Cache) Client() *redis.Client {
	return c.client
}
