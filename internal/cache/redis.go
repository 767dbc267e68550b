// Package cache wraps the Redis connection used for rate limiting and
// idempotent request replay.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"autoparts/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace      = "autoparts"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
)

// ErrMiss is returned by Get when the key does not exist
var ErrMiss = errors.New("cache miss")

// Client is a thin, namespaced wrapper around a go-redis client
type Client struct {
	raw *redis.Client
}

// New connects to Redis and verifies the connection with a ping
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	raw := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := raw.Ping(pingCtx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Client{raw: raw}, nil
}

// Wrap adopts an existing go-redis client
func Wrap(raw *redis.Client) *Client {
	return &Client{raw: raw}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.raw.Ping(ctx).Err()
}

// Get returns the value at key, or ErrMiss
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.raw.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

// SetNX stores value only when key is absent
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return c.raw.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.raw.Del(ctx, keys...).Err()
}

// FixedWindowAllow counts a hit for scope in the current window. It returns
// whether the hit is within limit, the count so far and the time until the
// window resets.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, time.Duration, error) {
	key := c.RateLimitKey(scope)

	count, err := c.raw.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, 0, err
	}
	if count == 1 {
		if err := c.raw.Expire(ctx, key, window).Err(); err != nil {
			return false, count, 0, err
		}
	}

	ttl, err := c.raw.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return count <= limit, count, ttl, nil
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(idempotencyPrefix, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return buildKey(rateLimitPrefix, scope)
}

func (c *Client) Close() error {
	return c.raw.Close()
}

func buildKey(parts ...string) string {
	return keyNamespace + ":" + strings.Join(parts, ":")
}
