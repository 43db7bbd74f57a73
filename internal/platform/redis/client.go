// Package redis owns the connection to the shared device-usage cache. All
// keys this process writes live under a single configurable namespace so
// several deployments can share one Redis without colliding.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"steeple/internal/platform/config"
)

// Client wraps the go-redis client with the key namespace and a health
// probe for the readiness endpoint.
type Client struct {
	*redis.Client
	namespace string
}

// New connects and verifies the connection with a ping bounded by the dial
// timeout. Returns nil if the URL is empty (Redis not configured).
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	pingTimeout := cfg.DialTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client, namespace: cfg.KeyNamespace}, nil
}

// Key joins the parts under the configured namespace, colon separated.
func (c *Client) Key(parts ...string) string {
	return strings.Join(append([]string{c.namespace}, parts...), ":")
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.Client.Close()
}
