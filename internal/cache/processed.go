// Package cache keeps a short-lived record of external references that have
// already been credited, so replayed notifications can be acknowledged
// without touching Postgres. It is never the source of truth.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "ledger:processed:"

type ProcessedRefs struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProcessedRefs(client *redis.Client, ttl time.Duration) *ProcessedRefs {
	return &ProcessedRefs{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache.Connect: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache.Connect: ping: %w", err)
	}
	return client, nil
}

func (c *ProcessedRefs) Seen(ctx context.Context, externalReference string) (bool, error) {
	err := c.client.Get(ctx, keyPrefix+externalReference).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("Seen: %w", err)
	}
	return true, nil
}

func (c *ProcessedRefs) Mark(ctx context.Context, externalReference string) error {
	if err := c.client.Set(ctx, keyPrefix+externalReference, "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("Mark: %w", err)
	}
	return nil
}

func (c *ProcessedRefs) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
