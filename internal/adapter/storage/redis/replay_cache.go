package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ReplayCache implements ports.ReplayCache. It holds the final success
// payload per transaction number so duplicate wallet callbacks and
// pre-approved retries get the original answer back.
type ReplayCache struct {
	client *goredis.Client
	prefix string
}

// NewReplayCache creates a new Redis-backed replay cache.
func NewReplayCache(client *goredis.Client) *ReplayCache {
	return &ReplayCache{
		client: client,
		prefix: "replay:",
	}
}

// Get returns the cached payload, or nil when absent.
func (c *ReplayCache) Get(ctx context.Context, number string) ([]byte, error) {
	payload, err := c.client.Get(ctx, c.prefix+number).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis replay get: %w", err)
	}
	return payload, nil
}

// Set stores the payload for the replay window.
func (c *ReplayCache) Set(ctx context.Context, number string, payload []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+number, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis replay set: %w", err)
	}
	return nil
}
