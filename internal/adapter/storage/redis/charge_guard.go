package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ChargeGuard implements ports.ChargeGuard using Redis SET NX. It is
// the fast path of the at-most-one-charge invariant; the database
// unique index remains the authority.
type ChargeGuard struct {
	client *goredis.Client
	prefix string
}

// NewChargeGuard creates a new Redis-backed charge guard.
func NewChargeGuard(client *goredis.Client) *ChargeGuard {
	return &ChargeGuard{
		client: client,
		prefix: "charge:",
	}
}

// Acquire atomically claims the transaction number. Returns true when
// this caller is first; false when another charge attempt holds it.
func (g *ChargeGuard) Acquire(ctx context.Context, number string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+number, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis charge guard acquire: %w", err)
	}
	return ok, nil
}

// Release frees the claim after a failed attempt so the caller may
// retry. Successful charges keep the claim until the TTL lapses.
func (g *ChargeGuard) Release(ctx context.Context, number string) error {
	if err := g.client.Del(ctx, g.prefix+number).Err(); err != nil {
		return fmt.Errorf("redis charge guard release: %w", err)
	}
	return nil
}
