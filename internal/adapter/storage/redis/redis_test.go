package redis_test

import (
	"context"
	"testing"
	"time"

	"installment-platform/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestChargeGuard_AcquireRelease(t *testing.T) {
	client := newTestClient(t)
	guard := redis.NewChargeGuard(client)
	ctx := context.Background()

	t.Run("first caller wins", func(t *testing.T) {
		ok, err := guard.Acquire(ctx, "T.INV001", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("second caller is cut off", func(t *testing.T) {
		ok, err := guard.Acquire(ctx, "T.INV001", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("release frees the claim", func(t *testing.T) {
		require.NoError(t, guard.Release(ctx, "T.INV001"))
		ok, err := guard.Acquire(ctx, "T.INV001", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("independent numbers do not collide", func(t *testing.T) {
		ok, err := guard.Acquire(ctx, "T.INV002", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestReplayCache(t *testing.T) {
	client := newTestClient(t)
	cache := redis.NewReplayCache(client)
	ctx := context.Background()

	t.Run("miss returns nil without error", func(t *testing.T) {
		payload, err := cache.Get(ctx, "T.MISSING")
		require.NoError(t, err)
		assert.Nil(t, payload)
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		want := []byte(`{"transaction_number":"INV001","success":true,"status_code":"200"}`)
		require.NoError(t, cache.Set(ctx, "T.INV001", want, time.Hour))

		got, err := cache.Get(ctx, "T.INV001")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestRateLimitStore_Incr(t *testing.T) {
	client := newTestClient(t)
	store := redis.NewRateLimitStore(client)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, err := store.Incr(ctx, "user1:create", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	count, err := store.Incr(ctx, "user2:create", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
