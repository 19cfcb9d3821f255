package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotakit/pkg/ratelimit"
)

func newRedisStore(t *testing.T) (*ratelimit.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return ratelimit.NewRedisStore(client), srv
}

func TestRedisStoreIncrement(t *testing.T) {
	ctx := context.Background()

	t.Run("counts within one window", func(t *testing.T) {
		store, _ := newRedisStore(t)

		for i := int64(1); i <= 3; i++ {
			count, ttl, err := store.Increment(ctx, "ratelimit:chat:u1", time.Minute)
			require.NoError(t, err)
			assert.Equal(t, i, count)
			assert.Greater(t, ttl, time.Duration(0))
			assert.LessOrEqual(t, ttl, time.Minute)
		}
	})

	t.Run("window expiry restarts the count", func(t *testing.T) {
		store, srv := newRedisStore(t)

		_, _, err := store.Increment(ctx, "ratelimit:chat:u2", time.Minute)
		require.NoError(t, err)
		_, _, err = store.Increment(ctx, "ratelimit:chat:u2", time.Minute)
		require.NoError(t, err)

		srv.FastForward(61 * time.Second)

		count, _, err := store.Increment(ctx, "ratelimit:chat:u2", time.Minute)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("limiter end to end over redis", func(t *testing.T) {
		store, srv := newRedisStore(t)
		limiter, err := ratelimit.NewLimiter("search", ratelimit.Config{Limit: 2, Window: time.Hour}, store, nil)
		require.NoError(t, err)

		for range 2 {
			res, err := limiter.Check(ctx, "u3")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
		}

		res, err := limiter.Check(ctx, "u3")
		require.NoError(t, err)
		assert.False(t, res.Allowed)

		srv.FastForward(time.Hour + time.Second)

		res, err = limiter.Check(ctx, "u3")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("closed server fails open through the limiter", func(t *testing.T) {
		store, srv := newRedisStore(t)
		limiter, err := ratelimit.NewLimiter("chat", ratelimit.Config{Limit: 1, Window: time.Minute}, store, nil)
		require.NoError(t, err)

		srv.Close()

		res, err := limiter.Check(ctx, "u4")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})
}
