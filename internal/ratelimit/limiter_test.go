package ratelimit

import (
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, max int64, window time.Duration) (*Limiter, *miniredis.Miniredis, *time.Time) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := New(client, config.RateConfig{MaxAttempts: max, WindowSize: window}, "order_attempts")
	limiter.now = func() time.Time { return clock }

	return limiter, server, &clock
}

func TestAllow(t *testing.T) {
	t.Run("Within the window", func(t *testing.T) {
		limiter, server, _ := newLimiter(t, 3, time.Minute)
		ctx := t.Context()

		for i := 2; i >= 0; i-- {
			res, err := limiter.Allow(ctx, "user-1")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, i, res.Remaining)
		}

		assert.True(t, server.Exists("order_attempts:user-1"))
	})

	t.Run("Denied past the limit", func(t *testing.T) {
		limiter, _, clock := newLimiter(t, 2, time.Minute)
		ctx := t.Context()

		_, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)

		*clock = clock.Add(20 * time.Second)
		_, err = limiter.Allow(ctx, "user-1")
		require.NoError(t, err)

		*clock = clock.Add(10 * time.Second)
		res, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 30*time.Second, res.RetryAfter)

		// Other subjects are unaffected.
		res, err = limiter.Allow(ctx, "user-2")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("Window slides", func(t *testing.T) {
		limiter, _, clock := newLimiter(t, 1, time.Minute)
		ctx := t.Context()

		res, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)

		res, err = limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, res.Allowed)

		*clock = clock.Add(61 * time.Second)
		res, err = limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("Redis unavailable", func(t *testing.T) {
		limiter, server, _ := newLimiter(t, 1, time.Minute)
		server.Close()

		_, err := limiter.Allow(t.Context(), "user-1")
		assert.Error(t, err)
	})
}
