package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLimiterSlidingWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := Limiter{Client: client, Prefix: "test:"}
	ctx := context.Background()
	window := 2 * time.Second
	max := 2

	for i := 0; i < max; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "otp:+60123456789", window, max)
		require.NoError(t, err)
		require.True(t, allowed, "request %d should pass", i)
		require.Equal(t, max-(i+1), remaining)
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "otp:+60123456789", window, max)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)

	mr.FastForward(window)

	allowed, _, _, err = limiter.Allow(ctx, "otp:+60123456789", window, max)
	require.NoError(t, err)
	require.True(t, allowed, "window has slid past the old entries")
}

func TestLimiterWithoutRedisAdmitsAll(t *testing.T) {
	limiter := Limiter{}
	for i := 0; i < 10; i++ {
		allowed, _, _, err := limiter.Allow(context.Background(), "any", time.Second, 1)
		require.NoError(t, err)
		require.True(t, allowed)
	}
}
