package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	rl := NewFixedWindowLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, _, err := rl.Allow(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, retry, err := rl.Allow(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _, _ = rl.Allow(ctx, "bob@example.com")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute)
	ok, _, _ = rl.Allow(ctx, "ana@example.com")
	assert.True(t, ok, "window expired")
}

func TestFixedWindowLimiterReset(t *testing.T) {
	ctx := context.Background()
	rl := NewFixedWindowLimiter(1, time.Hour)

	ok, _, _ := rl.Allow(ctx, "k")
	require.True(t, ok)
	ok, _, _ = rl.Allow(ctx, "k")
	require.False(t, ok)

	require.NoError(t, rl.Reset(ctx, "k"))
	ok, _, _ = rl.Allow(ctx, "k")
	assert.True(t, ok)
}

func newRedisLimiter(t *testing.T, limit int, window time.Duration) (*RedisFixedWindow, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisFixedWindow(rdb, "login", limit, window), mr
}

func TestRedisFixedWindow(t *testing.T) {
	ctx := context.Background()
	rl, mr := newRedisLimiter(t, 3, 10*time.Minute)

	for i := 0; i < 3; i++ {
		ok, _, err := rl.Allow(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, retry, err := rl.Allow(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, 10*time.Minute)

	assert.True(t, mr.Exists("login:ana@example.com"))

	mr.FastForward(10 * time.Minute)
	ok, _, err = rl.Allow(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisFixedWindowReset(t *testing.T) {
	ctx := context.Background()
	rl, mr := newRedisLimiter(t, 1, time.Minute)

	ok, _, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, rl.Reset(ctx, "k"))
	assert.False(t, mr.Exists("login:k"))

	ok, _, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisFixedWindowError(t *testing.T) {
	rl, mr := newRedisLimiter(t, 1, time.Minute)
	mr.Close()

	_, _, err := rl.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestRedisFixedWindowKeepsWindowFixed(t *testing.T) {
	ctx := context.Background()
	rl, mr := newRedisLimiter(t, 5, time.Minute)

	_, _, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	mr.FastForward(40 * time.Second)

	_, _, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, mr.TTL("login:k"))
}

func TestRedisFixedWindowRepairsKeyWithoutTTL(t *testing.T) {
	ctx := context.Background()
	rl, mr := newRedisLimiter(t, 2, time.Minute)

	// a counter left behind with no expiry
	_, err := mr.Incr("login:ana@example.com", 3)
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), mr.TTL("login:ana@example.com"))

	ok, retry, err := rl.Allow(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)
	assert.Equal(t, time.Minute, mr.TTL("login:ana@example.com"))

	mr.FastForward(time.Minute)
	ok, _, err = rl.Allow(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}
