package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFixedWindow shares counters between API instances. The first hit of a
// window sets the key's TTL; the key expiring closes the window.
type RedisFixedWindow struct {
	rdb    redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

func NewRedisFixedWindow(rdb redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisFixedWindow {
	return &RedisFixedWindow{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

func (rl *RedisFixedWindow) key(k string) string {
	return rl.prefix + ":" + k
}

func (rl *RedisFixedWindow) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := rl.key(key)

	// INCR and PEXPIRE NX go out in one MULTI so a counter never outlives its
	// window. NX keeps the window fixed and repairs keys that lost their TTL.
	var incr *redis.IntCmd
	_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.Do(ctx, "pexpire", k, rl.window.Milliseconds(), "nx")
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if incr.Val() <= int64(rl.limit) {
		return true, 0, nil
	}

	retry, err := rl.rdb.PTTL(ctx, k).Result()
	if err != nil || retry <= 0 {
		retry = rl.window
	}
	return false, retry, nil
}

func (rl *RedisFixedWindow) Reset(ctx context.Context, key string) error {
	return rl.rdb.Del(ctx, rl.key(key)).Err()
}
