package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// FixedWindowRateLimiter keeps counters in process memory. Used when Redis is
// not configured.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewFixedWindowLimiter(limit int, w time.Duration) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  w,
		now:     time.Now,
	}
}

func (rl *FixedWindowRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	rl.sweep(now)

	c, ok := rl.clients[key]
	if !ok {
		c = &window{resetAt: now.Add(rl.window)}
		rl.clients[key] = c
	}
	if c.count >= rl.limit {
		return false, c.resetAt.Sub(now), nil
	}
	c.count++
	return true, 0, nil
}

func (rl *FixedWindowRateLimiter) Reset(_ context.Context, key string) error {
	rl.Lock()
	delete(rl.clients, key)
	rl.Unlock()
	return nil
}

// sweep drops expired windows; callers hold the lock.
func (rl *FixedWindowRateLimiter) sweep(now time.Time) {
	for k, c := range rl.clients {
		if !now.Before(c.resetAt) {
			delete(rl.clients, k)
		}
	}
}
