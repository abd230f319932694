package ratelimiter

import (
	"context"
	"time"
)

// Limiter counts attempts per key inside a fixed window.
type Limiter interface {
	// Allow records one attempt for key. When the window is exhausted it
	// returns false and the time left until the window resets.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
	// Reset forgets every attempt recorded for key.
	Reset(ctx context.Context, key string) error
}
