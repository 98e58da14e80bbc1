package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/rafaelleal24/storefront/internal/adapters/http/middleware"
)

const maxRateLimitKeys = 100_000

// RateLimiter keeps one token bucket per key. A bucket refills at
// limit/window and bursts up to limit. Buckets untouched for idle are
// evicted; idle should be at least the longest window so an evicted bucket
// would have been full anyway.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
}

func NewRateLimiter(idle time.Duration) middleware.RateLimiter {
	return &RateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](maxRateLimitKeys, nil, idle),
	}
}

func (r *RateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}

	r.mu.Lock()
	l, ok := r.limiters.Get(key)
	if !ok {
		l = rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
	}
	// re-adding renews the idle deadline
	r.limiters.Add(key, l)
	r.mu.Unlock()

	return l.Allow(), nil
}
