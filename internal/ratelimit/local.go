package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

var _ RateLimiter = (*Local)(nil)

// Local is an in-process token bucket per bucket name. Use it when a single
// notifier replica runs or Redis is not available for coordination.
type Local struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewLocal(limitPerSec int) (*Local, error) {
	if limitPerSec <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", limitPerSec)
	}

	return &Local{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(limitPerSec),
		burst:    limitPerSec,
	}, nil
}

func (l *Local) Allow(_ context.Context, bucket string) (bool, error) {
	return l.limiter(bucket).Allow(), nil
}

func (l *Local) Wait(ctx context.Context, bucket string) error {
	return l.limiter(bucket).Wait(ctx)
}

func (l *Local) limiter(bucket string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[bucket]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[bucket] = limiter
	}
	return limiter
}
