package ratelimit

import "context"

// RateLimiter throttles outbound deliveries per bucket (e.g. one bucket per mail transport).
type RateLimiter interface {
	Allow(ctx context.Context, bucket string) (bool, error)
	Wait(ctx context.Context, bucket string) error
}

// Nop never throttles.
type Nop struct{}

func (Nop) Allow(context.Context, string) (bool, error) { return true, nil }

func (Nop) Wait(context.Context, string) error { return nil }
