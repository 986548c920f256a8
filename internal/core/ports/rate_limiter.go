package ports

import (
	"context"
	"time"
)

// RateDecision is the outcome of one rate limit check.
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RateLimiter counts hits per key within a window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateDecision, error)
}
