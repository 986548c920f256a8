package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/99minutos/notes-service/internal/core/ports"
)

// sweepEvery bounds how often idle buckets are looked for.
const sweepEvery = time.Minute

type bucket struct {
	lim      *rate.Limiter
	window   time.Duration
	lastSeen time.Time
}

// RateLimiter is the in-process limiter used when Redis is not configured. Each key
// gets a token bucket that refills limit tokens per window. A bucket left alone for a
// whole window is full again, so it is dropped and recreated on the next hit.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*bucket), now: time.Now}
}

func (l *RateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (ports.RateDecision, error) {
	now := l.now()
	if limit <= 0 || window <= 0 {
		return ports.RateDecision{Allowed: limit > 0, Limit: limit, Reset: now.Add(window)}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= sweepEvery {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit), window: window}
		l.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.lim.AllowN(now, 1)
	return ports.RateDecision{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: max(int(b.lim.TokensAt(now)), 0),
		Reset:     now.Add(window),
	}, nil
}

func (l *RateLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= b.window {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// size reports the number of live buckets.
func (l *RateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
