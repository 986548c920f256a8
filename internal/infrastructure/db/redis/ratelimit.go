package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/99minutos/notes-service/internal/core/ports"
)

const keyPrefix = "ratelimit:"

// allowScript trims the window, counts it and records the hit only when the count is
// below the limit, all in one atomic step.
//
// KEYS[1] key; ARGV: now (µs), exclusive window start "(µs", limit, member, ttl (ms).
// Returns {allowed, count after the call, oldest score or ""}.
var allowScript = redis.NewScript(`
local key = KEYS[1]
redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
local count = redis.call('ZCARD', key)
if count < tonumber(ARGV[3]) then
	redis.call('ZADD', key, ARGV[1], ARGV[4])
	redis.call('PEXPIRE', key, ARGV[5])
	return {1, count + 1, ''}
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
	return {0, count, oldest[2]}
end
return {0, count, ''}
`)

// RateLimiter is a sliding-window limiter over a sorted set per key. Each admitted
// hit is a member scored by its timestamp in microseconds.
type RateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (ports.RateDecision, error) {
	now := l.now()
	if limit <= 0 {
		return ports.RateDecision{Allowed: false, Limit: limit, Reset: now.Add(window)}, nil
	}

	windowStart := now.Add(-window)
	res, err := allowScript.Run(ctx, l.client, []string{keyPrefix + key},
		strconv.FormatInt(now.UnixMicro(), 10),
		"("+strconv.FormatInt(windowStart.UnixMicro(), 10),
		limit,
		uuid.NewString(),
		max(window.Milliseconds(), 1),
	).Slice()
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit: %w", err)
	}
	if len(res) != 3 {
		return ports.RateDecision{}, fmt.Errorf("rate limit: unexpected reply %v", res)
	}

	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)

	if allowed == 1 {
		return ports.RateDecision{
			Allowed:   true,
			Limit:     limit,
			Remaining: max(limit-int(count), 0),
			Reset:     now.Add(window),
		}, nil
	}

	reset := now.Add(window)
	if s, _ := res[2].(string); s != "" {
		if score, err := strconv.ParseFloat(s, 64); err == nil {
			reset = time.UnixMicro(int64(score)).Add(window)
		}
	}
	return ports.RateDecision{Allowed: false, Limit: limit, Remaining: 0, Reset: reset}, nil
}
