package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/notes-service/internal/api/metrics"
	"github.com/99minutos/notes-service/internal/core/ports"
)

// Policy is a named per-caller limit.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// PerMinute is shorthand for a policy with a one-minute window.
func PerMinute(name string, limit int) Policy {
	return Policy{Name: name, Limit: limit, Window: time.Minute}
}

// RateLimit throttles callers per policy. Authenticated callers are keyed by user
// id, anonymous ones by client IP. Limiter failures let the request through.
// A nil limiter disables throttling.
func RateLimit(limiter ports.RateLimiter, p Policy, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(c echo.Context) error {
			key := p.Name + ":" + callerKey(c)

			d, err := limiter.Allow(c.Request().Context(), key, p.Limit, p.Window)
			if err != nil {
				log.Warn().Err(err).Str("policy", p.Name).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

			if !d.Allowed {
				retry := max(int(time.Until(d.Reset).Seconds()), 1)
				h.Set("Retry-After", strconv.Itoa(retry))
				metrics.RateLimitedTotal.WithLabelValues(p.Name).Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}

func callerKey(c echo.Context) string {
	if u, ok := UserFrom(c); ok {
		return "user:" + strconv.FormatInt(u.ID, 10)
	}
	return "ip:" + c.RealIP()
}
