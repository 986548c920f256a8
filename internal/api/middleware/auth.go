package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/notes-service/internal/core/domain"
	"github.com/99minutos/notes-service/internal/core/ports"
)

const userKey = "user"

type ctxKey struct{}

// Auth resolves the bearer token to a user exactly once per request and stores the
// user on both the echo context and the request context.
func Auth(resolver ports.IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			user, err := resolver.ResolveIdentity(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return err
			}

			SetUser(c, user)
			return next(c)
		}
	}
}

// SetUser records the authenticated user on c and on its request context.
func SetUser(c echo.Context, user *domain.User) {
	c.Set(userKey, user)
	c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))
}

// UserFrom returns the user set by Auth.
func UserFrom(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(userKey).(*domain.User)
	return u, ok && u != nil
}

// WithUser attaches the authenticated user to ctx.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext reads the user attached by WithUser.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*domain.User)
	return u, ok && u != nil
}
