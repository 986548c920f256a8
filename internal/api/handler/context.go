package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/notes-service/internal/api/middleware"
	"github.com/99minutos/notes-service/internal/core/domain"
)

// currentUser returns the user resolved by the Auth middleware. Reaching a handler
// without one means the route was registered outside the auth group.
func currentUser(c echo.Context) (*domain.User, error) {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return u, nil
}

// noteIDParam parses the :id path parameter as a positive integer.
func noteIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(map[string]string{"id": "id must be a positive integer"})
	}
	return id, nil
}

// bindAndValidate decodes the request into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

// resultLabel condenses an outcome into a metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
