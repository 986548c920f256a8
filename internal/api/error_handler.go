package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/notes-service/internal/api/handler"
	"github.com/99minutos/notes-service/internal/core/domain"
)

// NewHTTPErrorHandler maps domain error kinds to status codes and renders the
// {"error": ...} envelope. Internal causes are logged, never returned.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, handler.ErrorBody) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, handler.ErrorBody{Error: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, handler.ErrorBody{Error: ve.Error(), Fields: ve.Fields}
	}

	switch {
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, handler.ErrorBody{Error: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, handler.ErrorBody{Error: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, handler.ErrorBody{Error: err.Error()}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, handler.ErrorBody{Error: err.Error()}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, handler.ErrorBody{Error: "internal server error"}
}
