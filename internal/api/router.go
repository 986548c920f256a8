package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/notes-service/docs"
	"github.com/99minutos/notes-service/internal/api/handler"
	"github.com/99minutos/notes-service/internal/api/middleware"
	"github.com/99minutos/notes-service/internal/core/ports"
)

// Deps is everything the router needs. Limiter may be nil to disable throttling.
type Deps struct {
	AuthService ports.AuthService
	NoteService ports.NoteService
	Limiter     ports.RateLimiter
	Checks      map[string]handler.Pinger
	Logger      zerolog.Logger
	// Metrics toggles the Prometheus middleware and /metrics. Tests leave it off so
	// collectors are not registered twice.
	Metrics bool
}

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Logger))
	if d.Metrics {
		e.Use(echoprometheus.NewMiddleware("notes"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	authHandler := handler.NewAuthHandler(d.AuthService)
	noteHandler := handler.NewNoteHandler(d.NoteService)
	healthHandler := handler.NewHealthHandler(d.Checks)

	limit := func(name string, n int) echo.MiddlewareFunc {
		return middleware.RateLimit(d.Limiter, middleware.PerMinute(name, n), d.Logger)
	}

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register, limit("register", 3))
	e.POST("/auth/login", authHandler.Login, limit("login", 10))

	// --- Note routes (bearer token required) ---
	notes := e.Group("/notes", middleware.Auth(d.AuthService))
	notes.POST("", noteHandler.Create, limit("create", 5))
	notes.GET("", noteHandler.List, limit("list", 10))
	notes.GET("/search", noteHandler.Search, limit("search", 10))
	notes.GET("/shared", noteHandler.Shared, limit("shared", 10))
	notes.GET("/:id", noteHandler.Get, limit("get", 10))
	notes.PUT("/:id", noteHandler.Update, limit("update", 5))
	notes.DELETE("/:id", noteHandler.Delete, limit("delete", 3))
	notes.POST("/:id/share", noteHandler.Share, limit("share", 5))

	// --- Health probes and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger sends echo's access log through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
