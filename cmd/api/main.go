// @title                       Notes API
// @version                     1.0
// @description                 Multi-tenant notes service with sharing and search.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/99minutos/notes-service/internal/api"
	"github.com/99minutos/notes-service/internal/api/handler"
	"github.com/99minutos/notes-service/internal/core/ports"
	"github.com/99minutos/notes-service/internal/core/service"
	"github.com/99minutos/notes-service/internal/infrastructure/config"
	"github.com/99minutos/notes-service/internal/infrastructure/db/memory"
	"github.com/99minutos/notes-service/internal/infrastructure/db/mongo"
	"github.com/99minutos/notes-service/internal/infrastructure/db/postgres"
	"github.com/99minutos/notes-service/internal/infrastructure/db/redis"
	"github.com/99minutos/notes-service/internal/infrastructure/token"
	"github.com/99minutos/notes-service/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log := logger.Get()
		log.Error().Err(err).Msg("notes-api stopped")
		os.Exit(1)
	}
}

// stores bundles the storage backends selected by STORAGE_DRIVER.
type stores struct {
	users  ports.CredentialStore
	notes  ports.NoteStore
	checks map[string]handler.Pinger
	close  func(context.Context)
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "notes-api",
	})

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { st.close(context.Background()) }()

	signer := token.NewJWTSigner(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.EnforceExpiry)
	authService := service.NewAuthService(st.users, signer, cfg.Auth.BcryptCost, log)
	noteService := service.NewNoteService(st.notes, log)

	var limiter ports.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = openLimiter(ctx, cfg, log, st)
	}

	e := api.NewRouter(api.Deps{
		AuthService: authService,
		NoteService: noteService,
		Limiter:     limiter,
		Checks:      st.checks,
		Logger:      log,
		Metrics:     true,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Msg("postgres connected and migrated")
		return &stores{
			users:  postgres.NewUserRepository(db),
			notes:  postgres.NewNoteRepository(db),
			checks: map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)},
			close:  func(context.Context) { _ = db.Close() },
		}, nil

	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")
		return &stores{
			users: mongo.NewUserRepository(db),
			notes: mongo.NewNoteRepository(db),
			checks: map[string]handler.Pinger{"mongo": handler.PingFunc(func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			})},
			close: func(ctx context.Context) { _ = client.Disconnect(ctx) },
		}, nil

	default:
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		store := memory.New()
		return &stores{
			users:  store.Users(),
			notes:  store.Notes(),
			checks: map[string]handler.Pinger{"memory": store},
			close:  func(context.Context) {},
		}, nil
	}
}

// openLimiter prefers the shared Redis limiter and falls back to a per-process one.
func openLimiter(ctx context.Context, cfg *config.Config, log zerolog.Logger, st *stores) ports.RateLimiter {
	client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-process rate limiter")
		return memory.NewRateLimiter()
	}

	st.checks["redis"] = redis.Pinger{Client: client}
	prev := st.close
	st.close = func(ctx context.Context) {
		_ = client.Close()
		prev(ctx)
	}
	return redis.NewRateLimiter(client)
}
