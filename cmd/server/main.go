package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizi-backend/internal/config"
	"github.com/stemsi/quizi-backend/internal/database"
	"github.com/stemsi/quizi-backend/internal/handler"
	"github.com/stemsi/quizi-backend/internal/logger"
	"github.com/stemsi/quizi-backend/internal/middleware"
	"github.com/stemsi/quizi-backend/internal/repository"
	"github.com/stemsi/quizi-backend/internal/router"
	"github.com/stemsi/quizi-backend/internal/service"
	"github.com/stemsi/quizi-backend/internal/trivia"
	"github.com/stemsi/quizi-backend/internal/validator"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.SessionStore).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Quizi Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Connect Session Store ─────────────────────────────────────────
	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := openStore(connectCtx, cfg, log)
	connectCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer store.close()

	// ─── Initialize Services ──────────────────────────────────────────
	provider := trivia.NewClient(cfg.TriviaAPIURL, cfg.TriviaTimeout, log)
	quizService := service.NewQuizSessionService(store.repo, provider, cfg.TriviaAmount, service.WithLogger(log))

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Quiz: handler.NewQuizHandler(quizService, log),
		WS:   handler.NewWSHandler(quizService, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg, startLimiter(cfg, store.rdb), log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		store.close()
		os.Exit(1)
	}

	log.Info().Msg("Shutdown complete")
}

// sessionStore bundles the chosen repository with the handles to release on exit.
type sessionStore struct {
	repo    service.SessionRepository
	rdb     *redis.Client
	closers []func()
	closed  bool
}

func (s *sessionStore) close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStore connects the backend named by SESSION_STORE. Redis is also
// opened for the postgres backend when REDIS_URL is set, so the start rate
// limit is shared across instances; failing that the limiter stays local.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sessionStore, error) {
	store := &sessionStore{}

	switch cfg.SessionStore {
	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, pool.Close)
		store.repo = repository.NewQuizSessionRepository(pool)

		if cfg.RedisConfigured {
			rdb, err := database.NewRedisClient(ctx, cfg, log)
			if err != nil {
				log.Warn().Err(err).Msg("Redis unavailable, using in-process rate limiter")
			} else {
				store.rdb = rdb
				store.closers = append(store.closers, func() { _ = rdb.Close() })
			}
		}

	case config.StoreRedis:
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		store.rdb = rdb
		store.closers = append(store.closers, func() { _ = rdb.Close() })
		store.repo = repository.NewRedisSessionRepository(rdb, cfg.SessionRetention)

	case config.StoreMemory:
		log.Warn().Msg("Using in-memory session store; sessions are lost on restart")
		store.repo = repository.NewMemorySessionRepository()

	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}

	return store, nil
}

func startLimiter(cfg *config.Config, rdb *redis.Client) middleware.Limiter {
	if cfg.StartRateLimit <= 0 {
		return nil
	}
	if rdb != nil {
		return middleware.NewRedisRateLimiter(rdb, cfg.StartRateLimit, time.Minute)
	}
	return middleware.NewRateLimiter(cfg.StartRateLimit, time.Minute)
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
