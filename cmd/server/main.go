package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/database"
	"github.com/iliyamo/restaurant-reservation/internal/engine"
	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/lib/logger/sl"
	"github.com/iliyamo/restaurant-reservation/internal/metrics"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/router"
	"github.com/iliyamo/restaurant-reservation/internal/service"
	"github.com/iliyamo/restaurant-reservation/internal/storage"
	"github.com/iliyamo/restaurant-reservation/internal/storage/memory"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// stores groups the three persistence roles the server needs.
type stores struct {
	data   storage.Store
	staff  storage.StaffStore
	tokens storage.TokenStore
	db     *sql.DB // nil for the memory driver
}

func main() {
	cfg := config.Load()
	log := setupLogger(cfg.Env)
	log.Info("starting reservation service", slog.String("env", cfg.Env), slog.String("storage", cfg.StorageDriver))

	policy, err := cfg.Policy()
	if err != nil {
		log.Error("invalid restaurant policy", sl.Err(err))
		os.Exit(1)
	}

	st, err := openStores(cfg)
	if err != nil {
		log.Error("failed to open storage", sl.Err(err))
		os.Exit(1)
	}
	if st.db != nil {
		defer st.db.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	var events service.EventPublisher = service.NopPublisher{}
	published := make(chan struct{})
	if cfg.EventsEnabled {
		pub := service.NewPublisher(cfg.RabbitMQURL, 1024, log, m)
		events = pub
		go func() {
			defer close(published)
			pub.Run(ctx)
		}()

		consumer := queue.NewConsumer(cfg.RabbitMQURL, "logs", log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event consumer stopped", sl.Err(err))
			}
		}()
	} else {
		close(published)
	}

	eng := engine.New(st.data, engine.WithPolicy(policy), engine.WithLogger(log))

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	echo.NotFoundHandler = router.NotFound
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	if m != nil {
		e.Use(m.Middleware())
	}

	var pinger handler.Pinger
	if st.db != nil {
		pinger = st.db
	}
	router.RegisterRoutes(e, pinger, m)

	deps := &handler.Deps{Engine: eng, Events: events, Metrics: m, Log: log}
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, st.staff, st.tokens, log), cfg.JWTSecret, limit)
	mw := router.StaffMiddleware{
		RateLimit:  limit,
		Cache:      middleware.NewRedisCache(cacheCfg, rdb, m),
		Invalidate: middleware.InvalidateCache(cacheCfg, rdb, log),
	}
	router.RegisterStaff(e, handler.NewReservationHandler(deps), handler.NewTableHandler(deps), cfg.JWTSecret, mw)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", sl.Err(err))
	}
	// the publisher flushes its outbox once ctx is done
	<-published
	log.Info("server stopped")
}

func openStores(cfg config.Config) (stores, error) {
	if cfg.StorageDriver == config.DriverMemory {
		s := memory.New()
		return stores{data: s, staff: s, tokens: s}, nil
	}
	db, err := database.Open(context.Background(), cfg.DB)
	if err != nil {
		return stores{}, err
	}
	return stores{
		data:   repository.NewStore(db),
		staff:  repository.NewStaffRepo(db),
		tokens: repository.NewTokenRepo(db),
		db:     db,
	}, nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}
