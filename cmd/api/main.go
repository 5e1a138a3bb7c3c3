package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/calendar-feeds/internal/api/http"
	"github.com/spec-kit/calendar-feeds/internal/api/http/handlers"
	"github.com/spec-kit/calendar-feeds/internal/auth"
	"github.com/spec-kit/calendar-feeds/internal/cache"
	"github.com/spec-kit/calendar-feeds/internal/calendar"
	"github.com/spec-kit/calendar-feeds/internal/config"
	"github.com/spec-kit/calendar-feeds/internal/events"
	"github.com/spec-kit/calendar-feeds/internal/observability"
	"github.com/spec-kit/calendar-feeds/internal/persistence"
	"github.com/spec-kit/calendar-feeds/internal/repository"
	"github.com/spec-kit/calendar-feeds/internal/service"
	"github.com/spec-kit/calendar-feeds/internal/worker"
)

type repositories struct {
	subscriptions repository.CalendarSubscriptionRepository
	entries       repository.CalendarEntryRepository
	vehicles      repository.VehicleRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(pg, logger)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	feedCache := cache.NewRedisFeedCache(redis.Client, cfg.Calendar.FeedCacheTTL)

	subscriptionService := service.NewCalendarSubscriptionService(service.SubscriptionDependencies{
		SubscriptionRepo: repos.subscriptions,
		VehicleRepo:      repos.vehicles,
		Tokens:           auth.NewFeedTokenGenerator(),
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger.Named("subscriptions"),
		Limit:            cfg.Calendar.SubscriptionLimit,
		TokenMaxAttempts: cfg.Calendar.TokenMaxAttempts,
	})
	feedService := service.NewCalendarFeedService(service.FeedDependencies{
		SubscriptionRepo: repos.subscriptions,
		EntryRepo:        repos.entries,
		VehicleRepo:      repos.vehicles,
		Cache:            feedCache,
		Renderer:         calendar.NewRenderer(cfg.App.Name, time.Duration(cfg.Calendar.FeedRefreshMinutes)*time.Minute),
		Metrics:          metrics,
		Logger:           logger.Named("feed"),
		Settings: service.FeedSettings{
			ProductName: cfg.App.Name,
			PastDays:    cfg.Calendar.FeedPastDays,
			FutureDays:  cfg.Calendar.FeedFutureDays,
			MaxEntries:  cfg.Calendar.FeedMaxEntries,
		},
	})
	worker.StartSubscriptionEventsWorker(service.NewSubscriptionEventsService(dispatcher, feedCache, logger.Named("events")))

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.IsProduction(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var postgresCheck handlers.Pinger
	if pg.Enabled() {
		postgresCheck = pg
	}
	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
		handlers.HealthCheck{Name: "postgres", Target: postgresCheck},
		handlers.HealthCheck{Name: "redis", Target: redis, Optional: true},
	)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Metrics:        handlers.NewMetricsHandler(metrics),
		Calendar:       handlers.NewCalendarHandler(subscriptionService, cfg.App.PublicURL),
		Feed:           handlers.NewFeedHandler(feedService),
		FeedLimiter:    httptransport.NewRateLimiter(cfg.Calendar.FeedRatePerSecond, cfg.Calendar.FeedRateBurst, logger, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func buildRepositories(pg *persistence.Postgres, logger *zap.Logger) repositories {
	if pg.Enabled() {
		pool := pg.PoolHandle()
		return repositories{
			subscriptions: repository.NewCalendarSubscriptionRepository(pool),
			entries:       repository.NewCalendarEntryRepository(pool),
			vehicles:      repository.NewVehicleRepository(pool),
		}
	}
	logger.Warn("using in-memory repositories; data is lost on restart")
	return repositories{
		subscriptions: repository.NewMemorySubscriptionRepository(),
		entries:       repository.NewMemoryEntryRepository(),
		vehicles:      repository.NewMemoryVehicleRepository(),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
