package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/melee45/queueing-system/internal/api/http"
	"github.com/melee45/queueing-system/internal/api/http/handlers"
	"github.com/melee45/queueing-system/internal/config"
	"github.com/melee45/queueing-system/internal/domain"
	"github.com/melee45/queueing-system/internal/notifier"
	"github.com/melee45/queueing-system/internal/observability"
	"github.com/melee45/queueing-system/internal/persistence"
	"github.com/melee45/queueing-system/internal/repository"
	"github.com/melee45/queueing-system/internal/sequence"
	"github.com/melee45/queueing-system/internal/service"
	"github.com/melee45/queueing-system/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	hub := notifier.NewHub(cfg.Notifier.QueueSize, cfg.Notifier.SweepInterval(), logger, metrics)
	defer hub.Close()

	var categoryRepo repository.CategoryRepository
	var ticketRepo repository.TicketRepository
	if pool := pg.PoolHandle(); pool != nil {
		allocator := sequence.NewPostgres(pool)
		categoryRepo = repository.NewCategoryRepository(pool)
		ticketRepo = repository.NewTicketRepository(pool, allocator)
	} else {
		logger.Warn("running with in-memory store; tickets will not survive a restart")
		categoryRepo = repository.NewMemoryCategoryRepository(seedCategories(cfg.Categories))
		ticketRepo = repository.NewMemoryTicketRepository(sequence.NewMemory())
	}

	ticketService := service.NewTicketService(service.Dependencies{
		CategoryRepo: categoryRepo,
		TicketRepo:   ticketRepo,
		Publisher:    hub,
		Metrics:      metrics,
		Logger:       logger,
	})

	if redis.Enabled() {
		relay := notifier.NewRedisRelay(redis.Client, hub, cfg.Redis.Channel, logger)
		relay.Start(ctx)
		defer relay.Stop()
	}

	worker.StartSnapshotWorker(ctx, ticketService, hub, cfg.Snapshot.Interval(), logger)

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:    handlers.NewTicketsHandler(ticketService),
		Categories: handlers.NewCategoriesHandler(ticketService),
		Events:     handlers.NewEventsHandler(hub, cfg.Notifier.Heartbeat(), logger),
		Metrics:    handlers.NewMetricsHandler(metrics),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func seedCategories(seeds []config.CategorySeed) []domain.Category {
	categories := make([]domain.Category, 0, len(seeds))
	for i, seed := range seeds {
		categories = append(categories, domain.Category{
			ID:     int64(i + 1),
			Name:   seed.Name,
			Prefix: seed.Prefix,
		})
	}
	return categories
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
