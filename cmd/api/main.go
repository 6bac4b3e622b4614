package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dollarfunding/webhook-engine/internal/config"
	"github.com/dollarfunding/webhook-engine/internal/handler"
	"github.com/dollarfunding/webhook-engine/internal/infra/postgresql"
	"github.com/dollarfunding/webhook-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/dollarfunding/webhook-engine/internal/infra/redis"
	"github.com/dollarfunding/webhook-engine/internal/observability"
	"github.com/dollarfunding/webhook-engine/internal/queue"
	"github.com/dollarfunding/webhook-engine/internal/repository"
	"github.com/dollarfunding/webhook-engine/internal/retry"
	"github.com/dollarfunding/webhook-engine/internal/sender"
	"github.com/dollarfunding/webhook-engine/internal/service"
	"github.com/dollarfunding/webhook-engine/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("webhook-engine exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq initialization failed: %w", err)
	}
	defer mq.Close()

	webhookRepo := repository.NewGormWebhookRepo(db)
	deliveryRepo := repository.NewGormDeliveryRepo(db)
	attemptRepo := repository.NewGormAttemptRepo(db)

	policy := retry.NewPolicy(
		time.Duration(cfg.RetryBaseSeconds)*time.Second,
		cfg.MaxRetries,
		time.Duration(cfg.RetryMaxDelaySecs)*time.Second,
	)

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}

	publisher := queue.NewRabbitMQPublisher(mq)
	consumer := queue.NewRabbitMQConsumer(mq, cfg.QueuePrefetch, logger)

	scheduler, err := service.NewDeliveryScheduler(publisher)
	if err != nil {
		return fmt.Errorf("scheduler initialization failed: %w", err)
	}

	metrics := observability.NewMetrics()

	router, err := service.NewEventRouter(webhookRepo, deliveryRepo, scheduler, policy.MaxRetries, logger)
	if err != nil {
		return fmt.Errorf("event router initialization failed: %w", err)
	}
	router.SetMetrics(metrics)

	httpSender := sender.NewHTTPSender(
		time.Duration(cfg.HTTPTimeoutSeconds)*time.Second,
		sender.DefaultUserAgent,
	)

	worker, err := service.NewDeliveryWorker(
		deliveryRepo,
		attemptRepo,
		webhookRepo,
		consumer,
		httpSender,
		scheduler,
		policy,
		rateLimiter,
		cfg.WorkerConcurrency,
		logger,
	)
	if err != nil {
		return fmt.Errorf("delivery worker initialization failed: %w", err)
	}
	worker.SetMetrics(metrics)

	sweeper, err := service.NewSweeper(
		deliveryRepo,
		scheduler,
		time.Duration(cfg.SweepIntervalSecs)*time.Second,
		0,
		logger,
	)
	if err != nil {
		return fmt.Errorf("sweeper initialization failed: %w", err)
	}

	registryService, err := service.NewRegistryService(webhookRepo, logger)
	if err != nil {
		return fmt.Errorf("registry service initialization failed: %w", err)
	}

	deliveryService, err := service.NewDeliveryService(deliveryRepo, attemptRepo)
	if err != nil {
		return fmt.Errorf("delivery service initialization failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "webhook-engine",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterWebhookRoutes(app, registryService); err != nil {
		return fmt.Errorf("webhook routes registration failed: %w", err)
	}
	if err := handler.RegisterEventRoutes(app, router); err != nil {
		return fmt.Errorf("event routes registration failed: %w", err)
	}
	if err := handler.RegisterDeliveryRoutes(app, deliveryService); err != nil {
		return fmt.Errorf("delivery routes registration failed: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("webhook-engine api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		logger.Info("delivery worker started", zap.Int("concurrency", cfg.WorkerConcurrency))
		return worker.Start(gCtx)
	})

	g.Go(func() error {
		logger.Info("redelivery sweeper started", zap.Int("intervalSeconds", cfg.SweepIntervalSecs))
		return sweeper.Start(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !isShutdownErr(err) {
		return err
	}

	logger.Info("webhook-engine stopped")
	return nil
}

func isShutdownErr(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
