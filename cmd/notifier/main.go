package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/kursadbilgin/comment-notifier/internal/config"
	"github.com/kursadbilgin/comment-notifier/internal/handler"
	"github.com/kursadbilgin/comment-notifier/internal/infra/postgresql"
	"github.com/kursadbilgin/comment-notifier/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/comment-notifier/internal/infra/redis"
	"github.com/kursadbilgin/comment-notifier/internal/mail"
	"github.com/kursadbilgin/comment-notifier/internal/observability"
	"github.com/kursadbilgin/comment-notifier/internal/queue"
	"github.com/kursadbilgin/comment-notifier/internal/ratelimit"
	"github.com/kursadbilgin/comment-notifier/internal/repository"
	"github.com/kursadbilgin/comment-notifier/internal/service"
	"github.com/kursadbilgin/comment-notifier/internal/transport"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	broker, err := queue.NewRabbitMQ(cfg.RabbitMQURL, cfg.CommentQueue)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer broker.Close()

	metrics := observability.NewMetrics()

	mailTransport, err := newMailTransport(cfg)
	if err != nil {
		logger.Fatal("mail transport initialization failed", zap.Error(err))
	}

	employees, err := infraredis.NewCachedEmployeeLookup(
		repository.NewGormEmployeeRepo(db),
		rdb,
		cfg.EmployeeCacheTTL,
		logger,
	)
	if err != nil {
		logger.Fatal("employee cache initialization failed", zap.Error(err))
	}
	employees.SetMetrics(metrics)

	limiter, err := newMailRateLimiter(cfg, rdb)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	notifications := repository.NewGormNotificationRepo(db)

	consumer, err := service.NewCommentConsumer(
		service.CommentConsumerDeps{
			Tickets:       repository.NewGormTicketRepo(db),
			Employees:     employees,
			Notifications: notifications,
			Transport:     mailTransport,
			Composer:      service.TemplateComposer{},
			Consumer:      queue.NewRabbitMQConsumer(broker, cfg.WorkerPrefetch, logger),
			RateLimiter:   limiter,
		},
		service.DeliveryConfig{
			Destination:     cfg.TransportDestination,
			Sender:          cfg.TransportSender,
			Queue:           cfg.CommentQueue,
			RateLimitBucket: cfg.MailTransport,
		},
		cfg.WorkerConcurrency,
		logger,
	)
	if err != nil {
		logger.Fatal("comment consumer initialization failed", zap.Error(err))
	}
	consumer.SetMetrics(metrics)

	scanner, err := service.NewStaleScanner(notifications, cfg.StaleScanInterval, cfg.StalePendingAfter, 0, logger)
	if err != nil {
		logger.Fatal("stale scanner initialization failed", zap.Error(err))
	}
	scanner.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	handler.RegisterHealthRoutes(app, sqlDB, rdb, broker)
	if err := handler.RegisterNotificationRoutes(app, notifications); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Start(groupCtx)
	})
	g.Go(func() error {
		return scanner.Start(groupCtx)
	})
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		logger.Info("http server listening", zap.String("addr", addr))
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-groupCtx.Done()
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	logger.Info("comment-notifier started",
		zap.String("queue", queue.QueueName(cfg.CommentQueue)),
		zap.String("mailTransport", cfg.MailTransport),
		zap.Int("workers", cfg.WorkerConcurrency),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("comment-notifier stopped with error", zap.Error(err))
		return
	}
	logger.Info("comment-notifier stopped")
}

func newMailTransport(cfg *config.Config) (mail.Transport, error) {
	switch cfg.MailTransport {
	case config.MailTransportWebhook:
		return mail.NewRelayTransport(cfg.MailRelayURL)
	case config.MailTransportSMTP:
		return mail.NewSMTPTransport(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		})
	default:
		return nil, fmt.Errorf("unsupported mail transport %q", cfg.MailTransport)
	}
}

func newMailRateLimiter(cfg *config.Config, rdb *goredis.Client) (ratelimit.RateLimiter, error) {
	if cfg.MailRateLimiter == config.RateLimiterLocal {
		return ratelimit.NewLocal(cfg.MailRateLimitPerSec)
	}
	return infraredis.NewMailThrottle(rdb, cfg.MailRateLimitPerSec)
}
