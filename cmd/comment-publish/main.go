// Command comment-publish publishes a single ticket comment event to the
// notifier's queue. It is meant for local testing and operational replays.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/kursadbilgin/comment-notifier/internal/domain"
	"github.com/kursadbilgin/comment-notifier/internal/observability"
	"github.com/kursadbilgin/comment-notifier/internal/queue"
	"go.uber.org/zap"
)

type publishConfig struct {
	RabbitMQURL  string `env:"RABBITMQ_URL,required=true"`
	CommentQueue string `env:"TICKET_COMMENT_QUEUE,default=ticket.comment"`
	LogLevel     string `env:"LOG_LEVEL,default=info"`
}

func main() {
	ticketID := flag.Int64("ticket", 0, "ticket id the comment belongs to")
	reporter := flag.String("reporter", "", "reporter email address")
	comment := flag.String("comment", "", "comment text")
	correlationID := flag.String("correlation-id", "", "correlation id (generated when empty)")
	timeout := flag.Duration("timeout", 15*time.Second, "publish timeout")
	flag.Parse()

	var cfg publishConfig
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	event := domain.CommentEvent{
		TicketID:      *ticketID,
		ReporterEmail: *reporter,
		Comment:       *comment,
		CorrelationID: observability.EnsureCorrelationID(*correlationID),
	}
	if err := event.Validate(); err != nil {
		logger.Fatal("invalid comment event", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	queueName := queue.QueueName(cfg.CommentQueue)
	broker, err := queue.NewRabbitMQ(cfg.RabbitMQURL, queueName)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}

	publisher := queue.NewRabbitMQPublisher(broker)
	defer publisher.Close() //nolint:errcheck

	if err := publisher.Publish(ctx, queueName, queue.MessageFromEvent(event)); err != nil {
		logger.Fatal("publish failed", zap.Error(err))
	}

	logger.Info("comment event published",
		zap.String("queue", queueName),
		zap.Int64("ticketId", event.TicketID),
		zap.String("correlationId", event.CorrelationID),
	)
}
