package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/comment-notifier/internal/domain"
	"github.com/kursadbilgin/comment-notifier/internal/mail"
	"github.com/kursadbilgin/comment-notifier/internal/observability"
	"github.com/kursadbilgin/comment-notifier/internal/queue"
	"github.com/kursadbilgin/comment-notifier/internal/ratelimit"
	"github.com/kursadbilgin/comment-notifier/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minWorkerConcurrency = 1
	// finalSaveTimeout bounds the terminal save, which must outlive shutdown cancellation.
	finalSaveTimeout = 5 * time.Second
)

// DeliveryConfig is where every notification email goes, regardless of the
// notification's logical recipient.
type DeliveryConfig struct {
	Destination     string
	Sender          string
	Queue           string
	RateLimitBucket string
}

type CommentConsumerDeps struct {
	Tickets       repository.TicketLookup
	Employees     repository.EmployeeLookup
	Notifications repository.NotificationRepository
	Transport     mail.Transport
	Composer      Composer
	Consumer      queue.Consumer
	RateLimiter   ratelimit.RateLimiter
}

type CommentConsumer struct {
	tickets       repository.TicketLookup
	employees     repository.EmployeeLookup
	notifications repository.NotificationRepository
	transport     mail.Transport
	composer      Composer
	consumer      queue.Consumer
	rateLimiter   ratelimit.RateLimiter
	delivery      DeliveryConfig
	concurrency   int
	logger        *zap.Logger
	metrics       *observability.Metrics
	now           func() time.Time
}

func NewCommentConsumer(
	deps CommentConsumerDeps,
	delivery DeliveryConfig,
	concurrency int,
	logger *zap.Logger,
) (*CommentConsumer, error) {
	if deps.Tickets == nil {
		return nil, fmt.Errorf("ticket lookup is required")
	}
	if deps.Employees == nil {
		return nil, fmt.Errorf("employee lookup is required")
	}
	if deps.Notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if deps.Transport == nil {
		return nil, fmt.Errorf("mail transport is required")
	}
	if strings.TrimSpace(delivery.Destination) == "" {
		return nil, fmt.Errorf("delivery destination is required")
	}
	if strings.TrimSpace(delivery.Sender) == "" {
		return nil, fmt.Errorf("delivery sender is required")
	}
	if deps.Composer == nil {
		deps.Composer = TemplateComposer{}
	}
	if deps.RateLimiter == nil {
		deps.RateLimiter = ratelimit.Nop{}
	}
	delivery.Queue = queue.QueueName(delivery.Queue)
	if delivery.RateLimitBucket == "" {
		delivery.RateLimitBucket = "mail"
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CommentConsumer{
		tickets:       deps.Tickets,
		employees:     deps.Employees,
		notifications: deps.Notifications,
		transport:     deps.Transport,
		composer:      deps.Composer,
		consumer:      deps.Consumer,
		rateLimiter:   deps.RateLimiter,
		delivery:      delivery,
		concurrency:   concurrency,
		logger:        logger,
		now:           time.Now,
	}, nil
}

func (c *CommentConsumer) SetMetrics(metrics *observability.Metrics) {
	if c == nil {
		return
	}
	c.metrics = metrics
}

// Start consumes the comment queue with the configured number of workers until context cancellation.
func (c *CommentConsumer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.consumer == nil {
		return fmt.Errorf("queue consumer is required")
	}

	queueName := c.delivery.Queue
	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < c.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			c.logger.Info("worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			err := c.consumer.Consume(groupCtx, queueName, c.Handle)
			if err != nil {
				c.logger.Error("worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			c.logger.Info("worker stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

// Handle processes one comment event. It returns an error only when the event
// is invalid or a lookup fails; in that case nothing is persisted. Once the
// notification is composed, its final state is saved on every exit path and
// delivery problems are logged rather than returned.
func (c *CommentConsumer) Handle(ctx context.Context, event domain.CommentEvent) error {
	if event.CorrelationID == "" {
		if id, ok := observability.CorrelationIDFromContext(ctx); ok {
			event.CorrelationID = id
		}
	}
	logger := observability.WithContextLogger(c.logger, ctx).With(zap.Int64("ticketId", event.TicketID))

	if err := event.Validate(); err != nil {
		c.metrics.IncCommentEvent(observability.OutcomeInvalid)
		return err
	}

	c.metrics.IncWorkerInFlight()
	defer c.metrics.DecWorkerInFlight()

	ticket, err := c.tickets.GetTicket(ctx, event.TicketID)
	if err != nil {
		c.metrics.IncCommentEvent(observability.OutcomeLookupFailed)
		return fmt.Errorf("failed to look up ticket %d: %w", event.TicketID, err)
	}

	employee, err := c.employees.GetEmployeeByEmail(ctx, event.ReporterEmail)
	if err != nil {
		c.metrics.IncCommentEvent(observability.OutcomeLookupFailed)
		return fmt.Errorf("failed to look up employee %q: %w", event.ReporterEmail, err)
	}

	c.deliver(ctx, logger, event, *ticket, *employee)
	return nil
}

func (c *CommentConsumer) deliver(
	ctx context.Context,
	logger *zap.Logger,
	event domain.CommentEvent,
	ticket domain.Ticket,
	employee domain.Employee,
) {
	var notification *domain.Notification
	outcome := observability.OutcomeUnexpected

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing comment event",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			outcome = observability.OutcomeUnexpected
		}

		if notification != nil {
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
			defer cancel()
			if err := c.notifications.Save(saveCtx, notification); err != nil {
				logger.Error("failed to persist final notification state",
					zap.String("notificationId", notification.ID),
					zap.String("status", notification.Status.String()),
					zap.Error(err),
				)
				outcome = observability.OutcomePersistFailed
			}
		}

		c.metrics.IncCommentEvent(outcome)
	}()

	content := c.composer.Compose(event, ticket, employee)
	notification = domain.NewPendingNotification(event.TicketID, content)
	notification.CorrelationID = event.CorrelationID

	if err := c.notifications.Save(ctx, notification); err != nil {
		logger.Error("failed to persist pending notification, skipping send", zap.Error(err))
		outcome = observability.OutcomePersistFailed
		return
	}

	logger = logger.With(zap.String("notificationId", notification.ID))

	if err := c.rateLimiter.Wait(ctx, c.delivery.RateLimitBucket); err != nil {
		if ctx.Err() != nil {
			logger.Warn("context canceled before send, notification left pending", zap.Error(err))
			return
		}
		logger.Warn("mail rate limiter unavailable, sending without throttling", zap.Error(err))
	}

	sendStart := c.now()
	sendErr := c.transport.Send(ctx, mail.Message{
		From:          c.delivery.Sender,
		To:            c.delivery.Destination,
		Subject:       notification.Subject,
		Body:          notification.Body,
		CorrelationID: notification.CorrelationID,
	})
	c.metrics.ObserveMailSendDuration(c.now().Sub(sendStart))

	if sendErr == nil {
		if err := notification.MarkSent(c.now()); err != nil {
			logger.Error("failed to mark notification sent", zap.Error(err))
			return
		}
		outcome = observability.OutcomeSent
		logger.Info("comment notification sent")
		return
	}

	var transportErr *mail.TransportError
	if errors.As(sendErr, &transportErr) {
		if err := notification.MarkFailed(sendErr.Error()); err != nil {
			logger.Error("failed to mark notification failed", zap.Error(err))
			return
		}
		outcome = observability.OutcomeFailed
		c.metrics.IncNotificationFailed(mail.FailureReason(sendErr))
		logger.Warn("comment notification delivery failed",
			zap.Bool("transient", transportErr.Transient),
			zap.Error(sendErr),
		)
		return
	}

	logger.Error("unexpected error while sending comment notification, leaving status unchanged",
		zap.Error(sendErr),
	)
}
