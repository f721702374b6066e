package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kursadbilgin/comment-notifier/internal/observability"
	"github.com/kursadbilgin/comment-notifier/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultStaleScanInterval = time.Minute
	defaultStalePendingAfter = 10 * time.Minute
	defaultStaleScanLimit    = 100
)

// StaleScanner periodically reports notifications stuck in PENDING, which
// happens when the process dies between the create and the final save.
// The gauge carries the full count; only the newest limit records are logged
// individually. It only reports; records are never modified.
type StaleScanner struct {
	notifications repository.NotificationRepository
	logger        *zap.Logger
	metrics       *observability.Metrics
	interval      time.Duration
	olderThan     time.Duration
	limit         int
	now           func() time.Time
}

func NewStaleScanner(
	notifications repository.NotificationRepository,
	interval time.Duration,
	olderThan time.Duration,
	limit int,
	logger *zap.Logger,
) (*StaleScanner, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if interval <= 0 {
		interval = defaultStaleScanInterval
	}
	if olderThan <= 0 {
		olderThan = defaultStalePendingAfter
	}
	if limit <= 0 {
		limit = defaultStaleScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StaleScanner{
		notifications: notifications,
		logger:        logger,
		interval:      interval,
		olderThan:     olderThan,
		limit:         limit,
		now:           time.Now,
	}, nil
}

func (s *StaleScanner) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *StaleScanner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.scan(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("stale pending scanner initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.scan(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("stale pending scanner scan failed", zap.Error(err))
			}
		}
	}
}

func (s *StaleScanner) scan(ctx context.Context) error {
	cutoff := s.now().Add(-s.olderThan).UTC()
	stale, total, err := s.notifications.ListStalePending(ctx, cutoff, s.limit)
	if err != nil {
		return fmt.Errorf("failed to list stale pending notifications: %w", err)
	}

	s.metrics.SetStalePending(int(total))
	if total == 0 {
		return nil
	}

	s.logger.Warn("stale pending notifications found",
		zap.Int64("total", total),
		zap.Int("listed", len(stale)),
		zap.Time("cutoff", cutoff),
	)
	for i := range stale {
		n := stale[i]
		s.logger.Warn("notification still pending",
			zap.String("notificationId", n.ID),
			zap.Int64("ticketId", n.TicketID),
			zap.String("correlationId", n.CorrelationID),
			zap.Time("createdAt", n.CreatedAt),
		)
	}

	return nil
}
