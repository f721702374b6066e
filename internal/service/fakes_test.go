package service

import (
	"context"
	"sync"
	"time"

	"github.com/kursadbilgin/comment-notifier/internal/domain"
	"github.com/kursadbilgin/comment-notifier/internal/mail"
	"github.com/kursadbilgin/comment-notifier/internal/queue"
	"github.com/kursadbilgin/comment-notifier/internal/ratelimit"
	"github.com/kursadbilgin/comment-notifier/internal/repository"
)

type fakeTicketLookup struct {
	getTicketFn func(ctx context.Context, ticketID int64) (*domain.Ticket, error)
}

func (f *fakeTicketLookup) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	if f.getTicketFn != nil {
		return f.getTicketFn(ctx, ticketID)
	}
	return &domain.Ticket{ID: ticketID, Title: "ticket", Status: "OPEN"}, nil
}

type fakeEmployeeLookup struct {
	getEmployeeByEmailFn func(ctx context.Context, email string) (*domain.Employee, error)
}

func (f *fakeEmployeeLookup) GetEmployeeByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	if f.getEmployeeByEmailFn != nil {
		return f.getEmployeeByEmailFn(ctx, email)
	}
	return &domain.Employee{ID: 1, FirstName: "Alice", LastName: "Smith", Email: email}, nil
}

// fakeNotificationRepo records a snapshot of every saved notification. Without
// saveFn it assigns ID and CreatedAt on first save, as the gorm store does.
type fakeNotificationRepo struct {
	mu sync.Mutex

	saveFn             func(ctx context.Context, n *domain.Notification) error
	getByIDFn          func(ctx context.Context, id string) (*domain.Notification, error)
	listFn             func(ctx context.Context, params repository.ListParams) ([]domain.Notification, int64, error)
	listStalePendingFn func(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Notification, int64, error)

	saved []domain.Notification
}

func (f *fakeNotificationRepo) Save(ctx context.Context, n *domain.Notification) error {
	f.mu.Lock()
	f.saved = append(f.saved, *n)
	f.mu.Unlock()

	if f.saveFn != nil {
		return f.saveFn(ctx, n)
	}
	if n.ID == "" {
		n.ID = "n-1"
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = fixedNow
	}
	return nil
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeNotificationRepo) List(ctx context.Context, params repository.ListParams) ([]domain.Notification, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, 0, nil
}

func (f *fakeNotificationRepo) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Notification, int64, error) {
	if f.listStalePendingFn != nil {
		return f.listStalePendingFn(ctx, createdBefore, limit)
	}
	return nil, 0, nil
}

func (f *fakeNotificationRepo) snapshots() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Notification(nil), f.saved...)
}

type fakeTransport struct {
	sendFn func(ctx context.Context, msg mail.Message) error
}

func (f *fakeTransport) Send(ctx context.Context, msg mail.Message) error {
	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return nil
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, bucket string) (bool, error)
	waitFn  func(ctx context.Context, bucket string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, bucket string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, bucket)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, bucket string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, bucket)
	}
	return nil
}

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queue string, handler queue.MessageHandler) error
	closeFn   func() error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	return nil
}

func (f *fakeConsumer) Close() error {
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}

var (
	_ repository.TicketLookup           = (*fakeTicketLookup)(nil)
	_ repository.EmployeeLookup         = (*fakeEmployeeLookup)(nil)
	_ repository.NotificationRepository = (*fakeNotificationRepo)(nil)
	_ mail.Transport                    = (*fakeTransport)(nil)
	_ ratelimit.RateLimiter             = (*fakeRateLimiter)(nil)
	_ queue.Consumer                    = (*fakeConsumer)(nil)
)
