package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/comment-notifier/internal/domain"
	"github.com/kursadbilgin/comment-notifier/internal/observability"
	"github.com/kursadbilgin/comment-notifier/internal/repository"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultEmployeeCacheTTL = 5 * time.Minute

var _ repository.EmployeeLookup = (*CachedEmployeeLookup)(nil)

type cachedEmployee struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// CachedEmployeeLookup is a read-through Redis cache in front of the employee directory.
// Misses and NotFound results are never cached; Redis failures fall through to the directory.
type CachedEmployeeLookup struct {
	next    repository.EmployeeLookup
	client  *goredis.Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewCachedEmployeeLookup(
	next repository.EmployeeLookup,
	client *goredis.Client,
	ttl time.Duration,
	logger *zap.Logger,
) (*CachedEmployeeLookup, error) {
	if next == nil {
		return nil, fmt.Errorf("employee lookup is required")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultEmployeeCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CachedEmployeeLookup{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func (c *CachedEmployeeLookup) SetMetrics(metrics *observability.Metrics) {
	if c == nil {
		return
	}
	c.metrics = metrics
}

func (c *CachedEmployeeLookup) GetEmployeeByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	key := employeeCacheKey(email)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedEmployee
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			c.metrics.IncEmployeeCacheLookup("hit")
			return &domain.Employee{
				ID:        cached.ID,
				FirstName: cached.FirstName,
				LastName:  cached.LastName,
				Email:     cached.Email,
			}, nil
		}
		c.logger.Warn("discarding unreadable employee cache entry", zap.String("key", key))
		c.metrics.IncEmployeeCacheLookup("error")
	case errors.Is(err, goredis.Nil):
		c.metrics.IncEmployeeCacheLookup("miss")
	default:
		c.logger.Warn("employee cache read failed", zap.String("key", key), zap.Error(err))
		c.metrics.IncEmployeeCacheLookup("error")
	}

	employee, err := c.next.GetEmployeeByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedEmployee{
		ID:        employee.ID,
		FirstName: employee.FirstName,
		LastName:  employee.LastName,
		Email:     employee.Email,
	})
	if err == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn("employee cache write failed", zap.String("key", key), zap.Error(setErr))
		}
	}

	return employee, nil
}

func employeeCacheKey(email string) string {
	return fmt.Sprintf("%s:employee:%s", keyPrefix, strings.ToLower(strings.TrimSpace(email)))
}
