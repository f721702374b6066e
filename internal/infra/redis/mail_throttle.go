package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/comment-notifier/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultSendsPerSecond = 10
	sendWindow            = time.Second
)

// claimSendSlot counts one send against the current window and returns the
// number of sends claimed so far. The counter expires with the window.
var claimSendSlot = goredis.NewScript(`
local claimed = redis.call("INCR", KEYS[1])
if claimed == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return claimed
`)

var _ ratelimit.RateLimiter = (*MailThrottle)(nil)

// MailThrottle caps outbound mail at sendsPerSecond per bucket across every
// notifier replica sharing the Redis instance. Windows are aligned to whole
// seconds, so a throttled sender resumes at the next second boundary.
type MailThrottle struct {
	client         *goredis.Client
	sendsPerSecond int64
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewMailThrottle(client *goredis.Client, sendsPerSecond int) (*MailThrottle, error) {
	return newMailThrottle(client, sendsPerSecond, time.Now, sleepWithContext)
}

func newMailThrottle(
	client *goredis.Client,
	sendsPerSecond int,
	now func() time.Time,
	sleep func(ctx context.Context, d time.Duration) error,
) (*MailThrottle, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if sendsPerSecond <= 0 {
		sendsPerSecond = defaultSendsPerSecond
	}
	if now == nil {
		now = time.Now
	}
	if sleep == nil {
		sleep = sleepWithContext
	}

	return &MailThrottle{
		client:         client,
		sendsPerSecond: int64(sendsPerSecond),
		now:            now,
		sleep:          sleep,
	}, nil
}

// Allow claims a send slot in the current window for bucket and reports
// whether the claim fit under the cap.
func (m *MailThrottle) Allow(ctx context.Context, bucket string) (bool, error) {
	if m == nil || m.client == nil {
		return false, fmt.Errorf("mail throttle is not initialized")
	}

	bucket = strings.ToLower(strings.TrimSpace(bucket))
	if bucket == "" {
		return false, fmt.Errorf("mail throttle bucket is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	window := m.now().UTC().Truncate(sendWindow)
	key := fmt.Sprintf("%s:mail-throttle:%s:%d", keyPrefix, bucket, window.Unix())
	claimed, err := claimSendSlot.Run(ctx, m.client, []string{key}, sendWindow.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to claim mail send slot: %w", err)
	}

	return claimed <= m.sendsPerSecond, nil
}

// Wait blocks until a send slot is claimed for bucket or ctx is done.
func (m *MailThrottle) Wait(ctx context.Context, bucket string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		ok, err := m.Allow(ctx, bucket)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if err := m.sleep(ctx, m.untilNextWindow()); err != nil {
			return err
		}
	}
}

func (m *MailThrottle) untilNextWindow() time.Duration {
	now := m.now()
	return now.Truncate(sendWindow).Add(sendWindow).Sub(now)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
