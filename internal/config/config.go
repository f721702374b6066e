package config

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	MailTransportSMTP    = "smtp"
	MailTransportWebhook = "webhook"

	RateLimiterRedis = "redis"
	RateLimiterLocal = "local"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL string `env:"RABBITMQ_URL,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`

	// TransportDestination is the operational mailbox every notification is routed to,
	// independent of the notification's logical recipient.
	TransportDestination string `env:"NOTIFICATION_TRANSPORT_DESTINATION,required=true"`
	TransportSender      string `env:"NOTIFICATION_TRANSPORT_SENDER,required=true"`
	MailTransport        string `env:"MAIL_TRANSPORT,default=smtp"`
	SMTPHost             string `env:"SMTP_HOST"`
	SMTPPort             int    `env:"SMTP_PORT,default=587"`
	SMTPUsername         string `env:"SMTP_USERNAME"`
	SMTPPassword         string `env:"SMTP_PASSWORD"`
	MailRelayURL         string `env:"MAIL_RELAY_URL"`

	CommentQueue        string        `env:"TICKET_COMMENT_QUEUE,default=ticket.comment"`
	WorkerConcurrency   int           `env:"WORKER_CONCURRENCY,default=4"`
	WorkerPrefetch      int           `env:"WORKER_PREFETCH,default=8"`
	MailRateLimitPerSec int           `env:"MAIL_RATE_LIMIT_PER_SEC,default=10"`
	MailRateLimiter     string        `env:"MAIL_RATE_LIMITER,default=redis"`
	EmployeeCacheTTL    time.Duration `env:"EMPLOYEE_CACHE_TTL,default=5m"`
	StalePendingAfter   time.Duration `env:"STALE_PENDING_AFTER,default=10m"`
	StaleScanInterval   time.Duration `env:"STALE_SCAN_INTERVAL,default=1m"`
	APIPort             int           `env:"API_PORT,default=8080"`
	LogLevel            string        `env:"LOG_LEVEL,default=info"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := mail.ParseAddress(c.TransportDestination); err != nil {
		return fmt.Errorf("invalid NOTIFICATION_TRANSPORT_DESTINATION: %w", err)
	}
	if _, err := mail.ParseAddress(c.TransportSender); err != nil {
		return fmt.Errorf("invalid NOTIFICATION_TRANSPORT_SENDER: %w", err)
	}

	c.MailTransport = strings.ToLower(strings.TrimSpace(c.MailTransport))
	switch c.MailTransport {
	case MailTransportSMTP:
		if strings.TrimSpace(c.SMTPHost) == "" {
			return fmt.Errorf("SMTP_HOST is required when MAIL_TRANSPORT=%s", MailTransportSMTP)
		}
	case MailTransportWebhook:
		if strings.TrimSpace(c.MailRelayURL) == "" {
			return fmt.Errorf("MAIL_RELAY_URL is required when MAIL_TRANSPORT=%s", MailTransportWebhook)
		}
	default:
		return fmt.Errorf("unsupported MAIL_TRANSPORT %q", c.MailTransport)
	}

	c.MailRateLimiter = strings.ToLower(strings.TrimSpace(c.MailRateLimiter))
	if c.MailRateLimiter != RateLimiterRedis && c.MailRateLimiter != RateLimiterLocal {
		return fmt.Errorf("unsupported MAIL_RATE_LIMITER %q", c.MailRateLimiter)
	}

	if strings.TrimSpace(c.CommentQueue) == "" {
		return fmt.Errorf("TICKET_COMMENT_QUEUE must not be empty")
	}
	return nil
}
