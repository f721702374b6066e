package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const (
	defaultSMTPTimeout  = 15 * time.Second
	correlationIDHeader = "X-Correlation-ID"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPTransport sends plain-text mail through an SMTP relay. A fresh client is dialed per message.
type SMTPTransport struct {
	host    string
	options []gomail.Option
}

func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid smtp port %d", cfg.Port)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}

	options := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(timeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		options = append(options,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	// Validates host and options up front.
	if _, err := gomail.NewClient(host, options...); err != nil {
		return nil, fmt.Errorf("invalid smtp configuration: %w", err)
	}

	return &SMTPTransport{host: host, options: options}, nil
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if t == nil {
		return fmt.Errorf("smtp transport is not initialized")
	}

	m, err := buildSMTPMessage(msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(t.host, t.options...)
	if err != nil {
		return &TransportError{Message: "failed to create smtp client", Cause: err}
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return classifySMTPError(err)
	}
	return nil
}

func buildSMTPMessage(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, &TransportError{Message: "invalid sender address", Cause: err}
	}
	if err := m.To(msg.To); err != nil {
		return nil, &TransportError{Message: "invalid destination address", Cause: err}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	if cid := strings.TrimSpace(msg.CorrelationID); cid != "" {
		m.SetGenHeader(gomail.Header(correlationIDHeader), cid)
	}
	return m, nil
}

func classifySMTPError(err error) error {
	var sendErr *gomail.SendError
	if errors.As(err, &sendErr) {
		return &TransportError{
			Message:   "smtp send failed",
			Transient: sendErr.IsTemp(),
			Cause:     err,
		}
	}

	transient := true
	switch {
	case errors.Is(err, context.Canceled):
		transient = false
	case errors.Is(err, context.DeadlineExceeded):
		transient = true
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			transient = netErr.Timeout()
		}
	}

	return &TransportError{
		Message:   "smtp delivery failed",
		Transient: transient,
		Cause:     err,
	}
}
