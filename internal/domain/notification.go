package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a notification.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Notification is the durable record of one attempted email delivery for a comment event.
type Notification struct {
	ID            string
	CorrelationID string
	TicketID      int64
	Recipient     string
	Subject       string
	Body          string
	Status        Status
	FailureReason *string
	SentAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPendingNotification builds an unsaved notification for the given ticket and content.
func NewPendingNotification(ticketID int64, content Content) *Notification {
	return &Notification{
		TicketID:  ticketID,
		Recipient: content.Recipient,
		Subject:   content.Subject,
		Body:      content.Body,
		Status:    StatusPending,
	}
}

// MarkSent moves a pending notification to SENT and stamps SentAt.
func (n *Notification) MarkSent(at time.Time) error {
	if n.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, n.Status, StatusSent)
	}
	sentAt := at.UTC()
	n.Status = StatusSent
	n.SentAt = &sentAt
	n.FailureReason = nil
	return nil
}

// MarkFailed moves a pending notification to FAILED. SentAt stays nil.
func (n *Notification) MarkFailed(reason string) error {
	if n.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, n.Status, StatusFailed)
	}
	n.Status = StatusFailed
	n.SentAt = nil
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		n.FailureReason = &trimmed
	}
	return nil
}

func (n *Notification) Validate() error {
	if n.TicketID <= 0 {
		return fmt.Errorf("%w: ticket id must be positive", ErrValidation)
	}
	if strings.TrimSpace(n.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}
	if strings.TrimSpace(n.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if !n.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, n.Status)
	}
	if (n.Status == StatusSent) != (n.SentAt != nil) {
		return fmt.Errorf("%w: sentAt must be set iff status is %s", ErrValidation, StatusSent)
	}
	return nil
}

// Content is the composed, transport-independent part of a notification.
type Content struct {
	Recipient string
	Subject   string
	Body      string
}
