package queue

import (
	"fmt"
	"strings"

	"github.com/kursadbilgin/comment-notifier/internal/domain"
)

// CommentMessage is the broker payload produced when a comment is added to a ticket.
type CommentMessage struct {
	TicketID      int64  `json:"ticketId"`
	ReporterEmail string `json:"reporterEmail,omitempty"`
	// LegacyReporterEmail carries the field name used by older producers.
	LegacyReporterEmail string `json:"normalUserEmail,omitempty"`
	Comment             string `json:"comment"`
	CorrelationID       string `json:"correlationId,omitempty"`
}

func (m CommentMessage) reporterEmail() string {
	if email := strings.TrimSpace(m.ReporterEmail); email != "" {
		return email
	}
	return strings.TrimSpace(m.LegacyReporterEmail)
}

func (m CommentMessage) Validate() error {
	if m.TicketID <= 0 {
		return fmt.Errorf("%w: ticketId must be positive", domain.ErrValidation)
	}
	if m.reporterEmail() == "" {
		return fmt.Errorf("%w: reporterEmail is required", domain.ErrValidation)
	}
	return m.ToEvent().Validate()
}

// ToEvent converts the wire message into the domain event.
func (m CommentMessage) ToEvent() domain.CommentEvent {
	return domain.CommentEvent{
		TicketID:      m.TicketID,
		ReporterEmail: m.reporterEmail(),
		Comment:       m.Comment,
		CorrelationID: strings.TrimSpace(m.CorrelationID),
	}
}

// MessageFromEvent builds the wire message for an event.
func MessageFromEvent(event domain.CommentEvent) CommentMessage {
	return CommentMessage{
		TicketID:      event.TicketID,
		ReporterEmail: event.ReporterEmail,
		Comment:       event.Comment,
		CorrelationID: event.CorrelationID,
	}
}
