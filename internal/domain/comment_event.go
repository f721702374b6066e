package domain

import (
	"fmt"
	"net/mail"
	"strings"
)

// CommentEvent signals that a comment was added to a ticket.
type CommentEvent struct {
	TicketID      int64
	ReporterEmail string
	Comment       string
	CorrelationID string
}

func (e CommentEvent) Validate() error {
	if e.TicketID <= 0 {
		return fmt.Errorf("%w: ticketId must be positive", ErrValidation)
	}
	email := strings.TrimSpace(e.ReporterEmail)
	if email == "" {
		return fmt.Errorf("%w: reporterEmail is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: reporterEmail %q is not a valid address", ErrValidation, e.ReporterEmail)
	}
	return nil
}
