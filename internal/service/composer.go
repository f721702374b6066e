package service

import (
	"fmt"

	"github.com/kursadbilgin/comment-notifier/internal/domain"
)

// Composer renders the notification content for a comment event.
type Composer interface {
	Compose(event domain.CommentEvent, ticket domain.Ticket, employee domain.Employee) domain.Content
}

const (
	commentSubjectFormat = "New Comment Added For Ticket: #%d"
	commentBodyFormat    = "Dear %s %s,\n" +
		"\n" +
		"A new comment has been added for ticket #%d.\n" +
		"\n" +
		"Ticket ID: %d\n" +
		"comment: %s\n" +
		"\n" +
		"Please check your dashboard for more details.\n" +
		"\n" +
		"Best Regards,\n" +
		"Support Team"
)

// TemplateComposer renders the fixed plain-text comment template. It is pure.
type TemplateComposer struct{}

func (TemplateComposer) Compose(event domain.CommentEvent, _ domain.Ticket, employee domain.Employee) domain.Content {
	return domain.Content{
		Recipient: event.ReporterEmail,
		Subject:   fmt.Sprintf(commentSubjectFormat, event.TicketID),
		Body: fmt.Sprintf(commentBodyFormat,
			employee.FirstName,
			employee.LastName,
			event.TicketID,
			event.TicketID,
			event.Comment,
		),
	}
}
