package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseStatusFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "valid uppercase", input: "SENT", want: StatusSent},
		{name: "valid lowercase with spaces", input: " pending ", want: StatusPending},
		{name: "invalid", input: "queued", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStatusFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseStatusFromString() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseStatusFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseStatusFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	t.Parallel()

	if StatusPending.IsTerminal() {
		t.Fatal("PENDING should not be terminal")
	}
	if !StatusSent.IsTerminal() || !StatusFailed.IsTerminal() {
		t.Fatal("SENT and FAILED should be terminal")
	}
}

func TestNotificationMarkSent(t *testing.T) {
	t.Parallel()

	n := NewPendingNotification(42, Content{Recipient: "a@x.com", Subject: "s", Body: "b"})
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	if err := n.MarkSent(at); err != nil {
		t.Fatalf("MarkSent() error = %v", err)
	}
	if n.Status != StatusSent {
		t.Fatalf("status = %s, want SENT", n.Status)
	}
	if n.SentAt == nil || !n.SentAt.Equal(at) {
		t.Fatalf("sentAt = %v, want %v", n.SentAt, at)
	}
	if n.SentAt.Location() != time.UTC {
		t.Fatalf("sentAt location = %v, want UTC", n.SentAt.Location())
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestNotificationMarkFailed(t *testing.T) {
	t.Parallel()

	n := NewPendingNotification(42, Content{Recipient: "a@x.com", Subject: "s", Body: "b"})
	if err := n.MarkFailed("  smtp 550  "); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}
	if n.Status != StatusFailed {
		t.Fatalf("status = %s, want FAILED", n.Status)
	}
	if n.SentAt != nil {
		t.Fatal("sentAt should be absent on FAILED")
	}
	if n.FailureReason == nil || *n.FailureReason != "smtp 550" {
		t.Fatalf("failureReason = %v, want smtp 550", n.FailureReason)
	}
}

func TestNotificationTerminalTransitionsRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		transition func(n *Notification) error
	}{
		{name: "sent to sent", transition: func(n *Notification) error { return n.MarkSent(time.Now()) }},
		{name: "sent to failed", transition: func(n *Notification) error { return n.MarkFailed("late") }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := NewPendingNotification(1, Content{Recipient: "a@x.com", Subject: "s"})
			if err := n.MarkSent(time.Now()); err != nil {
				t.Fatalf("MarkSent() error = %v", err)
			}
			if err := tt.transition(n); !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("error = %v, want ErrInvalidTransition", err)
			}
			if n.Status != StatusSent {
				t.Fatalf("status = %s, want SENT unchanged", n.Status)
			}
		})
	}
}

func TestNotificationValidate(t *testing.T) {
	t.Parallel()

	sentAt := time.Now()
	tests := []struct {
		name    string
		mutate  func(*Notification)
		wantErr bool
	}{
		{name: "valid pending", mutate: func(n *Notification) {}},
		{name: "missing ticket", mutate: func(n *Notification) { n.TicketID = 0 }, wantErr: true},
		{name: "missing recipient", mutate: func(n *Notification) { n.Recipient = " " }, wantErr: true},
		{name: "missing subject", mutate: func(n *Notification) { n.Subject = "" }, wantErr: true},
		{name: "unknown status", mutate: func(n *Notification) { n.Status = "QUEUED" }, wantErr: true},
		{name: "pending with sentAt", mutate: func(n *Notification) { n.SentAt = &sentAt }, wantErr: true},
		{name: "sent without sentAt", mutate: func(n *Notification) { n.Status = StatusSent }, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := NewPendingNotification(7, Content{Recipient: "a@x.com", Subject: "subject", Body: "body"})
			tt.mutate(n)

			err := n.Validate()
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestCommentEventValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   CommentEvent
		wantErr bool
	}{
		{name: "valid", event: CommentEvent{TicketID: 42, ReporterEmail: "a@x.com", Comment: "Looks good"}},
		{name: "empty comment allowed", event: CommentEvent{TicketID: 42, ReporterEmail: "a@x.com"}},
		{name: "zero ticket", event: CommentEvent{ReporterEmail: "a@x.com"}, wantErr: true},
		{name: "missing email", event: CommentEvent{TicketID: 1}, wantErr: true},
		{name: "malformed email", event: CommentEvent{TicketID: 1, ReporterEmail: "not-an-address"}, wantErr: true},
		{name: "display name form rejected", event: CommentEvent{TicketID: 1, ReporterEmail: "Jane <a@x.com>"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.event.Validate()
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestEmployeeFullName(t *testing.T) {
	t.Parallel()

	if got := (Employee{FirstName: "Jane", LastName: "Doe"}).FullName(); got != "Jane Doe" {
		t.Fatalf("FullName() = %q, want %q", got, "Jane Doe")
	}
	if got := (Employee{FirstName: "Jane"}).FullName(); got != "Jane" {
		t.Fatalf("FullName() = %q, want %q", got, "Jane")
	}
}
