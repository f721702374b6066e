package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kursadbilgin/comment-notifier/internal/domain"
	"github.com/kursadbilgin/comment-notifier/internal/observability"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type fakeAcknowledger struct {
	acked    int
	nacked   int
	rejected int
	requeue  bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error {
	f.acked++
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.rejected++
	f.requeue = requeue
	return nil
}

func newDelivery(ack *fakeAcknowledger, body string) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		RoutingKey:   DefaultQueueName,
		Body:         []byte(body),
	}
}

func TestQueueNames(t *testing.T) {
	if got := QueueName(""); got != "ticket.comment" {
		t.Fatalf("QueueName(\"\") = %s, want ticket.comment", got)
	}
	if got := QueueName(" comments "); got != "comments" {
		t.Fatalf("QueueName = %s, want comments", got)
	}
	if got := DLQName("ticket.comment"); got != "dlq.ticket.comment" {
		t.Fatalf("DLQName = %s, want dlq.ticket.comment", got)
	}

	args := workQueueArgs("ticket.comment")
	if args["x-dead-letter-exchange"] != "comment-notifier.dlx" {
		t.Fatalf("unexpected dlx: %v", args["x-dead-letter-exchange"])
	}
	if args["x-dead-letter-routing-key"] != "ticket.comment" {
		t.Fatalf("unexpected dead-letter routing key: %v", args["x-dead-letter-routing-key"])
	}
}

func TestCommentMessageValidate(t *testing.T) {
	msg := CommentMessage{TicketID: 42, ReporterEmail: "alice@example.com", Comment: "hi"}
	if err := msg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	msg.TicketID = 0
	if err := msg.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for zero ticket id, got %v", err)
	}

	msg.TicketID = 42
	msg.ReporterEmail = ""
	if err := msg.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for missing reporter, got %v", err)
	}

	msg.ReporterEmail = "not-an-email"
	if err := msg.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for malformed reporter, got %v", err)
	}
}

func TestCommentMessageLegacyReporterField(t *testing.T) {
	msg := CommentMessage{TicketID: 7, LegacyReporterEmail: "bob@example.com", Comment: ""}
	if err := msg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	event := msg.ToEvent()
	if event.ReporterEmail != "bob@example.com" {
		t.Fatalf("ReporterEmail = %q, want bob@example.com", event.ReporterEmail)
	}
	if event.Comment != "" {
		t.Fatalf("Comment = %q, want empty", event.Comment)
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "not found", err: fmt.Errorf("ticket lookup: %w", domain.ErrNotFound), want: true},
		{name: "validation", err: fmt.Errorf("event: %w", domain.ErrValidation), want: true},
		{name: "infrastructure", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Fatalf("IsPermanent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandleDelivery(t *testing.T) {
	const validBody = `{"ticketId":42,"reporterEmail":"alice@example.com","comment":"Looks good"}`

	tests := []struct {
		name         string
		body         string
		handlerErr   error
		wantHandled  bool
		wantAcked    int
		wantNacked   int
		wantRejected int
		wantRequeue  bool
	}{
		{name: "success acks", body: validBody, wantHandled: true, wantAcked: 1},
		{name: "invalid json is dead-lettered", body: `{not json`, wantRejected: 1},
		{name: "invalid payload is dead-lettered", body: `{"ticketId":0,"reporterEmail":"alice@example.com"}`, wantRejected: 1},
		{
			name:         "not found is dead-lettered",
			body:         validBody,
			handlerErr:   fmt.Errorf("ticket lookup: %w", domain.ErrNotFound),
			wantHandled:  true,
			wantRejected: 1,
		},
		{
			name:        "transient failure is requeued",
			body:        validBody,
			handlerErr:  errors.New("db unavailable"),
			wantHandled: true,
			wantNacked:  1,
			wantRequeue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer := NewRabbitMQConsumer(nil, 1, zap.NewNop())
			ack := &fakeAcknowledger{}

			handled := false
			handler := func(ctx context.Context, event domain.CommentEvent) error {
				handled = true
				if event.TicketID != 42 {
					t.Fatalf("TicketID = %d, want 42", event.TicketID)
				}
				if event.CorrelationID == "" {
					t.Fatal("expected correlation id to be assigned")
				}
				if id, ok := observability.CorrelationIDFromContext(ctx); !ok || id != event.CorrelationID {
					t.Fatalf("context correlation id = %q, want %q", id, event.CorrelationID)
				}
				return tt.handlerErr
			}

			if err := consumer.handleDelivery(context.Background(), newDelivery(ack, tt.body), handler); err != nil {
				t.Fatalf("handleDelivery() error: %v", err)
			}

			if handled != tt.wantHandled {
				t.Fatalf("handled = %v, want %v", handled, tt.wantHandled)
			}
			if ack.acked != tt.wantAcked || ack.nacked != tt.wantNacked || ack.rejected != tt.wantRejected {
				t.Fatalf("ack/nack/reject = %d/%d/%d, want %d/%d/%d",
					ack.acked, ack.nacked, ack.rejected, tt.wantAcked, tt.wantNacked, tt.wantRejected)
			}
			if ack.requeue != tt.wantRequeue {
				t.Fatalf("requeue = %v, want %v", ack.requeue, tt.wantRequeue)
			}
		})
	}
}

func TestHandleDeliveryUsesBrokerCorrelationID(t *testing.T) {
	consumer := NewRabbitMQConsumer(nil, 1, nil)
	ack := &fakeAcknowledger{}
	d := newDelivery(ack, `{"ticketId":42,"normalUserEmail":"alice@example.com","comment":"x"}`)
	d.CorrelationId = "corr-from-header"

	var got string
	err := consumer.handleDelivery(context.Background(), d, func(_ context.Context, event domain.CommentEvent) error {
		got = event.CorrelationID
		return nil
	})
	if err != nil {
		t.Fatalf("handleDelivery() error: %v", err)
	}
	if got != "corr-from-header" {
		t.Fatalf("CorrelationID = %q, want corr-from-header", got)
	}
	if ack.acked != 1 {
		t.Fatalf("acked = %d, want 1", ack.acked)
	}
}
