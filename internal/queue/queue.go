package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kursadbilgin/comment-notifier/internal/domain"
)

// Publisher publishes comment messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg CommentMessage) error
	Close() error
}

// MessageHandler handles a decoded, validated comment event.
type MessageHandler func(ctx context.Context, event domain.CommentEvent) error

// Consumer consumes comment messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

// DefaultQueueName is the queue comment events are published to when none is configured.
const DefaultQueueName = "ticket.comment"

// QueueName normalizes a configured queue name, falling back to DefaultQueueName.
func QueueName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultQueueName
	}
	return name
}

// DLQName returns the dead-letter queue name for a work queue, e.g. dlq.ticket.comment.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", QueueName(queue))
}

// IsPermanent reports whether a handler error should dead-letter the delivery
// instead of requeueing it.
func IsPermanent(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation)
}
