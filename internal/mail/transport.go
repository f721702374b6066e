// Package mail delivers composed notifications to the operational mailbox.
package mail

import "context"

// Message is a fully addressed email ready for delivery.
type Message struct {
	From          string
	To            string
	Subject       string
	Body          string
	CorrelationID string
}

// Transport is the outbound mail delivery port. Failures are reported as *TransportError.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}
