package provider

import (
	"context"
	"fmt"
)

// OutboundEmail is one message handed to the delivery provider
type OutboundEmail struct {
	MessageID string // our message ID, echoed back by webhooks
	To        string
	ToName    string
	From      string
	FromName  string
	Subject   string
	HTMLBody  string
}

// SendResult carries the provider's identifier for a dispatched message
type SendResult struct {
	ProviderMessageID string
}

// Error is a delivery failure. Permanent failures (hard bounces,
// rejected recipients) must never be retried; anything else, including
// timeouts, is transient and eligible for a later attempt.
type Error struct {
	Permanent bool
	Err       error
}

func (e *Error) Error() string {
	kind := "transient"
	if e.Permanent {
		kind = "permanent"
	}
	return fmt.Sprintf("provider %s failure: %v", kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether err is a permanent provider failure
func IsPermanent(err error) bool {
	if pe, ok := err.(*Error); ok {
		return pe.Permanent
	}
	return false
}

// EmailProvider dispatches a single rendered message
type EmailProvider interface {
	Send(ctx context.Context, email *OutboundEmail) (*SendResult, error)
}
