package email

import (
	"context"
	"time"
)

// SendRequest is one outbound message. The reminder digest is the only
// producer today; From falls back to the sender's configured address
// when empty.
type SendRequest struct {
	To      []string
	From    string
	Subject string
	HTML    string
	ReplyTo string
}

// SendResult reports the provider's acknowledgement.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers mail through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
