package outbound

import (
	"context"
	"time"
)

// Receipt confirms an outbound side effect happened.
type Receipt struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	SentAt    time.Time `json:"sent_at"`
	Simulated bool      `json:"simulated"`
}

// EmailSender delivers email on behalf of the orchestrator. Implementations
// must be safe to retry: the caller wraps Send in retry-with-backoff.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (Receipt, error)
}

// SocialPublisher posts content to a social platform.
type SocialPublisher interface {
	Publish(ctx context.Context, platform, content string) (Receipt, error)
}
