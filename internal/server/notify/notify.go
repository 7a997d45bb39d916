// Package notify dispatches account e-mails (reset codes, username
// reminders). Rendering lives in Mailer; delivery is a Sender.
package notify

import (
	"context"
	"time"
)

// Message is a rendered e-mail ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier is what the auth service depends on.
type Notifier interface {
	SendPasswordReset(ctx context.Context, to, username, code string, ttl time.Duration) error
	SendUsernameReminder(ctx context.Context, to, username string) error
}
