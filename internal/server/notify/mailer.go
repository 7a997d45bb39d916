package notify

import (
	"bytes"
	"context"
	"fmt"
	"time"
)

// Mailer renders account e-mails and hands them to a Sender.
type Mailer struct {
	sender Sender
}

var _ Notifier = (*Mailer)(nil)

func NewMailer(sender Sender) *Mailer {
	return &Mailer{sender: sender}
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, username, code string, ttl time.Duration) error {
	data := struct {
		Username string
		Code     string
		Minutes  int
	}{Username: username, Code: code, Minutes: int(ttl.Minutes())}

	msg, err := render(to, passwordResetSubject, passwordResetTemplates, data)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}

func (m *Mailer) SendUsernameReminder(ctx context.Context, to, username string) error {
	data := struct{ Username string }{Username: username}

	msg, err := render(to, usernameSubject, usernameTemplates, data)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}

func render(to, subject string, t templatePair, data any) (Message, error) {
	var html, text bytes.Buffer
	if err := t.html.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", t.html.Name(), err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", t.text.Name(), err)
	}
	return Message{To: to, Subject: subject, HTML: html.String(), Text: text.String()}, nil
}
