package notify

import (
	"context"

	"github.com/dmitrijs2005/discbaboons/internal/logging"
)

// LogSender writes messages to the logger instead of delivering them.
// The body contains live secrets, so it is only used in development.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{logger: l}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "outgoing email", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}
