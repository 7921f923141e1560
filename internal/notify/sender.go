// Package notify delivers e-mail to participants when an admin decides on
// one of their reservations.
package notify

import (
	"context"
	"log/slog"
)

// Message is a single outgoing e-mail.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers messages through some provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender logs messages instead of delivering them. It is used when no
// provider is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs msg.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "noop_email_send", "to", msg.To, "subject", msg.Subject)
	return nil
}
