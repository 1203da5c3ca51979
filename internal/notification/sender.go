package notification

import (
	"context"
	"log"
)

// Sender is the outbound port of the core: deliver body to the identity.
// Implementations make a single best-effort attempt and never retry.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, to, body string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, to, body string) error {
	return f(ctx, to, body)
}

// LogSender writes outbound messages to the log instead of delivering them.
// It is used when no gateway credentials are configured.
type LogSender struct {
	Logger *log.Logger
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("outbound message to %s: %q", to, body)
	return nil
}
