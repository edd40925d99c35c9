// Package notify defines the outbound notification collaborator. Delivery
// failures are logged and never surfaced as booking failures.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Sender delivers a message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// LogSender writes the message to the log instead of a provider. Used in dev
// and as the default when no SMS provider is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, phone, message string) error {
	s.log.Info().Str("phone", phone).Str("message", message).Msg("notification")
	return nil
}
