// Package notify delivers human-readable notifications to users. Delivery is
// fire-and-forget: callers log failures and never let them abort the
// surrounding operation.
package notify

import (
	"context"

	"github.com/mvicentini/dispensa/internal/logger"
)

// Notification is a human-readable message for a single recipient plus a
// structured payload clients can act on.
type Notification struct {
	Recipient string         `json:"recipient"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Sink delivers notifications.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the log instead of delivering them. It is
// the default sink when no broker is configured.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink returns a LogSink using the given logger.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Send(_ context.Context, n Notification) error {
	s.log.Info("notification",
		"recipient", n.Recipient,
		"title", n.Title,
		"body", n.Body,
	)
	return nil
}
