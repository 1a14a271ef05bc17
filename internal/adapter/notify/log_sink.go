package notify

import (
	"context"
	"log/slog"

	"github.com/rl1809/supply-chain/internal/core/domain"
)

// LogSink writes each notification as a structured log record.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, event domain.Event) error {
	s.logger.InfoContext(ctx, "notification",
		"event_id", event.ID.String(),
		"kind", event.Kind.String(),
		"sku", event.Sku,
		"actor", string(event.Actor),
		"occurred_at", event.OccurredAt,
	)
	return nil
}
