package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/rl1809/supply-chain/internal/core/domain"
	"github.com/rl1809/supply-chain/internal/metrics"
	"github.com/rl1809/supply-chain/internal/port"
)

const publishTimeout = 5 * time.Second

type NamedSink struct {
	Name string
	Sink port.EventSink
}

// Dispatcher fans notifications out to external sinks. Delivery is
// fire-and-forget: a failing sink is logged and skipped.
type Dispatcher struct {
	sinks   []NamedSink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(logger *slog.Logger, m *metrics.Metrics, sinks ...NamedSink) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{sinks: sinks, logger: logger, metrics: m}
}

// Run delivers events in queue order until the queue is closed.
func (d *Dispatcher) Run(queue <-chan domain.Event) {
	for event := range queue {
		d.dispatch(event)
	}
}

func (d *Dispatcher) dispatch(event domain.Event) {
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := s.Sink.Publish(ctx, event); err != nil {
			d.metrics.IncrementPublishFailure(s.Name)
			d.logger.Error("failed to publish notification",
				"sink", s.Name, "event_id", event.ID.String(), "sku", event.Sku, "error", err)
		} else {
			d.metrics.IncrementPublished(s.Name)
		}
		cancel()
	}
}
