package port

import (
	"context"

	"github.com/rl1809/supply-chain/internal/core/domain"
)

type EventSink interface {
	// Publish delivers one notification to an external observer
	Publish(ctx context.Context, event domain.Event) error
}

type EventJournal interface {
	EventSink

	// History returns the journaled notifications for an item in emission order
	History(ctx context.Context, sku uint64) ([]domain.Event, error)
}
