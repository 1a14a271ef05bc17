package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rl1809/supply-chain/internal/core/domain"
)

// MySQLJournal archives notifications so observers can rebuild item history.
type MySQLJournal struct {
	db *sql.DB
}

func NewMySQLJournal(db *sql.DB) *MySQLJournal {
	return &MySQLJournal{db: db}
}

// Publish is idempotent on event ID.
func (j *MySQLJournal) Publish(ctx context.Context, event domain.Event) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT IGNORE INTO item_events (id, sku, kind, actor, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		event.ID.String(), event.Sku, event.Kind.String(), string(event.Actor), event.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (j *MySQLJournal) History(ctx context.Context, sku uint64) ([]domain.Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, sku, kind, actor, occurred_at
		FROM item_events WHERE sku = ? ORDER BY seq`, sku,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			event    domain.Event
			id, kind string
			actor    string
		)
		if err := rows.Scan(&id, &event.Sku, &kind, &actor, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if event.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse event id: %w", err)
		}
		if event.Kind, err = domain.ParseState(kind); err != nil {
			return nil, fmt.Errorf("parse event kind: %w", err)
		}
		event.Actor = domain.Address(actor)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
