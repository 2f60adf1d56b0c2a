package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emberfall/veil/internal/perception/event"
)

// Append records drained domain events in order inside one transaction.
func (s *Store) Append(ctx context.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event append: %w", err)
	}
	for _, evt := range events {
		payloadJSON, err := json.Marshal(evt.Payload)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal event payload %s: %w", evt.Type, err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO turn_brief_events (id, turn_brief_id, entity_id, type, version, occurred_at, payload)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			evt.ID,
			evt.TurnBriefID,
			evt.EntityID,
			string(evt.Type),
			evt.Version,
			toMillis(evt.Timestamp),
			string(payloadJSON),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert event %s: %w", evt.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event append: %w", err)
	}
	return nil
}

// EventsSince returns an entity's events with aggregate version greater than
// afterVersion, oldest first. Payloads come back as raw JSON.
func (s *Store) EventsSince(ctx context.Context, entityID string, afterVersion uint64) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, turn_brief_id, entity_id, type, version, occurred_at, payload
FROM turn_brief_events
WHERE entity_id = ? AND version > ?
ORDER BY version ASC, occurred_at ASC`,
		entityID, afterVersion)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			evt        event.Event
			eventType  string
			occurredAt int64
			payload    string
		)
		if err := rows.Scan(&evt.ID, &evt.TurnBriefID, &evt.EntityID, &eventType, &evt.Version, &occurredAt, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Type = event.Type(eventType)
		evt.Timestamp = fromMillis(occurredAt)
		evt.Payload = json.RawMessage(payload)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
