package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"
)

// InsertOutboxEvent appends an integration event. Called inside the checkout
// transaction so the event commits or rolls back with the order it
// describes.
func (s *Store) InsertOutboxEvent(ctx context.Context, eventID, topic, key string, payload []byte) error {
	const q = `
		INSERT INTO outbox (event_id, topic, key, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := s.q.ExecContext(ctx, q, eventID, topic, key, string(payload), formatTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("sqlite: insert outbox event %s: %w", eventID, err)
	}
	return nil
}

func (s *Store) FetchPendingOutboxEvents(ctx context.Context, limit int) ([]ports.OutboxEvent, error) {
	const q = `
		SELECT id, event_id, topic, key, payload, created_at, sent_at
		FROM   outbox
		WHERE  sent_at IS NULL
		ORDER  BY id
		LIMIT  ?`

	rows, err := s.q.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetch pending outbox events: %w", err)
	}
	defer rows.Close()

	var out []ports.OutboxEvent
	for rows.Next() {
		var (
			rec              ports.OutboxEvent
			payload, created string
			sentAt           *string
		)
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &payload, &created, &sentAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan outbox event: %w", err)
		}
		rec.Payload = []byte(payload)
		if rec.CreatedAt, err = parseRFC3339(created); err != nil {
			return nil, err
		}
		if sentAt != nil {
			t, err := parseRFC3339(*sentAt)
			if err != nil {
				return nil, err
			}
			rec.SentAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) MarkOutboxEventSent(ctx context.Context, id int64) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE outbox SET sent_at = ? WHERE id = ?`, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("sqlite: mark outbox event %d sent: %w", id, err)
	}
	return nil
}
