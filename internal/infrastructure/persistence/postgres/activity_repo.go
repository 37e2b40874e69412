package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/activity"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ActivityRepository implements activity.Repository for PostgreSQL.
type ActivityRepository struct {
	conn *Connection
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(conn *Connection) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

// Append stores a new feed entry.
func (r *ActivityRepository) Append(ctx context.Context, entry activity.Entry) error {
	var detailJSON []byte
	if entry.Detail != nil {
		var err error
		detailJSON, err = json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("failed to encode entry detail: %w", err)
		}
	}

	query := `
		INSERT INTO activity_feed (id, user_id, kind, source, message, delta_rc, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.conn.Exec(ctx, query,
		entry.ID,
		entry.UserID.String(),
		string(entry.Kind),
		string(entry.Source),
		entry.Message,
		entry.DeltaRC,
		detailJSON,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append activity entry: %w", err)
	}
	return nil
}

// ListByUser returns the user's most recent entries, newest first.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]activity.Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, kind, source, message, delta_rc, detail, occurred_at
		FROM activity_feed
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	rows, err := r.conn.Query(ctx, query, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity for %s: %w", userID, err)
	}
	defer rows.Close()

	return r.scanEntries(rows, userID)
}

// ListByUserSince returns the user's entries at or after since, newest first.
func (r *ActivityRepository) ListByUserSince(ctx context.Context, userID shared.UserID, since time.Time) ([]activity.Entry, error) {
	query := `
		SELECT id, kind, source, message, delta_rc, detail, occurred_at
		FROM activity_feed
		WHERE user_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at DESC
	`
	rows, err := r.conn.Query(ctx, query, userID.String(), since)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity for %s: %w", userID, err)
	}
	defer rows.Close()

	return r.scanEntries(rows, userID)
}

type entryRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func (r *ActivityRepository) scanEntries(rows entryRows, userID shared.UserID) ([]activity.Entry, error) {
	entries := make([]activity.Entry, 0)
	for rows.Next() {
		var (
			entry      activity.Entry
			id         uuid.UUID
			kind       string
			source     string
			detailJSON []byte
			occurredAt time.Time
		)
		if err := rows.Scan(&id, &kind, &source, &entry.Message, &entry.DeltaRC, &detailJSON, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		if len(detailJSON) > 0 {
			if err := json.Unmarshal(detailJSON, &entry.Detail); err != nil {
				return nil, fmt.Errorf("failed to decode entry detail: %w", err)
			}
		}
		entry.ID = id
		entry.UserID = userID
		entry.Kind = activity.Kind(kind)
		entry.Source = shared.Source(source)
		entry.OccurredAt = occurredAt
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
