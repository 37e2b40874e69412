package activity

import (
	"context"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// Repository persists feed entries. Implemented by the infrastructure layer;
// the domain has no knowledge of the storage mechanism.
type Repository interface {
	// Append stores a new entry. Entries are never updated or deleted.
	Append(ctx context.Context, entry Entry) error

	// ListByUser returns the user's most recent entries, newest first,
	// capped at limit.
	ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]Entry, error)

	// ListByUserSince returns the user's entries at or after since, newest
	// first. Used for daily digests and per-day analytics.
	ListByUserSince(ctx context.Context, userID shared.UserID, since time.Time) ([]Entry, error)
}
