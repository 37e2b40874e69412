// Package activity contains the append-only activity feed. Entries are
// created once from economy events and never mutated or deleted; they back
// the user-facing feed and daily analytics only, never a write path into
// the ledger.
package activity

import (
	"time"

	"github.com/google/uuid"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// Kind classifies a feed entry.
type Kind string

const (
	KindReward      Kind = "reward"
	KindLevelUp     Kind = "level_up"
	KindAchievement Kind = "achievement"
	KindBattle      Kind = "battle"
	KindLogin       Kind = "login"
)

// IsValid checks if the kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindReward, KindLevelUp, KindAchievement, KindBattle, KindLogin:
		return true
	}
	return false
}

// Entry is one immutable activity feed item.
type Entry struct {
	ID     uuid.UUID
	UserID shared.UserID
	Kind   Kind

	// Source tags where the underlying reward came from. Display only.
	Source shared.Source

	// Message is the rendered feed line, e.g. "Defeated Rank A opponent".
	Message string

	// DeltaRC is the RC movement this entry describes, zero when the entry
	// is not about an RC change.
	DeltaRC int64

	// Detail carries event-specific fields for richer rendering.
	Detail map[string]any

	OccurredAt time.Time
}

// NewEntry creates a feed entry.
func NewEntry(userID shared.UserID, kind Kind, source shared.Source, message string, deltaRC int64, occurredAt time.Time) (Entry, error) {
	if !userID.IsValid() {
		return Entry{}, shared.NewDomainError("activity", "NewEntry", shared.ErrInvalidID, "invalid user id")
	}
	if !kind.IsValid() {
		return Entry{}, shared.NewDomainError("activity", "NewEntry", shared.ErrInvalidInput, "unknown entry kind")
	}
	if message == "" {
		return Entry{}, shared.NewDomainError("activity", "NewEntry", shared.ErrEmptyValue, "message is required")
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return Entry{
		ID:         uuid.New(),
		UserID:     userID,
		Kind:       kind,
		Source:     source,
		Message:    message,
		DeltaRC:    deltaRC,
		OccurredAt: occurredAt,
	}, nil
}

// WithDetail attaches event-specific detail fields.
func (e Entry) WithDetail(detail map[string]any) Entry {
	e.Detail = detail
	return e
}
