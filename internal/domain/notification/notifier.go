// Package notification defines the outbound notification contract. Delivery
// is best-effort: the economy never blocks on a notifier, and a failed send
// is dropped after bounded retries.
package notification

import (
	"context"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// Type classifies a notification for channel routing and user preferences.
type Type string

const (
	// TypeAchievementUnlocked - an achievement was unlocked.
	TypeAchievementUnlocked Type = "achievement_unlocked"

	// TypeLevelUp - the user's level increased.
	TypeLevelUp Type = "level_up"

	// TypeRankUp - the level increase also crossed a rank step.
	TypeRankUp Type = "rank_up"

	// TypeBattleWon - the user won a battle.
	TypeBattleWon Type = "battle_won"

	// TypeDailyDigest - the end-of-day activity summary.
	TypeDailyDigest Type = "daily_digest"
)

// IsValid checks if the type is recognized.
func (t Type) IsValid() bool {
	switch t {
	case TypeAchievementUnlocked, TypeLevelUp, TypeRankUp, TypeBattleWon, TypeDailyDigest:
		return true
	}
	return false
}

// Notification is one outbound message to a user.
type Notification struct {
	// UserID is the recipient.
	UserID shared.UserID `json:"user_id"`

	// Type classifies the notification.
	Type Type `json:"type"`

	// Title is the short headline.
	Title string `json:"title"`

	// Body is the human-readable message text.
	Body string `json:"body"`

	// Data carries structured fields for rich clients.
	Data map[string]any `json:"data,omitempty"`

	// CreatedAt is when the notification was produced.
	CreatedAt time.Time `json:"created_at"`
}

// New creates a notification stamped with the current time.
func New(userID shared.UserID, typ Type, title, body string) Notification {
	return Notification{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}

// WithData attaches structured fields.
func (n Notification) WithData(data map[string]any) Notification {
	n.Data = data
	return n
}

// Notifier delivers notifications to an external channel.
type Notifier interface {
	// Send delivers one notification. Implementations must respect the
	// context deadline; retries are the caller's concern.
	Send(ctx context.Context, n Notification) error
}
