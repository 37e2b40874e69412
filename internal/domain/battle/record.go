package battle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BATTLE RECORD
// Append-only history. Records are created once at resolution and never
// mutated or deleted; they feed history views and analytics only.
// ══════════════════════════════════════════════════════════════════════════════

// Result is the outcome of a resolved battle.
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"

	// ResultDraw exists for symmetric-damage battle variants. The RC economy
	// itself only ever produces win or loss.
	ResultDraw Result = "draw"
)

// IsValid checks if the result is a known outcome.
func (r Result) IsValid() bool {
	return r == ResultWin || r == ResultLoss || r == ResultDraw
}

// Record is one fought battle.
type Record struct {
	ID           uuid.UUID
	UserID       shared.UserID
	OpponentID   shared.OpponentID
	OpponentName string
	Result       Result

	// RCDelta is the RC granted for the outcome. Never negative.
	RCDelta int64

	// WinProbability is the sigmoid output the outcome was rolled against,
	// kept for history display and analytics.
	WinProbability float64

	PlayerPower   float64
	PlayerSpeed   float64
	OpponentPower int64
	OpponentSpeed int64

	FoughtAt time.Time
}

// Repository persists battle records.
type Repository interface {
	// Append stores a freshly resolved battle record.
	Append(ctx context.Context, record Record) error

	// ListByUser returns the user's most recent battles, newest first,
	// capped at limit.
	ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]Record, error)

	// CountByUser returns the total number of battles the user has fought.
	CountByUser(ctx context.Context, userID shared.UserID) (int64, error)
}
