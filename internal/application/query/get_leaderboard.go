package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Reads the RC leaderboard projection. The ranking is display-only; the
// ledger remains the source of truth for balances.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery contains the request parameters.
type GetLeaderboardQuery struct {
	// Limit is the number of top entries (default 10, max 100).
	Limit int64

	// UserID optionally requests the caller's own position alongside the
	// top list (empty = skip).
	UserID string
}

// Validate validates the query and applies limit defaults.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("get_leaderboard: %w: limit cannot be negative", shared.ErrNegativeValue)
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// LeaderboardDTO is the query response.
type LeaderboardDTO struct {
	// Entries is the top of the ranking, best first.
	Entries []redis.Entry `json:"entries"`

	// Total is the number of ranked users.
	Total int64 `json:"total"`

	// Me is the caller's own entry, when requested and ranked.
	Me *redis.Entry `json:"me,omitempty"`
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	leaderboard *redis.LeaderboardCache
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(leaderboard *redis.LeaderboardCache) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{leaderboard: leaderboard}
}

// Handle executes the query. An empty leaderboard is a valid response, not
// an error.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*LeaderboardDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	entries, err := h.leaderboard.Top(ctx, q.Limit)
	if err != nil && !errors.Is(err, redis.ErrLeaderboardEmpty) {
		return nil, fmt.Errorf("get_leaderboard: failed to read ranking: %w", err)
	}

	total, err := h.leaderboard.Size(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: failed to read ranking size: %w", err)
	}

	dto := &LeaderboardDTO{
		Entries: entries,
		Total:   total,
	}

	if q.UserID != "" {
		userID, err := shared.NewUserID(q.UserID)
		if err != nil {
			return nil, fmt.Errorf("get_leaderboard: %w", err)
		}
		me, err := h.leaderboard.PositionOf(ctx, userID)
		switch {
		case err == nil:
			dto.Me = &me
		case errors.Is(err, redis.ErrUserNotRanked):
			// Unranked callers still get the top list.
		default:
			return nil, fmt.Errorf("get_leaderboard: failed to read own position: %w", err)
		}
	}

	return dto, nil
}
