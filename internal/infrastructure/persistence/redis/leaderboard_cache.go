package redis

import (
	"context"
	"errors"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLeaderboardEmpty is returned when the leaderboard has no entries.
	ErrLeaderboardEmpty = errors.New("leaderboard_cache: leaderboard is empty")

	// ErrUserNotRanked is returned when a user is not in the leaderboard.
	ErrUserNotRanked = errors.New("leaderboard_cache: user not ranked")
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one row of the RC leaderboard.
type Entry struct {
	// UserID is the ranked user.
	UserID string `json:"user_id"`

	// Balance is the RC balance the ranking is scored by.
	Balance int64 `json:"balance"`

	// Level and Rank are derived from the balance at read time.
	Level int    `json:"level"`
	Rank  string `json:"rank"`

	// Position is the 1-based leaderboard position.
	Position int64 `json:"position"`
}

// LeaderboardCache ranks users by RC balance using a Redis sorted set.
// It is display-only: scores are projected from reward events and never
// written back into the ledger. A lost update self-heals on the next event.
//
// Sorted set "leaderboard:rc" stores userID -> balance. Rank lookups are
// O(log N) and range reads O(log N + M).
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// SetBalance projects a user's current balance into the ranking.
func (l *LeaderboardCache) SetBalance(ctx context.Context, userID shared.UserID, balance int64) error {
	return l.cache.ZAdd(ctx, LeaderboardKey(), userID.String(), float64(balance))
}

// Top returns the highest-balance users, best first, capped at limit.
func (l *LeaderboardCache) Top(ctx context.Context, limit int64) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.cache.ZRevRangeWithScores(ctx, LeaderboardKey(), 0, limit-1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrLeaderboardEmpty
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		member, _ := row.Member.(string)
		balance := shared.RC(int64(row.Score))
		entries = append(entries, Entry{
			UserID:   member,
			Balance:  balance.Int64(),
			Level:    balance.Level().Int(),
			Rank:     balance.Level().Rank().String(),
			Position: int64(i) + 1,
		})
	}
	return entries, nil
}

// PositionOf returns a user's leaderboard entry.
func (l *LeaderboardCache) PositionOf(ctx context.Context, userID shared.UserID) (Entry, error) {
	rank, err := l.cache.ZRevRank(ctx, LeaderboardKey(), userID.String())
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return Entry{}, ErrUserNotRanked
		}
		return Entry{}, err
	}

	score, err := l.cache.ZScore(ctx, LeaderboardKey(), userID.String())
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return Entry{}, ErrUserNotRanked
		}
		return Entry{}, err
	}

	balance := shared.RC(int64(score))
	return Entry{
		UserID:   userID.String(),
		Balance:  balance.Int64(),
		Level:    balance.Level().Int(),
		Rank:     balance.Level().Rank().String(),
		Position: rank + 1,
	}, nil
}

// Size returns the number of ranked users.
func (l *LeaderboardCache) Size(ctx context.Context) (int64, error) {
	return l.cache.ZCard(ctx, LeaderboardKey())
}
