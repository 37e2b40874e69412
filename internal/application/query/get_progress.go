// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/achievement"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Assembles the full user-facing progress view: balance, derived level and
// rank, lifetime counters, and unlocked achievements with catalog metadata.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery contains the request parameters.
type GetProgressQuery struct {
	// UserID is the ID of the user whose progress to read.
	UserID string
}

// Validate validates the query.
func (q GetProgressQuery) Validate() error {
	if q.UserID == "" {
		return fmt.Errorf("get_progress: %w: user_id is required", shared.ErrEmptyValue)
	}
	return nil
}

// UnlockedAchievementDTO is one unlocked achievement enriched with catalog
// metadata. Metadata fields stay empty when the catalog is unavailable; the
// unlock itself is ledger state and is always returned.
type UnlockedAchievementDTO struct {
	AchievementID string    `json:"achievement_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	Category      string    `json:"category"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// ProgressDTO is the complete progress view returned to callers.
type ProgressDTO struct {
	UserID       string                   `json:"user_id"`
	Balance      int64                    `json:"balance"`
	Level        int                      `json:"level"`
	Rank         string                   `json:"rank"`
	LevelPercent int                      `json:"level_percent"`
	Counters     map[string]int64         `json:"counters"`
	Achievements []UnlockedAchievementDTO `json:"achievements"`
	LastLoginAt  time.Time                `json:"last_login_at,omitempty"`
}

// GetProgressHandler handles the GetProgressQuery.
type GetProgressHandler struct {
	ledger  progress.Ledger
	catalog *achievement.Catalog
}

// NewGetProgressHandler creates a new GetProgressHandler. The catalog may be
// nil when achievement data failed to load; unlocks then surface without
// metadata.
func NewGetProgressHandler(ledger progress.Ledger, catalog *achievement.Catalog) *GetProgressHandler {
	return &GetProgressHandler{ledger: ledger, catalog: catalog}
}

// Handle executes the query.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*ProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_progress: %w", err)
	}

	record, err := h.ledger.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get_progress: failed to read ledger: %w", err)
	}

	unlocked, err := h.ledger.Unlocked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get_progress: failed to read unlocks: %w", err)
	}

	view := progress.NewView(record, unlocked)
	return h.toDTO(view), nil
}

func (h *GetProgressHandler) toDTO(view *progress.View) *ProgressDTO {
	counters := make(map[string]int64, len(view.Counters))
	for metric, value := range view.Counters {
		counters[metric.String()] = value
	}

	achievements := make([]UnlockedAchievementDTO, 0, len(view.Unlocked))
	for id, at := range view.Unlocked {
		dto := UnlockedAchievementDTO{
			AchievementID: id.String(),
			UnlockedAt:    at,
		}
		if h.catalog != nil {
			if def, ok := h.catalog.Get(id); ok {
				dto.Name = def.Name
				dto.Description = def.Description
				dto.Icon = def.Icon
				dto.Category = def.Category
			}
		}
		achievements = append(achievements, dto)
	}
	// Oldest unlock first; map iteration order is not stable.
	sort.Slice(achievements, func(i, j int) bool {
		if achievements[i].UnlockedAt.Equal(achievements[j].UnlockedAt) {
			return achievements[i].AchievementID < achievements[j].AchievementID
		}
		return achievements[i].UnlockedAt.Before(achievements[j].UnlockedAt)
	})

	return &ProgressDTO{
		UserID:       view.UserID.String(),
		Balance:      view.Balance,
		Level:        view.Level,
		Rank:         view.Rank,
		LevelPercent: view.LevelPercent,
		Counters:     counters,
		Achievements: achievements,
		LastLoginAt:  view.LastLoginAt,
	}
}
