package query

import (
	"context"
	"fmt"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/battle"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET BATTLE HISTORY QUERY
// Returns a user's resolved battles, newest first.
// ══════════════════════════════════════════════════════════════════════════════

// GetBattleHistoryQuery contains the request parameters.
type GetBattleHistoryQuery struct {
	// UserID is the ID of the user whose history to read.
	UserID string

	// Limit is the maximum number of records (default 20, max 100).
	Limit int
}

// Validate validates the query and applies limit defaults.
func (q *GetBattleHistoryQuery) Validate() error {
	if q.UserID == "" {
		return fmt.Errorf("get_battle_history: %w: user_id is required", shared.ErrEmptyValue)
	}
	if q.Limit < 0 {
		return fmt.Errorf("get_battle_history: %w: limit cannot be negative", shared.ErrNegativeValue)
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// BattleRecordDTO is one resolved battle.
type BattleRecordDTO struct {
	BattleID       string    `json:"battle_id"`
	OpponentID     string    `json:"opponent_id"`
	OpponentName   string    `json:"opponent_name"`
	Result         string    `json:"result"`
	RCDelta        int64     `json:"rc_delta"`
	WinProbability float64   `json:"win_probability"`
	FoughtAt       time.Time `json:"fought_at"`
}

// BattleHistoryDTO is the query response.
type BattleHistoryDTO struct {
	UserID  string            `json:"user_id"`
	Total   int64             `json:"total"`
	Battles []BattleRecordDTO `json:"battles"`
}

// GetBattleHistoryHandler handles the GetBattleHistoryQuery.
type GetBattleHistoryHandler struct {
	records battle.Repository
}

// NewGetBattleHistoryHandler creates a new GetBattleHistoryHandler.
func NewGetBattleHistoryHandler(records battle.Repository) *GetBattleHistoryHandler {
	return &GetBattleHistoryHandler{records: records}
}

// Handle executes the query.
func (h *GetBattleHistoryHandler) Handle(ctx context.Context, q GetBattleHistoryQuery) (*BattleHistoryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_battle_history: %w", err)
	}

	records, err := h.records.ListByUser(ctx, userID, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("get_battle_history: failed to list battles: %w", err)
	}

	total, err := h.records.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get_battle_history: failed to count battles: %w", err)
	}

	battles := make([]BattleRecordDTO, 0, len(records))
	for _, rec := range records {
		battles = append(battles, BattleRecordDTO{
			BattleID:       rec.ID.String(),
			OpponentID:     rec.OpponentID.String(),
			OpponentName:   rec.OpponentName,
			Result:         string(rec.Result),
			RCDelta:        rec.RCDelta,
			WinProbability: rec.WinProbability,
			FoughtAt:       rec.FoughtAt,
		})
	}

	return &BattleHistoryDTO{
		UserID:  userID.String(),
		Total:   total,
		Battles: battles,
	}, nil
}
