package command

import (
	"context"
	"fmt"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/battle"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIGHT BATTLE COMMAND
// Resolves a battle against a catalog opponent. The resolver enforces one
// battle per user at a time and rolls the outcome exactly once.
// ══════════════════════════════════════════════════════════════════════════════

// FightBattleCommand contains the data for a battle request.
type FightBattleCommand struct {
	// UserID is the ID of the attacking user.
	UserID string

	// OpponentID selects the opponent from the reference catalog.
	OpponentID string
}

// Validate validates the command.
func (c FightBattleCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("fight_battle: %w: user_id is required", shared.ErrEmptyValue)
	}
	if c.OpponentID == "" {
		return fmt.Errorf("fight_battle: %w: opponent_id is required", shared.ErrEmptyValue)
	}
	return nil
}

// FightBattleResult contains the resolved battle.
type FightBattleResult struct {
	// BattleID is the unique ID of the battle record.
	BattleID string

	// OpponentID and OpponentName identify the opponent fought.
	OpponentID   string
	OpponentName string

	// Result is "win" or "loss".
	Result string

	// RCDelta is the RC granted for the outcome (never negative).
	RCDelta int64

	// WinProbability is the computed chance of winning, for display.
	WinProbability float64

	// FoughtAt is when the battle resolved.
	FoughtAt time.Time
}

// FightBattleHandler handles the FightBattleCommand.
type FightBattleHandler struct {
	resolver *battle.Resolver
	log      *logger.Logger
}

// NewFightBattleHandler creates a new FightBattleHandler.
func NewFightBattleHandler(resolver *battle.Resolver, log *logger.Logger) *FightBattleHandler {
	if log == nil {
		log = logger.Default()
	}
	return &FightBattleHandler{
		resolver: resolver,
		log:      log.With(logger.String("handler", "fight_battle")),
	}
}

// Handle executes the command. Resolver errors pass through unwrapped in
// meaning: callers map ErrBattleAlreadyActive, ErrOpponentNotFound, and
// ErrOpponentCatalogUnavailable to their own status codes.
func (h *FightBattleHandler) Handle(ctx context.Context, cmd FightBattleCommand) (*FightBattleResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("fight_battle: %w", err)
	}

	record, err := h.resolver.Fight(ctx, userID, shared.OpponentID(cmd.OpponentID))
	if err != nil {
		return nil, fmt.Errorf("fight_battle: %w", err)
	}

	h.log.Info("battle resolved",
		logger.String("user_id", userID.String()),
		logger.String("opponent_id", record.OpponentID.String()),
		logger.String("result", string(record.Result)),
		logger.Int64("rc_delta", record.RCDelta),
	)

	return &FightBattleResult{
		BattleID:       record.ID.String(),
		OpponentID:     record.OpponentID.String(),
		OpponentName:   record.OpponentName,
		Result:         string(record.Result),
		RCDelta:        record.RCDelta,
		WinProbability: record.WinProbability,
		FoughtAt:       record.FoughtAt,
	}, nil
}
