package command

import (
	"context"
	"fmt"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FINISH POMODORO COMMAND
// A finished work session earns one RC per minute of focus and bumps the
// pomodoro counter. Break sessions earn nothing and do not count.
// ══════════════════════════════════════════════════════════════════════════════

// SessionKind distinguishes work sessions from breaks.
type SessionKind string

const (
	// SessionWork - a focus session; rewarded and counted.
	SessionWork SessionKind = "work"

	// SessionBreak - a rest session; recorded but never rewarded.
	SessionBreak SessionKind = "break"
)

// MaxSessionMinutes caps the reward for a single session. Anything longer is
// a clock anomaly, not focus time.
const MaxSessionMinutes = 180

// FinishPomodoroCommand contains the data for a finished pomodoro session.
type FinishPomodoroCommand struct {
	// UserID is the ID of the user who finished the session.
	UserID string

	// SessionID identifies the session in the caller's system.
	SessionID string

	// Kind is the session kind (work or break).
	Kind SessionKind

	// Minutes is the session length in whole minutes.
	Minutes int64
}

// Validate validates the command.
func (c FinishPomodoroCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("finish_pomodoro: %w: user_id is required", shared.ErrEmptyValue)
	}
	if c.Kind != SessionWork && c.Kind != SessionBreak {
		return fmt.Errorf("finish_pomodoro: %w: unknown session kind %q", shared.ErrInvalidInput, c.Kind)
	}
	if c.Minutes < 0 {
		return fmt.Errorf("finish_pomodoro: %w: minutes cannot be negative", shared.ErrNegativeValue)
	}
	return nil
}

// FinishPomodoroResult contains the outcome of a finished session.
type FinishPomodoroResult struct {
	// RewardRC is the RC granted for this session (zero for breaks).
	RewardRC int64

	// NewBalance is the committed RC balance.
	NewBalance int64

	// LeveledUp indicates the reward crossed a level boundary.
	LeveledUp bool

	// Pomodoros is the lifetime work-session counter after this session.
	Pomodoros int64

	// FinishedAt is when the session was processed.
	FinishedAt time.Time
}

// ─────────────────────────────────────────────────────────────────────────────
// Handler
// ─────────────────────────────────────────────────────────────────────────────

// FinishPomodoroHandler handles the FinishPomodoroCommand.
type FinishPomodoroHandler struct {
	engine *progress.Engine
	log    *logger.Logger
}

// NewFinishPomodoroHandler creates a new FinishPomodoroHandler.
func NewFinishPomodoroHandler(engine *progress.Engine, log *logger.Logger) *FinishPomodoroHandler {
	if log == nil {
		log = logger.Default()
	}
	return &FinishPomodoroHandler{
		engine: engine,
		log:    log.With(logger.String("handler", "finish_pomodoro")),
	}
}

// Handle executes the command.
func (h *FinishPomodoroHandler) Handle(ctx context.Context, cmd FinishPomodoroCommand) (*FinishPomodoroResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("finish_pomodoro: %w", err)
	}

	result := &FinishPomodoroResult{FinishedAt: time.Now().UTC()}

	if cmd.Kind == SessionBreak {
		return result, nil
	}

	minutes := cmd.Minutes
	if minutes > MaxSessionMinutes {
		h.log.Warn("session length capped",
			logger.String("user_id", userID.String()),
			logger.Int64("minutes", cmd.Minutes),
		)
		minutes = MaxSessionMinutes
	}

	if minutes > 0 {
		reward, err := h.engine.ApplyReward(ctx, userID, minutes, shared.SourcePomodoro)
		if err != nil {
			return nil, fmt.Errorf("finish_pomodoro: failed to apply reward: %w", err)
		}
		result.RewardRC = minutes
		result.NewBalance = reward.NewBalance.Int64()
		result.LeveledUp = reward.LeveledUp
	}

	count, err := h.engine.IncrementCounter(ctx, userID, shared.MetricPomodoros, 1)
	if err != nil {
		return nil, fmt.Errorf("finish_pomodoro: failed to increment counter: %w", err)
	}
	result.Pomodoros = count

	h.log.Info("pomodoro finished",
		logger.String("user_id", userID.String()),
		logger.String("session_id", cmd.SessionID),
		logger.Int64("reward_rc", result.RewardRC),
		logger.Int64("pomodoros", count),
	)

	return result, nil
}
