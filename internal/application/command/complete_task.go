// Package command contains write operations (CQRS - Commands).
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
// COMPLETE TASK COMMAND
// Grants the task-completion reward and bumps the lifetime task counter. The
// counter bump cascades into achievement evaluation inside the engine.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultTaskRewardRC is the RC grant for a completed task.
const DefaultTaskRewardRC = 50

// CompleteTaskCommand contains the data for a task completion.
type CompleteTaskCommand struct {
	// UserID is the ID of the user who completed the task.
	UserID string

	// TaskID identifies the completed task in the caller's system.
	TaskID string

	// Title is the task title, used only for the activity feed.
	Title string
}

// Validate validates the command.
func (c CompleteTaskCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("complete_task: %w: user_id is required", shared.ErrEmptyValue)
	}
	if c.TaskID == "" {
		return fmt.Errorf("complete_task: %w: task_id is required", shared.ErrEmptyValue)
	}
	return nil
}

// CompleteTaskResult contains the outcome of a task completion.
type CompleteTaskResult struct {
	// NewBalance is the committed RC balance.
	NewBalance int64

	// NewLevel is the level derived from the committed balance.
	NewLevel int

	// LeveledUp indicates the reward crossed a level boundary.
	LeveledUp bool

	// TasksCompleted is the lifetime counter after this completion.
	TasksCompleted int64

	// CompletedAt is when the completion was processed.
	CompletedAt time.Time
}

// ─────────────────────────────────────────────────────────────────────────────
// Handler
// ─────────────────────────────────────────────────────────────────────────────

// CompleteTaskHandler handles the CompleteTaskCommand.
type CompleteTaskHandler struct {
	engine   *progress.Engine
	rewardRC int64
	log      *logger.Logger
}

// NewCompleteTaskHandler creates a new CompleteTaskHandler. A zero rewardRC
// selects the default grant.
func NewCompleteTaskHandler(engine *progress.Engine, rewardRC int64, log *logger.Logger) *CompleteTaskHandler {
	if rewardRC <= 0 {
		rewardRC = DefaultTaskRewardRC
	}
	if log == nil {
		log = logger.Default()
	}
	return &CompleteTaskHandler{
		engine:   engine,
		rewardRC: rewardRC,
		log:      log.With(logger.String("handler", "complete_task")),
	}
}

// Handle executes the command. The reward and the counter bump are two
// separate ledger transactions; if the counter bump fails after the reward
// committed, the reward stands and the error reports the counter failure.
func (h *CompleteTaskHandler) Handle(ctx context.Context, cmd CompleteTaskCommand) (*CompleteTaskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("complete_task: %w", err)
	}

	reward, err := h.engine.ApplyReward(ctx, userID, h.rewardRC, shared.SourceTask)
	if err != nil {
		return nil, fmt.Errorf("complete_task: failed to apply reward: %w", err)
	}

	count, err := h.engine.IncrementCounter(ctx, userID, shared.MetricTasksCompleted, 1)
	if err != nil {
		return nil, fmt.Errorf("complete_task: failed to increment counter: %w", err)
	}

	h.log.Info("task completed",
		logger.String("user_id", userID.String()),
		logger.String("task_id", cmd.TaskID),
		logger.Int64("tasks_completed", count),
	)

	return &CompleteTaskResult{
		NewBalance:     reward.NewBalance.Int64(),
		NewLevel:       reward.NewLevel.Int(),
		LeveledUp:      reward.LeveledUp,
		TasksCompleted: count,
		CompletedAt:    time.Now().UTC(),
	}, nil
}
