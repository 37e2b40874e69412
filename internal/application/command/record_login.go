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
// RECORD LOGIN COMMAND
// Runs the daily streak check. Repeated logins within the same UTC day are
// no-ops; streak thresholds are rewarded through achievements.
// ══════════════════════════════════════════════════════════════════════════════

// RecordLoginCommand contains the data for a user login.
type RecordLoginCommand struct {
	// UserID is the ID of the user who logged in.
	UserID string

	// At is when the login happened (defaults to now if zero).
	At time.Time
}

// Validate validates the command.
func (c RecordLoginCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("record_login: %w: user_id is required", shared.ErrEmptyValue)
	}
	return nil
}

// RecordLoginResult contains the outcome of the streak check.
type RecordLoginResult struct {
	// Streak is the login streak after the check.
	Streak int64

	// Changed indicates the streak value moved (extended or reset).
	Changed bool

	// RecordedAt is the login timestamp used for the check.
	RecordedAt time.Time
}

// RecordLoginHandler handles the RecordLoginCommand.
type RecordLoginHandler struct {
	engine *progress.Engine
	log    *logger.Logger
}

// NewRecordLoginHandler creates a new RecordLoginHandler.
func NewRecordLoginHandler(engine *progress.Engine, log *logger.Logger) *RecordLoginHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordLoginHandler{
		engine: engine,
		log:    log.With(logger.String("handler", "record_login")),
	}
}

// Handle executes the command.
func (h *RecordLoginHandler) Handle(ctx context.Context, cmd RecordLoginCommand) (*RecordLoginResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("record_login: %w", err)
	}

	at := cmd.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	login, err := h.engine.RecordLogin(ctx, userID, at)
	if err != nil {
		return nil, fmt.Errorf("record_login: failed to record login: %w", err)
	}

	if login.Changed {
		h.log.Info("login streak updated",
			logger.String("user_id", userID.String()),
			logger.Int64("streak", login.Streak),
		)
	}

	return &RecordLoginResult{
		Streak:     login.Streak,
		Changed:    login.Changed,
		RecordedAt: at,
	}, nil
}
