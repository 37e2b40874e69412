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
// RECORD JOURNAL ENTRY COMMAND
// Journal entries carry no direct RC grant; they only advance the lifetime
// counter, which achievements reward at their own thresholds.
// ══════════════════════════════════════════════════════════════════════════════

// RecordJournalEntryCommand contains the data for a written journal entry.
type RecordJournalEntryCommand struct {
	// UserID is the ID of the user who wrote the entry.
	UserID string

	// EntryID identifies the entry in the caller's system.
	EntryID string
}

// Validate validates the command.
func (c RecordJournalEntryCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("record_journal: %w: user_id is required", shared.ErrEmptyValue)
	}
	if c.EntryID == "" {
		return fmt.Errorf("record_journal: %w: entry_id is required", shared.ErrEmptyValue)
	}
	return nil
}

// RecordJournalEntryResult contains the outcome.
type RecordJournalEntryResult struct {
	// JournalEntries is the lifetime counter after this entry.
	JournalEntries int64

	// RecordedAt is when the entry was processed.
	RecordedAt time.Time
}

// RecordJournalEntryHandler handles the RecordJournalEntryCommand.
type RecordJournalEntryHandler struct {
	engine *progress.Engine
	log    *logger.Logger
}

// NewRecordJournalEntryHandler creates a new RecordJournalEntryHandler.
func NewRecordJournalEntryHandler(engine *progress.Engine, log *logger.Logger) *RecordJournalEntryHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordJournalEntryHandler{
		engine: engine,
		log:    log.With(logger.String("handler", "record_journal")),
	}
}

// Handle executes the command.
func (h *RecordJournalEntryHandler) Handle(ctx context.Context, cmd RecordJournalEntryCommand) (*RecordJournalEntryResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("record_journal: %w", err)
	}

	count, err := h.engine.IncrementCounter(ctx, userID, shared.MetricJournalEntries, 1)
	if err != nil {
		return nil, fmt.Errorf("record_journal: failed to increment counter: %w", err)
	}

	h.log.Info("journal entry recorded",
		logger.String("user_id", userID.String()),
		logger.String("entry_id", cmd.EntryID),
		logger.Int64("journal_entries", count),
	)

	return &RecordJournalEntryResult{
		JournalEntries: count,
		RecordedAt:     time.Now().UTC(),
	}, nil
}
