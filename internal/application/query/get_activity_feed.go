package query

import (
	"context"
	"fmt"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/activity"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACTIVITY FEED QUERY
// Returns a user's activity feed entries, newest first, optionally bounded
// to a time window.
// ══════════════════════════════════════════════════════════════════════════════

// GetActivityFeedQuery contains the request parameters.
type GetActivityFeedQuery struct {
	// UserID is the ID of the user whose feed to read.
	UserID string

	// Limit is the maximum number of entries (default 50, max 200).
	Limit int

	// Since bounds the feed to entries at or after this time (zero = all).
	Since time.Time
}

// Validate validates the query and applies limit defaults.
func (q *GetActivityFeedQuery) Validate() error {
	if q.UserID == "" {
		return fmt.Errorf("get_activity_feed: %w: user_id is required", shared.ErrEmptyValue)
	}
	if q.Limit < 0 {
		return fmt.Errorf("get_activity_feed: %w: limit cannot be negative", shared.ErrNegativeValue)
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	return nil
}

// ActivityEntryDTO is one feed entry.
type ActivityEntryDTO struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Source     string         `json:"source,omitempty"`
	Message    string         `json:"message"`
	DeltaRC    int64          `json:"delta_rc,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// ActivityFeedDTO is the query response.
type ActivityFeedDTO struct {
	UserID  string             `json:"user_id"`
	Entries []ActivityEntryDTO `json:"entries"`
}

// GetActivityFeedHandler handles the GetActivityFeedQuery.
type GetActivityFeedHandler struct {
	feed activity.Repository
}

// NewGetActivityFeedHandler creates a new GetActivityFeedHandler.
func NewGetActivityFeedHandler(feed activity.Repository) *GetActivityFeedHandler {
	return &GetActivityFeedHandler{feed: feed}
}

// Handle executes the query.
func (h *GetActivityFeedHandler) Handle(ctx context.Context, q GetActivityFeedQuery) (*ActivityFeedDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_activity_feed: %w", err)
	}

	var entries []activity.Entry
	if q.Since.IsZero() {
		entries, err = h.feed.ListByUser(ctx, userID, q.Limit)
	} else {
		entries, err = h.feed.ListByUserSince(ctx, userID, q.Since)
	}
	if err != nil {
		return nil, fmt.Errorf("get_activity_feed: failed to list entries: %w", err)
	}
	if len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}

	dtos := make([]ActivityEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, ActivityEntryDTO{
			ID:         e.ID.String(),
			Kind:       string(e.Kind),
			Source:     e.Source.String(),
			Message:    e.Message,
			DeltaRC:    e.DeltaRC,
			Detail:     e.Detail,
			OccurredAt: e.OccurredAt,
		})
	}

	return &ActivityFeedDTO{
		UserID:  userID.String(),
		Entries: dtos,
	}, nil
}
