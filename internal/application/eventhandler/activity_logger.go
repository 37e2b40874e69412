// Package eventhandler contains subscribers reacting to domain events.
// Handlers are best-effort projections and notifications: a handler failure
// never rolls back the mutation that emitted the event.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/activity"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY LOGGER
// Projects economy events into the append-only activity feed.
//
// Battle and achievement rewards flow through ApplyReward like any other
// grant, so their RewardApplied events would duplicate the dedicated battle
// and achievement entries. The logger records RewardApplied only for direct
// activity sources (task, pomodoro, journal).
// ══════════════════════════════════════════════════════════════════════════════

// ActivityLogger appends feed entries for economy events.
type ActivityLogger struct {
	feed activity.Repository
	log  *logger.Logger
}

// NewActivityLogger creates a new ActivityLogger.
func NewActivityLogger(feed activity.Repository, log *logger.Logger) *ActivityLogger {
	if log == nil {
		log = logger.Default()
	}
	return &ActivityLogger{
		feed: feed,
		log:  log.With(logger.String("handler", "activity_logger")),
	}
}

// Register subscribes the logger to the events it projects.
func (h *ActivityLogger) Register(bus shared.EventSubscriber) error {
	subscriptions := map[shared.EventType]shared.EventHandler{
		shared.EventRewardApplied:       h.onRewardApplied,
		shared.EventLevelUp:             h.onLevelUp,
		shared.EventAchievementUnlocked: h.onAchievementUnlocked,
		shared.EventBattleResolved:      h.onBattleResolved,
	}
	for eventType, handler := range subscriptions {
		if err := bus.Subscribe(eventType, handler); err != nil {
			return fmt.Errorf("activity_logger: failed to subscribe to %s: %w", eventType, err)
		}
	}
	return nil
}

func (h *ActivityLogger) onRewardApplied(event shared.Event) error {
	e, ok := event.(shared.RewardAppliedEvent)
	if !ok {
		return nil
	}

	source := shared.Source(e.Source)
	switch source {
	case shared.SourceTask, shared.SourcePomodoro, shared.SourceJournal:
	default:
		return nil
	}
	if e.Delta <= 0 {
		return nil
	}

	message := fmt.Sprintf("Earned %d RC cells from %s", e.Delta, e.Source)
	return h.append(shared.UserID(e.UserID), activity.KindReward, source, message, e.Delta, nil)
}

func (h *ActivityLogger) onLevelUp(event shared.Event) error {
	e, ok := event.(shared.LevelUpEvent)
	if !ok {
		return nil
	}

	message := fmt.Sprintf("Reached level %d", e.NewLevel)
	detail := map[string]any{
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"new_rank":  e.NewRank,
	}
	return h.append(shared.UserID(e.UserID), activity.KindLevelUp, "", message, 0, detail)
}

func (h *ActivityLogger) onAchievementUnlocked(event shared.Event) error {
	e, ok := event.(shared.AchievementUnlockedEvent)
	if !ok {
		return nil
	}

	message := fmt.Sprintf("Unlocked achievement: %s", e.Name)
	detail := map[string]any{
		"achievement_id": e.AchievementID,
		"reward_rc":      e.RewardRC,
		"reward_xp":      e.RewardXP,
	}
	return h.append(shared.UserID(e.UserID), activity.KindAchievement, shared.SourceAchievement, message, e.RewardRC, detail)
}

func (h *ActivityLogger) onBattleResolved(event shared.Event) error {
	e, ok := event.(shared.BattleResolvedEvent)
	if !ok {
		return nil
	}

	var message string
	if e.Result == "win" {
		message = fmt.Sprintf("Defeated %s (+%d RC)", e.OpponentName, e.RCDelta)
	} else {
		message = fmt.Sprintf("Lost to %s (+%d RC)", e.OpponentName, e.RCDelta)
	}
	detail := map[string]any{
		"battle_id":       e.BattleID,
		"opponent_id":     e.OpponentID,
		"result":          e.Result,
		"win_probability": e.WinProbability,
	}
	return h.append(shared.UserID(e.UserID), activity.KindBattle, shared.SourceBattle, message, e.RCDelta, detail)
}

func (h *ActivityLogger) append(userID shared.UserID, kind activity.Kind, source shared.Source, message string, deltaRC int64, detail map[string]any) error {
	entry, err := activity.NewEntry(userID, kind, source, message, deltaRC, time.Now().UTC())
	if err != nil {
		h.log.Error("invalid feed entry",
			logger.String("user_id", userID.String()),
			logger.String("kind", string(kind)),
			logger.Err(err),
		)
		return nil
	}
	if detail != nil {
		entry = entry.WithDetail(detail)
	}

	if err := h.feed.Append(context.Background(), entry); err != nil {
		h.log.Error("feed append failed",
			logger.String("user_id", userID.String()),
			logger.String("kind", string(kind)),
			logger.Err(err),
		)
		return err
	}
	return nil
}
