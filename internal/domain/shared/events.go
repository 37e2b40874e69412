// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. These form the explicit typed channel between the
// progression engine and its sinks; sinks consume them fire-and-forget and
// produce no state the engine depends on.
const (
	// Economy events
	EventRewardApplied EventType = "economy.reward_applied"
	EventLevelUp       EventType = "economy.level_up"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// Battle events
	EventBattleResolved EventType = "battle.resolved"

	// Activity events
	EventActivityLogged EventType = "activity.logged"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Economy Events
// ═══════════════════════════════════════════════════════════════════════════

// RewardAppliedEvent is emitted after a balance mutation commits.
type RewardAppliedEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	Delta      int64  `json:"delta"`
	NewBalance int64  `json:"new_balance"`
	NewLevel   int    `json:"new_level"`
	LeveledUp  bool   `json:"leveled_up"`
	Source     string `json:"source"` // e.g., "task", "battle", "achievement"
}

// Payload implements Event interface.
func (e RewardAppliedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"delta":       e.Delta,
		"new_balance": e.NewBalance,
		"new_level":   e.NewLevel,
		"leveled_up":  e.LeveledUp,
		"source":      e.Source,
	}
}

// NewRewardAppliedEvent creates a new RewardAppliedEvent.
func NewRewardAppliedEvent(userID UserID, delta int64, newBalance RC, newLevel Level, leveledUp bool, source Source) RewardAppliedEvent {
	return RewardAppliedEvent{
		BaseEvent:  NewBaseEvent(EventRewardApplied, userID.String()),
		UserID:     userID.String(),
		Delta:      delta,
		NewBalance: newBalance.Int64(),
		NewLevel:   newLevel.Int(),
		LeveledUp:  leveledUp,
		Source:     source.String(),
	}
}

// LevelUpEvent is emitted when the derived level increases after a reward.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
	NewRank  string `json:"new_rank"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"new_rank":  e.NewRank,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID UserID, oldLevel, newLevel Level) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID.String()),
		UserID:    userID.String(),
		OldLevel:  oldLevel.Int(),
		NewLevel:  newLevel.Int(),
		NewRank:   newLevel.Rank().String(),
	}
}

// RankedUp returns true if the level change also crossed a rank step.
func (e LevelUpEvent) RankedUp() bool {
	return RankForLevel(Level(e.OldLevel)) != RankForLevel(Level(e.NewLevel))
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted exactly once per achievement per user,
// when the write-if-absent unlock commits.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	Metric        string `json:"metric"`
	Threshold     int64  `json:"threshold"`
	RewardRC      int64  `json:"reward_rc"`
	RewardXP      int64  `json:"reward_xp"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"achievement_id": e.AchievementID,
		"name":           e.Name,
		"metric":         e.Metric,
		"threshold":      e.Threshold,
		"reward_rc":      e.RewardRC,
		"reward_xp":      e.RewardXP,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID UserID, achievementID AchievementID, name string, metric Metric, threshold, rewardRC, rewardXP int64) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, userID.String()),
		UserID:        userID.String(),
		AchievementID: achievementID.String(),
		Name:          name,
		Metric:        metric.String(),
		Threshold:     threshold,
		RewardRC:      rewardRC,
		RewardXP:      rewardXP,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Battle Events
// ═══════════════════════════════════════════════════════════════════════════

// BattleResolvedEvent is emitted when a battle reaches its resolved state.
type BattleResolvedEvent struct {
	BaseEvent
	UserID         string  `json:"user_id"`
	BattleID       string  `json:"battle_id"`
	OpponentID     string  `json:"opponent_id"`
	OpponentName   string  `json:"opponent_name"`
	Result         string  `json:"result"` // "win" or "loss"
	RCDelta        int64   `json:"rc_delta"`
	WinProbability float64 `json:"win_probability"`
}

// Payload implements Event interface.
func (e BattleResolvedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"battle_id":       e.BattleID,
		"opponent_id":     e.OpponentID,
		"opponent_name":   e.OpponentName,
		"result":          e.Result,
		"rc_delta":        e.RCDelta,
		"win_probability": e.WinProbability,
	}
}

// NewBattleResolvedEvent creates a new BattleResolvedEvent.
func NewBattleResolvedEvent(userID UserID, battleID string, opponentID OpponentID, opponentName, result string, rcDelta int64, winProbability float64) BattleResolvedEvent {
	return BattleResolvedEvent{
		BaseEvent:      NewBaseEvent(EventBattleResolved, userID.String()),
		UserID:         userID.String(),
		BattleID:       battleID,
		OpponentID:     opponentID.String(),
		OpponentName:   opponentName,
		Result:         result,
		RCDelta:        rcDelta,
		WinProbability: winProbability,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Activity Events
// ═══════════════════════════════════════════════════════════════════════════

// ActivityLoggedEvent is emitted after an activity entry is appended.
type ActivityLoggedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Payload implements Event interface.
func (e ActivityLoggedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"kind":    e.Kind,
		"message": e.Message,
	}
}

// NewActivityLoggedEvent creates a new ActivityLoggedEvent.
func NewActivityLoggedEvent(userID UserID, kind, message string) ActivityLoggedEvent {
	return ActivityLoggedEvent{
		BaseEvent: NewBaseEvent(EventActivityLogged, userID.String()),
		UserID:    userID.String(),
		Kind:      kind,
		Message:   message,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
