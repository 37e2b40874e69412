package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/notification"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/pkg/circuitbreaker"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
	"github.com/blackreaper-app/blackreaper-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFIER HANDLER
// Turns unlock, level-up, and battle-win events into outbound notifications.
// Delivery runs behind a circuit breaker with bounded retries; when the
// channel is down, notifications are dropped and the economy is unaffected.
// ══════════════════════════════════════════════════════════════════════════════

// deliveryTimeout bounds one delivery attempt including its retries.
const deliveryTimeout = 15 * time.Second

// NotifierHandler delivers notifications for interesting economy events.
type NotifierHandler struct {
	sender  notification.Notifier
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
	log     *logger.Logger
}

// NewNotifierHandler creates a new NotifierHandler.
func NewNotifierHandler(sender notification.Notifier, log *logger.Logger) *NotifierHandler {
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.String("handler", "notifier"))

	h := &NotifierHandler{
		sender:  sender,
		retrier: retry.NotifierRetrier(),
		log:     log,
	}
	h.breaker = circuitbreaker.NotifierBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("notifier breaker state change",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})
	return h
}

// Register subscribes the handler to the events it notifies on.
func (h *NotifierHandler) Register(bus shared.EventSubscriber) error {
	subscriptions := map[shared.EventType]shared.EventHandler{
		shared.EventAchievementUnlocked: h.onAchievementUnlocked,
		shared.EventLevelUp:             h.onLevelUp,
		shared.EventBattleResolved:      h.onBattleResolved,
	}
	for eventType, handler := range subscriptions {
		if err := bus.Subscribe(eventType, handler); err != nil {
			return fmt.Errorf("notifier: failed to subscribe to %s: %w", eventType, err)
		}
	}
	return nil
}

func (h *NotifierHandler) onAchievementUnlocked(event shared.Event) error {
	e, ok := event.(shared.AchievementUnlockedEvent)
	if !ok {
		return nil
	}

	n := notification.New(
		shared.UserID(e.UserID),
		notification.TypeAchievementUnlocked,
		"Achievement Unlocked",
		fmt.Sprintf("%s - you earned %d RC cells", e.Name, e.RewardRC),
	).WithData(map[string]any{
		"achievement_id": e.AchievementID,
		"reward_rc":      e.RewardRC,
		"reward_xp":      e.RewardXP,
	})

	h.deliver(n)
	return nil
}

func (h *NotifierHandler) onLevelUp(event shared.Event) error {
	e, ok := event.(shared.LevelUpEvent)
	if !ok {
		return nil
	}

	typ := notification.TypeLevelUp
	title := "Level Up"
	body := fmt.Sprintf("You reached level %d", e.NewLevel)
	if e.RankedUp() {
		typ = notification.TypeRankUp
		title = "Rank Up"
		body = fmt.Sprintf("You reached level %d and rank %s", e.NewLevel, e.NewRank)
	}

	n := notification.New(shared.UserID(e.UserID), typ, title, body).WithData(map[string]any{
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"new_rank":  e.NewRank,
	})

	h.deliver(n)
	return nil
}

func (h *NotifierHandler) onBattleResolved(event shared.Event) error {
	e, ok := event.(shared.BattleResolvedEvent)
	if !ok {
		return nil
	}
	if e.Result != "win" {
		return nil
	}

	n := notification.New(
		shared.UserID(e.UserID),
		notification.TypeBattleWon,
		"Victory",
		fmt.Sprintf("You defeated %s and earned %d RC cells", e.OpponentName, e.RCDelta),
	).WithData(map[string]any{
		"battle_id":   e.BattleID,
		"opponent_id": e.OpponentID,
		"rc_delta":    e.RCDelta,
	})

	h.deliver(n)
	return nil
}

// deliver sends through breaker and retrier. Failures are logged and
// dropped; handlers always report success to the bus so delivery problems
// never count against it.
func (h *NotifierHandler) deliver(n notification.Notification) {
	if h.sender == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	err := h.breaker.Execute(ctx, func(ctx context.Context) error {
		return h.retrier.Do(ctx, func(ctx context.Context) error {
			return h.sender.Send(ctx, n)
		})
	})
	if err != nil {
		h.log.Warn("notification dropped",
			logger.String("user_id", n.UserID.String()),
			logger.String("type", string(n.Type)),
			logger.Err(err),
		)
	}
}
