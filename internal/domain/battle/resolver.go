package battle

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
	"github.com/blackreaper-app/blackreaper-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// BATTLE RESOLVER
// Per-user state machine: Idle → InProgress → Resolved. Only the final
// record is persisted; the InProgress marker lives in memory for the
// duration of a single Fight call and exists to reject a second concurrent
// battle by the same user.
// ══════════════════════════════════════════════════════════════════════════════

// State is the ephemeral per-user battle state.
type State string

const (
	StateIdle       State = "idle"
	StateInProgress State = "in_progress"
)

// Tuning holds the outcome and reward parameters. The values mirror the
// long-standing balance of the RC economy; changing them shifts win rates
// for every user at once.
type Tuning struct {
	// WPower and WSpeed weight the stat differentials in the win
	// probability sigmoid.
	WPower float64
	WSpeed float64

	// PowerBase and PowerPerRC derive the player's power stat from the RC
	// balance. SpeedBase and SpeedStreakCap derive speed from the login
	// streak, capped so veterans do not scale without bound.
	PowerBase      float64
	PowerPerRC     float64
	SpeedBase      float64
	SpeedStreakCap int64

	// WinRCMin and WinRCSpread bound the base win reward before the rank
	// bonus. LossRCBound is the exclusive upper bound of the loss reward.
	WinRCMin    int64
	WinRCSpread int64
	LossRCBound int64

	// RankBonus is the flat RC added to a win per opponent rank.
	RankBonus map[shared.Rank]int64
}

// DefaultTuning returns the production balance parameters.
func DefaultTuning() Tuning {
	return Tuning{
		WPower:         0.08,
		WSpeed:         0.05,
		PowerBase:      50,
		PowerPerRC:     0.1,
		SpeedBase:      40,
		SpeedStreakCap: 30,
		WinRCMin:       20,
		WinRCSpread:    40,
		LossRCBound:    6,
		RankBonus: map[shared.Rank]int64{
			shared.RankC:   0,
			shared.RankB:   0,
			shared.RankA:   5,
			shared.RankS:   10,
			shared.RankSP:  15,
			shared.RankSS:  20,
			shared.RankSSP: 25,
			shared.RankSSS: 30,
		},
	}
}

// Resolver fights battles. All methods are safe for concurrent use.
type Resolver struct {
	catalog *Catalog
	engine  *progress.Engine
	records Repository
	events  shared.EventPublisher
	tuning  Tuning
	grants  *retry.Retrier
	log     *logger.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	active map[shared.UserID]struct{}
}

// NewResolver creates a resolver. A nil catalog is the degraded mode after a
// failed opponent catalog load: every Fight reports the catalog unavailable.
// A nil rng gets a time-seeded source; tests inject a fixed seed.
func NewResolver(catalog *Catalog, engine *progress.Engine, records Repository, events shared.EventPublisher, tuning Tuning, rng *rand.Rand, log *logger.Logger) *Resolver {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = logger.Default()
	}
	return &Resolver{
		catalog: catalog,
		engine:  engine,
		records: records,
		events:  events,
		tuning:  tuning,
		grants:  retry.RewardGrantRetrier(),
		log:     log.With(logger.Component("battle_resolver")),
		rng:     rng,
		active:  make(map[shared.UserID]struct{}),
	}
}

// Enabled reports whether an opponent catalog is loaded.
func (r *Resolver) Enabled() bool {
	return r.catalog != nil && r.catalog.Len() > 0
}

// StateFor returns the ephemeral battle state for a user.
func (r *Resolver) StateFor(userID shared.UserID) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[userID]; ok {
		return StateInProgress
	}
	return StateIdle
}

// Opponents returns the fightable opponents in listing order.
func (r *Resolver) Opponents() ([]OpponentDefinition, error) {
	if !r.Enabled() {
		return nil, shared.ErrOpponentCatalogUnavailable
	}
	return r.catalog.All(), nil
}

// Fight runs one battle from opponent selection to resolution. The outcome
// and RC delta are rolled exactly once; only the ledger write retries on
// contention. A second concurrent Fight by the same user is rejected before
// any state changes.
func (r *Resolver) Fight(ctx context.Context, userID shared.UserID, opponentID shared.OpponentID) (Record, error) {
	if !r.Enabled() {
		return Record{}, shared.ErrOpponentCatalogUnavailable
	}

	opponent, err := r.catalog.Get(opponentID)
	if err != nil {
		return Record{}, err
	}

	if err := r.begin(userID); err != nil {
		return Record{}, err
	}
	defer r.finish(userID)

	current, err := r.engine.Ledger().Get(ctx, userID)
	if err != nil && !shared.IsNotFound(err) {
		return Record{}, err
	}

	record := r.resolve(userID, opponent, current)

	// The outcome is final from here. The reward write is the only step that
	// may see contention, and it retries without touching the roll.
	if err := r.applyOutcome(ctx, userID, record); err != nil {
		return Record{}, err
	}

	if err := r.records.Append(ctx, record); err != nil {
		// History is best-effort relative to the already-granted reward.
		r.log.Error("battle record append failed",
			logger.UserID(userID.String()),
			logger.OpponentID(opponentID.String()),
			logger.Err(err),
		)
	}

	r.publish(shared.NewBattleResolvedEvent(
		userID, record.ID.String(), record.OpponentID, record.OpponentName,
		string(record.Result), record.RCDelta, record.WinProbability,
	))

	r.log.Info("battle resolved",
		logger.UserID(userID.String()),
		logger.OpponentID(opponentID.String()),
		logger.String("result", string(record.Result)),
		logger.DeltaRC(record.RCDelta),
	)
	return record, nil
}

// begin transitions the user from Idle to InProgress, rejecting a second
// concurrent battle.
func (r *Resolver) begin(userID shared.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[userID]; ok {
		return shared.ErrBattleAlreadyActive
	}
	r.active[userID] = struct{}{}
	return nil
}

func (r *Resolver) finish(userID shared.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, userID)
}

// resolve rolls the outcome. Pure apart from the rng draw; current may be
// nil for a brand-new user.
func (r *Resolver) resolve(userID shared.UserID, opponent OpponentDefinition, current *progress.UserProgress) Record {
	var balance, streak int64
	if current != nil {
		balance = int64(current.Balance)
		streak = current.Counter(shared.MetricLoginStreak)
	}

	playerPower := r.tuning.PowerBase + float64(balance)*r.tuning.PowerPerRC
	playerSpeed := r.tuning.SpeedBase + float64(min64(streak, r.tuning.SpeedStreakCap))

	diff := (playerPower-float64(opponent.Power))*r.tuning.WPower +
		(playerSpeed-float64(opponent.Speed))*r.tuning.WSpeed
	winProb := 1 / (1 + math.Exp(-diff))

	r.mu.Lock()
	roll := r.rng.Float64()
	var spread, lossRoll int64
	if r.tuning.WinRCSpread > 0 {
		spread = r.rng.Int63n(r.tuning.WinRCSpread)
	}
	if r.tuning.LossRCBound > 0 {
		lossRoll = r.rng.Int63n(r.tuning.LossRCBound)
	}
	r.mu.Unlock()

	result := ResultLoss
	var rcDelta int64
	if roll < winProb {
		result = ResultWin
		rcDelta = r.tuning.WinRCMin + spread + r.tuning.RankBonus[opponent.Rank]
	} else {
		rcDelta = lossRoll
	}

	return Record{
		ID:             uuid.New(),
		UserID:         userID,
		OpponentID:     opponent.ID,
		OpponentName:   opponent.Name,
		Result:         result,
		RCDelta:        rcDelta,
		WinProbability: winProb,
		PlayerPower:    playerPower,
		PlayerSpeed:    playerSpeed,
		OpponentPower:  opponent.Power,
		OpponentSpeed:  opponent.Speed,
		FoughtAt:       time.Now().UTC(),
	}
}

// applyOutcome writes the already-rolled outcome to the ledger. Contention
// retries the write only; the record is never recomputed.
func (r *Resolver) applyOutcome(ctx context.Context, userID shared.UserID, record Record) error {
	err := r.grants.Do(ctx, func(ctx context.Context) error {
		_, applyErr := r.engine.ApplyReward(ctx, userID, record.RCDelta, shared.SourceBattle)
		if applyErr != nil && shared.IsContention(applyErr) {
			return retry.Retryable(applyErr)
		}
		return applyErr
	})
	if err != nil {
		return err
	}

	// Counter increments cascade into achievement evaluation.
	if _, err := r.engine.IncrementCounter(ctx, userID, shared.MetricBattles, 1); err != nil {
		r.log.Error("battles counter increment failed", logger.UserID(userID.String()), logger.Err(err))
	}
	outcomeMetric := shared.MetricBattlesLost
	if record.Result == ResultWin {
		outcomeMetric = shared.MetricBattlesWon
	}
	if _, err := r.engine.IncrementCounter(ctx, userID, outcomeMetric, 1); err != nil {
		r.log.Error("battle outcome counter increment failed", logger.UserID(userID.String()), logger.Err(err))
	}
	return nil
}

func (r *Resolver) publish(event shared.Event) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(event); err != nil {
		r.log.Warn("event publish failed",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
