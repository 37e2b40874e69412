package battle_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/battle"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/progress"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/memory"
)

const testUser = shared.UserID("7ed99bd0-87b2-4dbb-a97b-596c3f29c49b")

// pushoverID is far weaker than a fresh player (power 50, speed 40), so the
// sigmoid sits near 1 and every roll wins. brickWallID is the opposite.
const (
	pushoverID  = shared.OpponentID("opponent-weak")
	brickWallID = shared.OpponentID("opponent-strong")
)

func testOpponents(t *testing.T) *battle.Catalog {
	t.Helper()
	catalog, err := battle.NewCatalog([]battle.OpponentDefinition{
		{ID: pushoverID, Name: "Pushover", Rank: shared.RankC, Power: 1, Speed: 1, RCMin: 10, RCMax: 20},
		{ID: brickWallID, Name: "Brick Wall", Rank: shared.RankSSS, Power: 500, Speed: 500, RCMin: 300, RCMax: 500},
	})
	require.NoError(t, err)
	return catalog
}

func newTestResolver(t *testing.T, catalog *battle.Catalog) (*battle.Resolver, *progress.Engine, battle.Repository) {
	t.Helper()
	ledger := memory.NewLedger()
	engine := progress.NewEngine(ledger, nil, nil)
	records := memory.NewBattleRepository()
	rng := rand.New(rand.NewSource(42))
	resolver := battle.NewResolver(catalog, engine, records, nil, battle.DefaultTuning(), rng, nil)
	return resolver, engine, records
}

func TestFight_WinAgainstPushover(t *testing.T) {
	resolver, engine, records := newTestResolver(t, testOpponents(t))
	ctx := context.Background()

	// A large balance drives player power high enough that the sigmoid
	// saturates and the outcome is a guaranteed win.
	_, err := engine.ApplyReward(ctx, testUser, 10_000, shared.SourceTask)
	require.NoError(t, err)

	record, err := resolver.Fight(ctx, testUser, pushoverID)
	require.NoError(t, err)

	assert.Equal(t, battle.ResultWin, record.Result)
	assert.Greater(t, record.WinProbability, 0.9)

	// Base win reward is [20, 60); rank C adds no bonus.
	assert.GreaterOrEqual(t, record.RCDelta, int64(20))
	assert.Less(t, record.RCDelta, int64(60))

	// The reward landed and the counters cascaded.
	progress, err := engine.Ledger().Get(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 10_000+record.RCDelta, progress.Balance.Int64())
	assert.Equal(t, int64(1), progress.Counter(shared.MetricBattles))
	assert.Equal(t, int64(1), progress.Counter(shared.MetricBattlesWon))
	assert.Equal(t, int64(0), progress.Counter(shared.MetricBattlesLost))

	// History recorded.
	history, err := records.ListByUser(ctx, testUser, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, record.ID, history[0].ID)
}

func TestFight_LossAgainstBrickWall(t *testing.T) {
	resolver, engine, _ := newTestResolver(t, testOpponents(t))
	ctx := context.Background()

	record, err := resolver.Fight(ctx, testUser, brickWallID)
	require.NoError(t, err)

	assert.Equal(t, battle.ResultLoss, record.Result)
	assert.Less(t, record.WinProbability, 0.01)

	// Consolation reward is [0, 6); the delta is never negative.
	assert.GreaterOrEqual(t, record.RCDelta, int64(0))
	assert.Less(t, record.RCDelta, int64(6))

	progress, err := engine.Ledger().Get(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, int64(1), progress.Counter(shared.MetricBattlesLost))
	assert.Equal(t, int64(0), progress.Counter(shared.MetricBattlesWon))
}

func TestFight_WinRewardsIncludeRankBonus(t *testing.T) {
	catalog, err := battle.NewCatalog([]battle.OpponentDefinition{
		// SSS-ranked but harmless, so the fight still always wins.
		{ID: "glass-cannon", Name: "Glass Cannon", Rank: shared.RankSSS, Power: 1, Speed: 1, RCMin: 300, RCMax: 500},
	})
	require.NoError(t, err)
	resolver, engine, _ := newTestResolver(t, catalog)

	_, err = engine.ApplyReward(context.Background(), testUser, 10_000, shared.SourceTask)
	require.NoError(t, err)

	record, err := resolver.Fight(context.Background(), testUser, "glass-cannon")
	require.NoError(t, err)
	require.Equal(t, battle.ResultWin, record.Result)

	// Base [20, 60) plus the SSS bonus of 30.
	assert.GreaterOrEqual(t, record.RCDelta, int64(50))
	assert.Less(t, record.RCDelta, int64(90))
}

func TestFight_UnknownOpponent(t *testing.T) {
	resolver, _, _ := newTestResolver(t, testOpponents(t))

	_, err := resolver.Fight(context.Background(), testUser, "opponent-missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFight_NilCatalogReportsUnavailable(t *testing.T) {
	resolver, _, _ := newTestResolver(t, nil)
	assert.False(t, resolver.Enabled())

	_, err := resolver.Fight(context.Background(), testUser, pushoverID)
	assert.ErrorIs(t, err, shared.ErrCatalogUnavailable)

	_, err = resolver.Opponents()
	assert.ErrorIs(t, err, shared.ErrCatalogUnavailable)
}

func TestFight_RejectsConcurrentBattle(t *testing.T) {
	ledger := memory.NewLedger()
	engine := progress.NewEngine(ledger, nil, nil)
	records := &blockingRepository{
		inner:   memory.NewBattleRepository(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	resolver := battle.NewResolver(testOpponents(t), engine, records, nil, battle.DefaultTuning(), rand.New(rand.NewSource(1)), nil)
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := resolver.Fight(ctx, testUser, pushoverID)
		firstDone <- err
	}()

	// Wait until the first fight is mid-flight, then start a second one.
	<-records.started
	assert.Equal(t, battle.StateInProgress, resolver.StateFor(testUser))

	_, err := resolver.Fight(ctx, testUser, pushoverID)
	assert.ErrorIs(t, err, shared.ErrBattleAlreadyActive)

	close(records.release)
	require.NoError(t, <-firstDone)
	assert.Equal(t, battle.StateIdle, resolver.StateFor(testUser))
}

func TestCatalog_ListingOrderEasiestFirst(t *testing.T) {
	catalog := testOpponents(t)

	all := catalog.All()
	require.Len(t, all, 2)
	assert.Equal(t, pushoverID, all[0].ID)
	assert.Equal(t, brickWallID, all[1].ID)
}

// blockingRepository holds the first Append open until released, keeping the
// owning Fight call in progress.
type blockingRepository struct {
	inner   battle.Repository
	started chan struct{}
	release chan struct{}
	blocked bool
}

func (r *blockingRepository) Append(ctx context.Context, record battle.Record) error {
	if !r.blocked {
		r.blocked = true
		close(r.started)
		<-r.release
	}
	return r.inner.Append(ctx, record)
}

func (r *blockingRepository) ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]battle.Record, error) {
	return r.inner.ListByUser(ctx, userID, limit)
}

func (r *blockingRepository) CountByUser(ctx context.Context, userID shared.UserID) (int64, error) {
	return r.inner.CountByUser(ctx, userID)
}
