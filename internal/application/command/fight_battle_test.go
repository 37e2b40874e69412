package command_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackreaper-app/blackreaper-engine/internal/application/command"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/battle"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/memory"
)

func newBattleHandler(t *testing.T) *command.FightBattleHandler {
	t.Helper()
	engine := newTestEngine()
	catalog, err := battle.NewCatalog([]battle.OpponentDefinition{
		{ID: "opponent-001", Name: "Novice Ghoul", Rank: shared.RankC, Power: 10, Speed: 10, RCMin: 10, RCMax: 20},
	})
	require.NoError(t, err)
	resolver := battle.NewResolver(catalog, engine, memory.NewBattleRepository(), nil,
		battle.DefaultTuning(), rand.New(rand.NewSource(7)), nil)
	return command.NewFightBattleHandler(resolver, nil)
}

func TestFightBattle(t *testing.T) {
	handler := newBattleHandler(t)

	result, err := handler.Handle(context.Background(), command.FightBattleCommand{
		UserID:     testUserID,
		OpponentID: "opponent-001",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.BattleID)
	assert.Equal(t, "opponent-001", result.OpponentID)
	assert.Equal(t, "Novice Ghoul", result.OpponentName)
	assert.Contains(t, []string{"win", "loss"}, result.Result)
	assert.GreaterOrEqual(t, result.RCDelta, int64(0))
	assert.False(t, result.FoughtAt.IsZero())
}

func TestFightBattle_UnknownOpponent(t *testing.T) {
	handler := newBattleHandler(t)

	_, err := handler.Handle(context.Background(), command.FightBattleCommand{
		UserID:     testUserID,
		OpponentID: "opponent-missing",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFightBattle_Validation(t *testing.T) {
	handler := newBattleHandler(t)

	_, err := handler.Handle(context.Background(), command.FightBattleCommand{OpponentID: "opponent-001"})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = handler.Handle(context.Background(), command.FightBattleCommand{UserID: testUserID})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}
