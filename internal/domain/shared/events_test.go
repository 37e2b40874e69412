package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRewardAppliedEvent(t *testing.T) {
	e := NewRewardAppliedEvent("user-1", 50, RC(150), Level(1), false, SourceTask)

	assert.Equal(t, EventRewardApplied, e.EventType())
	assert.Equal(t, int64(50), e.Delta)
	assert.Equal(t, int64(150), e.NewBalance)
	assert.Equal(t, "task", e.Source)
	assert.False(t, e.OccurredAt().IsZero())
	assert.Equal(t, "user-1", e.AggregateID())
}

func TestLevelUpEvent_RankedUp(t *testing.T) {
	// Level 3 -> 4 crosses the C -> B step.
	assert.True(t, NewLevelUpEvent("user-1", 3, 4).RankedUp())

	// Level 1 -> 2 stays within C.
	assert.False(t, NewLevelUpEvent("user-1", 1, 2).RankedUp())

	e := NewLevelUpEvent("user-1", 9, 10)
	assert.True(t, e.RankedUp())
	assert.Equal(t, "S", e.NewRank)
}

func TestNewBattleResolvedEvent(t *testing.T) {
	e := NewBattleResolvedEvent("user-1", "battle-1", "opponent-001", "Novice Ghoul", "win", 35, 0.72)

	assert.Equal(t, EventBattleResolved, e.EventType())
	assert.Equal(t, "win", e.Result)
	assert.Equal(t, int64(35), e.RCDelta)
	assert.InDelta(t, 0.72, e.WinProbability, 1e-9)
}
