package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

func TestDefaultAchievementCatalog(t *testing.T) {
	catalog, err := DefaultAchievementCatalog()
	require.NoError(t, err)
	assert.Equal(t, len(DefaultAchievements()), catalog.Len())

	// The catalog covers every trackable metric plus the derived ones.
	metrics := []shared.Metric{
		shared.MetricTasksCompleted,
		shared.MetricPomodoros,
		shared.MetricBattlesWon,
		shared.MetricJournalEntries,
		shared.MetricLoginStreak,
		shared.MetricRCBalance,
		shared.MetricLevel,
	}
	for _, metric := range metrics {
		assert.NotEmpty(t, catalog.ByMetric(metric), "no achievements for %s", metric)
	}

	// Thresholds within a metric must be strictly increasing so tiers
	// unlock in order.
	for _, metric := range metrics {
		defs := catalog.ByMetric(metric)
		for i := 1; i < len(defs); i++ {
			assert.Greater(t, defs[i].Threshold, defs[i-1].Threshold,
				"%s tier %d not above tier %d", metric, i, i-1)
		}
	}
}

func TestDefaultOpponentCatalog(t *testing.T) {
	catalog, err := DefaultOpponentCatalog()
	require.NoError(t, err)
	assert.Equal(t, len(DefaultOpponents()), catalog.Len())

	novice, err := catalog.Get("opponent-001")
	require.NoError(t, err)
	assert.Equal(t, "Novice Ghoul", novice.Name)
	assert.Equal(t, shared.RankC, novice.Rank)

	// Roster spans the full rank ladder up to Arima.
	arima, err := catalog.Get("opponent-010")
	require.NoError(t, err)
	assert.Equal(t, shared.RankSSS, arima.Rank)
}

func TestDefaultOpponentsOrderedByDifficulty(t *testing.T) {
	opponents := DefaultOpponents()
	for i := 1; i < len(opponents); i++ {
		prev, cur := opponents[i-1], opponents[i]
		assert.LessOrEqual(t, prev.Rank.Order(), cur.Rank.Order(),
			"%s outranks %s", prev.Name, cur.Name)
		assert.LessOrEqual(t, prev.Power, cur.Power)
	}
}
