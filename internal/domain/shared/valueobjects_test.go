package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUserID(t *testing.T) {
	id, err := NewUserID("  7ED99BD0-87B2-4DBB-A97B-596C3F29C49B ")
	assert.NoError(t, err)
	assert.Equal(t, "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b", id.String())

	_, err = NewUserID("not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = NewUserID("")
	assert.Error(t, err)
}

func TestRC_Apply(t *testing.T) {
	assert.Equal(t, RC(150), RC(100).Apply(50))
	assert.Equal(t, RC(50), RC(100).Apply(-50))

	// Spends larger than the balance truncate at zero, never go negative.
	assert.Equal(t, MinRC, RC(100).Apply(-500))
	assert.Equal(t, MinRC, RC(0).Apply(-1))
}

func TestRC_Level(t *testing.T) {
	assert.Equal(t, Level(1), RC(0).Level())
	assert.Equal(t, Level(1), RC(999).Level())
	assert.Equal(t, Level(2), RC(1000).Level())
	assert.Equal(t, Level(11), RC(10500).Level())
}

func TestRC_ProgressToNextLevel(t *testing.T) {
	assert.Equal(t, 0, RC(0).ProgressToNextLevel())
	assert.Equal(t, 50, RC(500).ProgressToNextLevel())
	assert.Equal(t, 0, RC(1000).ProgressToNextLevel())
	assert.Equal(t, 99, RC(1999).ProgressToNextLevel())
}

func TestRankForLevel(t *testing.T) {
	cases := []struct {
		level Level
		rank  Rank
	}{
		{1, RankC},
		{3, RankC},
		{4, RankB},
		{6, RankA},
		{10, RankS},
		{12, RankSP},
		{15, RankSS},
		{18, RankSSP},
		{20, RankSSS},
		{99, RankSSS},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.rank, RankForLevel(tc.level), "level %d", tc.level)
	}
}

func TestRank_Order(t *testing.T) {
	assert.Equal(t, 0, RankC.Order())
	assert.Equal(t, 7, RankSSS.Order())
	assert.Greater(t, RankS.Order(), RankA.Order())
	assert.Equal(t, -1, Rank("X").Order())
}

func TestParseRank(t *testing.T) {
	r, err := ParseRank(" ss+ ")
	assert.NoError(t, err)
	assert.Equal(t, RankSSP, r)

	_, err = ParseRank("Z")
	assert.Error(t, err)
}

func TestMetric_IsValid(t *testing.T) {
	for _, m := range KnownMetrics() {
		assert.True(t, m.IsValid(), m.String())
	}
	assert.False(t, Metric("bogus").IsValid())

	// Derived metrics are threshold targets but not incrementable counters.
	assert.False(t, MetricRCBalance.IsValid())
	assert.False(t, MetricLevel.IsValid())
	assert.True(t, MetricRCBalance.IsDerived())
	assert.True(t, MetricLevel.IsDerived())
	assert.False(t, MetricTasksCompleted.IsDerived())
}
