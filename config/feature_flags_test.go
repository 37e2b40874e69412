package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags_Defaults(t *testing.T) {
	ff := LoadFeatureFlags()

	// Core economy features ship enabled.
	assert.True(t, ff.IsEnabled(FeatureAchievements, nil))
	assert.True(t, ff.IsEnabled(FeatureBattles, nil))
	assert.True(t, ff.IsEnabled(FeatureLeaderboard, nil))
	assert.True(t, ff.IsEnabled(FeatureActivityFeed, nil))

	// Experimental transport is opt-in.
	assert.False(t, ff.IsEnabled(FeatureExperimentalEventBridge, nil))

	// Unknown features read as disabled.
	assert.False(t, ff.IsEnabled("no.such.feature", nil))
}

func TestFeatureFlags_EnvOverride(t *testing.T) {
	t.Setenv("FEATURE_BATTLES_ARENA", "false")
	t.Setenv("FEATURE_EXPERIMENTAL_EVENT_BRIDGE", "true")

	ff := LoadFeatureFlags()
	assert.False(t, ff.IsEnabled(FeatureBattles, nil))
	assert.True(t, ff.IsEnabled(FeatureExperimentalEventBridge, nil))
}

func TestFeatureFlags_EnvRolloutPercent(t *testing.T) {
	t.Setenv("FEATURE_SURFACES_LEADERBOARD", "0")

	ff := LoadFeatureFlags()
	assert.False(t, ff.IsEnabled(FeatureLeaderboard, nil))
}

func TestFeatureFlags_RolloutBucketingIsConsistent(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureBattles, 50))

	ctx := &FeatureContext{UserID: "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b"}
	first := ff.IsEnabled(FeatureBattles, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureBattles, ctx))
	}

	// 0% excludes everyone, 100% includes everyone.
	require.NoError(t, ff.SetRolloutPercent(FeatureBattles, 0))
	assert.False(t, ff.IsEnabled(FeatureBattles, ctx))
	require.NoError(t, ff.SetRolloutPercent(FeatureBattles, 100))
	assert.True(t, ff.IsEnabled(FeatureBattles, ctx))
}

func TestFeatureFlags_SetRolloutPercentValidation(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.ErrorIs(t, ff.SetRolloutPercent("no.such.feature", 50), ErrFeatureNotFound)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureBattles, 101), ErrInvalidRolloutPercent)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureBattles, -1), ErrInvalidRolloutPercent)
}

func TestFeatureFlags_UserOverrides(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.DisableFeature(FeatureBattles))

	ctx := &FeatureContext{UserID: "user-1"}
	assert.False(t, ff.IsEnabled(FeatureBattles, ctx))

	// Override wins over the global state in both directions.
	ff.SetUserOverride("user-1", FeatureBattles, true)
	assert.True(t, ff.IsEnabled(FeatureBattles, ctx))
	assert.False(t, ff.IsEnabled(FeatureBattles, &FeatureContext{UserID: "user-2"}))

	ff.ClearUserOverrides("user-1")
	assert.False(t, ff.IsEnabled(FeatureBattles, ctx))
}

func TestFeatureFlags_AdminSeesEverything(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.DisableFeature(FeatureBattles))

	admin := &FeatureContext{UserID: "user-1", IsAdmin: true}
	assert.True(t, ff.IsEnabled(FeatureBattles, admin))
}
