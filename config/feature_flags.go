package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles with gradual rollout support.
// Users are bucketed by a consistent hash of their ID, so a 50% rollout
// keeps the same half of the user base enabled across restarts.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID  string
	IsAdmin bool
}

// Predefined feature flag names.
const (
	// === Progression ===
	FeatureAchievements = "progression.achievements" // Achievement unlocks
	FeatureStreaks      = "progression.streaks"      // Daily login streaks

	// === Battles ===
	FeatureBattles = "battles.arena" // Opponent battles

	// === Surfaces ===
	FeatureLeaderboard  = "surfaces.leaderboard"   // RC balance leaderboard
	FeatureActivityFeed = "surfaces.activity_feed" // Activity feed projection

	// === Notifications ===
	FeatureNotifyAchievement = "notify.achievement" // Achievement unlocked
	FeatureNotifyLevelUp     = "notify.level_up"    // Level and rank changes
	FeatureNotifyBattleWon   = "notify.battle_won"  // Battle victories

	// === Experimental ===
	FeatureExperimentalEventBridge = "experimental.event_bridge" // Cross-instance event fan-out
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureAchievements] = &Feature{
		Name:           FeatureAchievements,
		Description:    "Unlock achievements on counter thresholds",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureStreaks] = &Feature{
		Name:           FeatureStreaks,
		Description:    "Track daily login streaks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureBattles] = &Feature{
		Name:           FeatureBattles,
		Description:    "Fight catalog opponents for RC",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboard] = &Feature{
		Name:           FeatureLeaderboard,
		Description:    "RC balance leaderboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureActivityFeed] = &Feature{
		Name:           FeatureActivityFeed,
		Description:    "Per-user activity feed",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Notifications are best-effort and tuned to avoid noise.
	ff.features[FeatureNotifyAchievement] = &Feature{
		Name:           FeatureNotifyAchievement,
		Description:    "Notify on achievement unlock",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyLevelUp] = &Feature{
		Name:           FeatureNotifyLevelUp,
		Description:    "Notify on level and rank changes",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyBattleWon] = &Feature{
		Name:           FeatureNotifyBattleWon,
		Description:    "Notify on battle victories",
		Enabled:        false, // Can be loud for active fighters
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalEventBridge] = &Feature{
		Name:           FeatureExperimentalEventBridge,
		Description:    "Publish domain events across instances via Redis",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_BATTLES_ARENA=true
// Example: FEATURE_NOTIFY_BATTLE_WON=25 (25% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "battles.arena" -> "FEATURE_BATTLES_ARENA"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func isInRollout(userID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	bucket := int(hash % 100)
	return bucket < percent
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
