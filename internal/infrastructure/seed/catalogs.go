// Package seed ships the built-in reference catalogs and the helper that
// installs them into the database. The defaults mirror the canonical game
// data; operators can extend the catalog tables, but the seeder never
// overwrites an existing row.
package seed

import (
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/achievement"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/battle"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT ACHIEVEMENT CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// DefaultAchievements returns the built-in achievement definitions. Each
// category forms a ladder of rising thresholds over one metric; the rc and
// level ladders track derived values instead of stored counters.
func DefaultAchievements() []achievement.Definition {
	return []achievement.Definition{
		{
			ID: "achievement-001", Name: "Task Beginner",
			Description: "Complete 10 tasks", Icon: "fa-tasks", Category: "tasks",
			Metric: shared.MetricTasksCompleted, Threshold: 10, RewardRC: 50, RewardXP: 20,
		},
		{
			ID: "achievement-002", Name: "Task Master",
			Description: "Complete 100 tasks", Icon: "fa-tasks", Category: "tasks",
			Metric: shared.MetricTasksCompleted, Threshold: 100, RewardRC: 200, RewardXP: 50,
		},
		{
			ID: "achievement-003", Name: "Task Legend",
			Description: "Complete 500 tasks", Icon: "fa-tasks", Category: "tasks",
			Metric: shared.MetricTasksCompleted, Threshold: 500, RewardRC: 500, RewardXP: 100,
		},
		{
			ID: "achievement-004", Name: "Focus Initiate",
			Description: "Complete 10 pomodoro sessions", Icon: "fa-clock", Category: "pomodoro",
			Metric: shared.MetricPomodoros, Threshold: 10, RewardRC: 50, RewardXP: 20,
		},
		{
			ID: "achievement-005", Name: "Focus Adept",
			Description: "Complete 50 pomodoro sessions", Icon: "fa-clock", Category: "pomodoro",
			Metric: shared.MetricPomodoros, Threshold: 50, RewardRC: 200, RewardXP: 50,
		},
		{
			ID: "achievement-006", Name: "Focus Master",
			Description: "Complete 200 pomodoro sessions", Icon: "fa-clock", Category: "pomodoro",
			Metric: shared.MetricPomodoros, Threshold: 200, RewardRC: 500, RewardXP: 100,
		},
		{
			ID: "achievement-007", Name: "Battle Novice",
			Description: "Win 5 battles", Icon: "fa-swords", Category: "battles",
			Metric: shared.MetricBattlesWon, Threshold: 5, RewardRC: 50, RewardXP: 20,
		},
		{
			ID: "achievement-008", Name: "Battle Veteran",
			Description: "Win 25 battles", Icon: "fa-swords", Category: "battles",
			Metric: shared.MetricBattlesWon, Threshold: 25, RewardRC: 200, RewardXP: 50,
		},
		{
			ID: "achievement-009", Name: "Battle Champion",
			Description: "Win 100 battles", Icon: "fa-swords", Category: "battles",
			Metric: shared.MetricBattlesWon, Threshold: 100, RewardRC: 500, RewardXP: 100,
		},
		{
			ID: "achievement-010", Name: "Journal Beginner",
			Description: "Write 5 journal entries", Icon: "fa-book", Category: "journal",
			Metric: shared.MetricJournalEntries, Threshold: 5, RewardRC: 50, RewardXP: 20,
		},
		{
			ID: "achievement-011", Name: "Journal Enthusiast",
			Description: "Write 20 journal entries", Icon: "fa-book", Category: "journal",
			Metric: shared.MetricJournalEntries, Threshold: 20, RewardRC: 200, RewardXP: 50,
		},
		{
			ID: "achievement-012", Name: "Journal Scholar",
			Description: "Write 50 journal entries", Icon: "fa-book", Category: "journal",
			Metric: shared.MetricJournalEntries, Threshold: 50, RewardRC: 500, RewardXP: 100,
		},
		{
			ID: "achievement-013", Name: "RC Cell Collector",
			Description: "Accumulate 1,000 RC cells", Icon: "fa-dna", Category: "rc",
			Metric: shared.MetricRCBalance, Threshold: 1000, RewardXP: 50,
		},
		{
			ID: "achievement-014", Name: "RC Cell Hoarder",
			Description: "Accumulate 10,000 RC cells", Icon: "fa-dna", Category: "rc",
			Metric: shared.MetricRCBalance, Threshold: 10000, RewardXP: 100,
		},
		{
			ID: "achievement-015", Name: "Level Climber",
			Description: "Reach level 5", Icon: "fa-level-up-alt", Category: "level",
			Metric: shared.MetricLevel, Threshold: 5, RewardRC: 100,
		},
		{
			ID: "achievement-016", Name: "Level Master",
			Description: "Reach level 10", Icon: "fa-level-up-alt", Category: "level",
			Metric: shared.MetricLevel, Threshold: 10, RewardRC: 300,
		},
		{
			ID: "achievement-017", Name: "Daily Dedication",
			Description: "Maintain a 7-day login streak", Icon: "fa-calendar-check", Category: "streak",
			Metric: shared.MetricLoginStreak, Threshold: 7, RewardRC: 100, RewardXP: 30,
		},
		{
			ID: "achievement-018", Name: "Weekly Warrior",
			Description: "Maintain a 30-day login streak", Icon: "fa-calendar-check", Category: "streak",
			Metric: shared.MetricLoginStreak, Threshold: 30, RewardRC: 300, RewardXP: 100,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT OPPONENT CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// DefaultOpponents returns the built-in opponent roster, weakest first.
func DefaultOpponents() []battle.OpponentDefinition {
	return []battle.OpponentDefinition{
		{ID: "opponent-001", Name: "Novice Ghoul", Rank: shared.RankC, Power: 10, Speed: 10, RCMin: 10, RCMax: 20},
		{ID: "opponent-002", Name: "Investigator Trainee", Rank: shared.RankC, Power: 15, Speed: 12, RCMin: 15, RCMax: 25},
		{ID: "opponent-003", Name: "Kagune-wielding Ghoul", Rank: shared.RankB, Power: 25, Speed: 20, RCMin: 25, RCMax: 40},
		{ID: "opponent-004", Name: "Junior Investigator", Rank: shared.RankB, Power: 30, Speed: 25, RCMin: 30, RCMax: 50},
		{ID: "opponent-005", Name: "Rinkaku Ghoul", Rank: shared.RankA, Power: 45, Speed: 40, RCMin: 50, RCMax: 80},
		{ID: "opponent-006", Name: "Quinque-wielding Investigator", Rank: shared.RankA, Power: 50, Speed: 45, RCMin: 60, RCMax: 100},
		{ID: "opponent-007", Name: "Kakuja Ghoul", Rank: shared.RankS, Power: 70, Speed: 65, RCMin: 100, RCMax: 150},
		{ID: "opponent-008", Name: "Special Class Investigator", Rank: shared.RankS, Power: 80, Speed: 75, RCMin: 120, RCMax: 180},
		{ID: "opponent-009", Name: "One-Eyed Ghoul", Rank: shared.RankSS, Power: 100, Speed: 100, RCMin: 200, RCMax: 300},
		{ID: "opponent-010", Name: "Arima Kishou", Rank: shared.RankSSS, Power: 150, Speed: 150, RCMin: 300, RCMax: 500},
	}
}

// DefaultAchievementCatalog builds a catalog from the built-in definitions.
// The defaults are maintained alongside the validation rules, so a failure
// here is a bug, not an operational condition.
func DefaultAchievementCatalog() (*achievement.Catalog, error) {
	return achievement.NewCatalog(DefaultAchievements())
}

// DefaultOpponentCatalog builds a catalog from the built-in roster.
func DefaultOpponentCatalog() (*battle.Catalog, error) {
	return battle.NewCatalog(DefaultOpponents())
}
