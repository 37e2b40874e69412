// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique user identifier (UUID format).
type UserID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// AchievementID identifies an achievement definition in the reference catalog.
type AchievementID string

// String returns the string representation.
func (a AchievementID) String() string {
	return string(a)
}

// IsEmpty checks if the ID is empty.
func (a AchievementID) IsEmpty() bool {
	return a == ""
}

// OpponentID identifies an opponent definition in the reference catalog.
type OpponentID string

// String returns the string representation.
func (o OpponentID) String() string {
	return string(o)
}

// IsEmpty checks if the ID is empty.
func (o OpponentID) IsEmpty() bool {
	return o == ""
}

// ═══════════════════════════════════════════════════════════════════════════
// RC Value Object (RC Cells - the economy's sole currency)
// ═══════════════════════════════════════════════════════════════════════════

// RC represents an RC cell balance.
type RC int64

// MinRC is the floor of any balance. Spends larger than the current
// balance truncate to this value rather than fail.
const MinRC RC = 0

// rcPerLevel is the original app's hand-tuned level divisor. Carried over
// unchanged as tuning data.
const rcPerLevel int64 = 1000

// IsValid checks if the RC value is within valid range.
func (r RC) IsValid() bool {
	return r >= MinRC
}

// Int64 returns the underlying int64 value.
func (r RC) Int64() int64 {
	return int64(r)
}

// Apply adds a signed delta and returns the result, floored at MinRC.
// Grants always land fully; a spend or penalty larger than the current
// balance is silently truncated, never rejected.
func (r RC) Apply(delta int64) RC {
	result := RC(int64(r) + delta)
	if result < MinRC {
		return MinRC
	}
	return result
}

// Level calculates the level derived from the balance: one level per
// rcPerLevel cells, starting at level 1.
func (r RC) Level() Level {
	if r < 0 {
		return MinLevel
	}
	return Level(int64(r)/rcPerLevel) + 1
}

// ProgressToNextLevel returns percentage progress within the current level (0-100).
func (r RC) ProgressToNextLevel() int {
	if r < 0 {
		return 0
	}
	return int((int64(r) % rcPerLevel) * 100 / rcPerLevel)
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Level represents a user's level, derived from the RC balance.
// It is never stored as independent truth.
type Level int

// MinLevel is the lowest level; a zero balance is level 1.
const MinLevel Level = 1

// IsValid checks if the level is valid.
func (l Level) IsValid() bool {
	return l >= MinLevel
}

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// Rank returns the rank tier for this level.
func (l Level) Rank() Rank {
	return RankForLevel(l)
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank is a derived tier label computed from level, used for display and
// opponent/reward weighting.
type Rank string

const (
	RankC   Rank = "C"
	RankB   Rank = "B"
	RankA   Rank = "A"
	RankS   Rank = "S"
	RankSP  Rank = "S+"
	RankSS  Rank = "SS"
	RankSSP Rank = "SS+"
	RankSSS Rank = "SSS"
)

// rankStep is one step of the monotonic level to rank table.
type rankStep struct {
	minLevel Level
	rank     Rank
}

// rankTable maps level thresholds to ranks. Steps are ordered from highest
// to lowest and must stay monotonic.
var rankTable = []rankStep{
	{20, RankSSS},
	{18, RankSSP},
	{15, RankSS},
	{12, RankSP},
	{10, RankS},
	{6, RankA},
	{4, RankB},
	{1, RankC},
}

// RankForLevel returns the rank tier for a level via the fixed step table.
func RankForLevel(level Level) Rank {
	for _, step := range rankTable {
		if level >= step.minLevel {
			return step.rank
		}
	}
	return RankC
}

// AllRanks returns every rank tier in ascending order.
func AllRanks() []Rank {
	return []Rank{RankC, RankB, RankA, RankS, RankSP, RankSS, RankSSP, RankSSS}
}

// Order returns the rank's position in ascending tier order, for sorting.
func (r Rank) Order() int {
	for i, known := range AllRanks() {
		if r == known {
			return i
		}
	}
	return -1
}

// IsValid checks if the rank is a known tier.
func (r Rank) IsValid() bool {
	for _, known := range AllRanks() {
		if r == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (r Rank) String() string {
	return string(r)
}

// ParseRank parses a rank tier from its string form.
func ParseRank(s string) (Rank, error) {
	r := Rank(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", NewDomainError("shared", "ParseRank", ErrInvalidInput, fmt.Sprintf("unknown rank %q", s))
	}
	return r, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Metric Value Object (lifetime counter names)
// ═══════════════════════════════════════════════════════════════════════════

// Metric names a lifetime counter on the user's progress record.
type Metric string

const (
	MetricTasksCompleted Metric = "tasksCompleted"
	MetricPomodoros      Metric = "pomodoros"
	MetricBattles        Metric = "battles"
	MetricBattlesWon     Metric = "battlesWon"
	MetricBattlesLost    Metric = "battlesLost"
	MetricJournalEntries Metric = "journalEntries"
	MetricLoginStreak    Metric = "loginStreak"
	MetricXP             Metric = "xp"
)

// Derived metrics name values computed from the ledger rather than stored in
// the counters map. Achievements may set thresholds on them, but they are not
// incrementable: IncrementCounter rejects them as unrecognized.
const (
	MetricRCBalance Metric = "rc"
	MetricLevel     Metric = "level"
)

// KnownMetrics returns every recognized counter metric.
func KnownMetrics() []Metric {
	return []Metric{
		MetricTasksCompleted,
		MetricPomodoros,
		MetricBattles,
		MetricBattlesWon,
		MetricBattlesLost,
		MetricJournalEntries,
		MetricLoginStreak,
		MetricXP,
	}
}

// IsValid checks if the metric is a recognized counter name.
// An unknown metric is a programming error upstream, never user input.
func (m Metric) IsValid() bool {
	for _, known := range KnownMetrics() {
		if m == known {
			return true
		}
	}
	return false
}

// IsDerived checks if the metric is computed from the balance instead of
// living in the counters map.
func (m Metric) IsDerived() bool {
	return m == MetricRCBalance || m == MetricLevel
}

// String returns the string representation.
func (m Metric) String() string {
	return string(m)
}

// ═══════════════════════════════════════════════════════════════════════════
// Reward Source
// ═══════════════════════════════════════════════════════════════════════════

// Source tags the origin of a reward for logging and analytics only.
// It is never used for authorization.
type Source string

const (
	SourceTask        Source = "task"
	SourcePomodoro    Source = "pomodoro"
	SourceJournal     Source = "journal"
	SourceBattle      Source = "battle"
	SourceAchievement Source = "achievement"
	SourceLogin       Source = "login"
)

// String returns the string representation.
func (s Source) String() string {
	return string(s)
}
