package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSameDay(t *testing.T) {
	morning := time.Date(2026, 3, 1, 0, 0, 1, 0, time.UTC)
	night := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)
	nextDay := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(morning, night))
	assert.False(t, SameDay(night, nextDay))
}

func TestSameDay_NormalizesTimezones(t *testing.T) {
	east := time.FixedZone("UTC+5", 5*3600)
	// 03:00 on March 2nd in UTC+5 is 22:00 on March 1st in UTC.
	local := time.Date(2026, 3, 2, 3, 0, 0, 0, east)
	utc := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(local, utc))
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2026, 3, 1, 23, 50, 0, 0, time.UTC)

	// Clock times do not matter, only calendar days.
	assert.Equal(t, 0, DaysBetween(base, base.Add(5*time.Minute)))
	assert.Equal(t, 1, DaysBetween(base, base.Add(15*time.Minute)))
	assert.Equal(t, 7, DaysBetween(base, base.AddDate(0, 0, 7)))
	assert.Equal(t, -1, DaysBetween(base, base.AddDate(0, 0, -1)))
}

func TestStartAndEndOfDay(t *testing.T) {
	moment := time.Date(2026, 3, 1, 14, 30, 45, 123, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), StartOfDay(moment))
	assert.Equal(t, time.Date(2026, 3, 1, 23, 59, 59, 999999999, time.UTC), EndOfDay(moment))
}

func TestFormatDateStr(t *testing.T) {
	moment := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01", FormatDateStr(moment))
}
