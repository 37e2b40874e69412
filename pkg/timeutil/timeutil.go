// Package timeutil provides calendar-day arithmetic for the login-streak
// logic. Streak comparisons are done on UTC calendar days so a user in any
// timezone gets consistent results across devices.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// StartOfDay returns the start of the UTC calendar day (00:00:00) containing t.
func StartOfDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the UTC calendar day (23:59:59.999999999) containing t.
func EndOfDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 23, 59, 59, 999999999, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.Month() == bu.Month() && au.Day() == bu.Day()
}

// DaysBetween returns the number of whole UTC calendar days from a to b.
// Consecutive days return 1, regardless of the clock times involved.
// Negative if b is on an earlier day than a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// DaysSince returns the number of whole UTC calendar days from t until now.
func DaysSince(t time.Time) int {
	return DaysBetween(t, time.Now())
}

// IsToday reports whether t falls on the current UTC calendar day.
func IsToday(t time.Time) bool {
	return SameDay(t, time.Now())
}

// IsYesterday reports whether t falls on the previous UTC calendar day.
func IsYesterday(t time.Time) bool {
	return DaysBetween(t, time.Now()) == 1
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTimeSeconds is the standard datetime format with seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
)

// FormatDateStr formats a time as a UTC date string (YYYY-MM-DD).
func FormatDateStr(t time.Time) string {
	return t.UTC().Format(FormatDate)
}
