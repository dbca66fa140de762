// Package timeutil provides timezone utilities for the Aprende Hub mastery
// engine. All day-granularity decisions (streaks, daily usage counters, SRS
// due dates) are made against the platform timezone, not the server clock.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// PlatformTZ is the platform timezone (UTC-6, no DST).
// Mexico abolished DST in 2022, so this is constant year-round.
var PlatformTZ = time.FixedZone("America/Mexico_City", -6*60*60)

// Now returns the current time in the platform timezone.
func Now() time.Time {
	return time.Now().In(PlatformTZ)
}

// ToPlatform converts a time to the platform timezone.
func ToPlatform(t time.Time) time.Time {
	return t.In(PlatformTZ)
}

// Date creates a time in the platform timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, PlatformTZ)
}

// StartOfDay returns the start of the day (00:00:00) in the platform timezone.
// This is the normalization used for every "due today" and "same day" check:
// comparing raw timestamps would let the time of day skew day boundaries.
func StartOfDay(t time.Time) time.Time {
	local := ToPlatform(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, PlatformTZ)
}

// IsSameDay checks if two times fall on the same platform-timezone day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := ToPlatform(t1), ToPlatform(t2)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// IsConsecutiveDay checks if t2 is the day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	return IsSameDay(ToPlatform(t1).AddDate(0, 0, 1), t2)
}

// DaysBetween returns the number of whole days between two times,
// measured at day granularity (always non-negative).
func DaysBetween(t1, t2 time.Time) int {
	a := StartOfDay(t1)
	b := StartOfDay(t2)
	days := int(b.Sub(a).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// OnOrBefore reports whether the day of t is on or before the day of ref.
func OnOrBefore(t, ref time.Time) bool {
	return !StartOfDay(t).After(StartOfDay(ref))
}

// FormatDate is the canonical date format (YYYY-MM-DD) used in record keys.
const FormatDate = "2006-01-02"

// DateKey formats a time as a YYYY-MM-DD key in the platform timezone.
// Daily records (usage counters) are namespaced by this key, so a new
// calendar day starts a fresh record without any explicit reset.
func DateKey(t time.Time) string {
	return ToPlatform(t).Format(FormatDate)
}

// ParseDate parses a YYYY-MM-DD string in the platform timezone.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, PlatformTZ)
}
