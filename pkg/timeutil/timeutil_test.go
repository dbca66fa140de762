package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDay_NormalizesTimeOfDay(t *testing.T) {
	late := time.Date(2026, 3, 14, 23, 45, 12, 0, PlatformTZ)
	early := time.Date(2026, 3, 14, 0, 0, 1, 0, PlatformTZ)

	assert.Equal(t, StartOfDay(late), StartOfDay(early))
	assert.Equal(t, 0, StartOfDay(late).Hour())
}

func TestIsSameDay_AcrossZones(t *testing.T) {
	// 01:30 UTC on March 15 is still March 14 in the platform timezone.
	utcMorning := time.Date(2026, 3, 15, 1, 30, 0, 0, time.UTC)
	localEvening := time.Date(2026, 3, 14, 19, 30, 0, 0, PlatformTZ)

	assert.True(t, IsSameDay(utcMorning, localEvening))
	assert.False(t, IsSameDay(utcMorning, localEvening.AddDate(0, 0, 1)))
}

func TestIsConsecutiveDay(t *testing.T) {
	day := Date(2026, 3, 14)

	assert.True(t, IsConsecutiveDay(day, day.AddDate(0, 0, 1)))
	assert.False(t, IsConsecutiveDay(day, day))
	assert.False(t, IsConsecutiveDay(day, day.AddDate(0, 0, 2)))

	// Time of day must not matter.
	assert.True(t, IsConsecutiveDay(day.Add(23*time.Hour), day.AddDate(0, 0, 1)))
}

func TestDaysBetween(t *testing.T) {
	a := Date(2026, 3, 14)
	b := Date(2026, 3, 20)

	assert.Equal(t, 6, DaysBetween(a, b))
	assert.Equal(t, 6, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a.Add(10*time.Hour)))
}

func TestOnOrBefore(t *testing.T) {
	today := Date(2026, 3, 14)

	assert.True(t, OnOrBefore(today.AddDate(0, 0, -1), today))
	// Due later today still counts as due today.
	assert.True(t, OnOrBefore(today.Add(22*time.Hour), today))
	assert.False(t, OnOrBefore(today.AddDate(0, 0, 1), today))
}

func TestDateKey(t *testing.T) {
	assert.Equal(t, "2026-03-14", DateKey(Date(2026, 3, 14).Add(15*time.Hour)))

	parsed, err := ParseDate("2026-03-14")
	assert.NoError(t, err)
	assert.Equal(t, Date(2026, 3, 14), parsed)
}
