package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aprende-hub/mastery-engine/pkg/timeutil"
)

func TestReschedule_FreshTopicStrongScore(t *testing.T) {
	// score 85 on a fresh topic: level 0 -> 1, due = lastReviewed + 2 days.
	now := timeutil.Date(2026, 3, 14)

	entry := Entry{}.Reschedule(85, now)

	assert.Equal(t, 1, entry.Level)
	assert.Equal(t, now, entry.LastReviewed)
	assert.Equal(t, now.AddDate(0, 0, 2), entry.Due)
	assert.False(t, entry.IsScheduled)
}

func TestReschedule_LevelMovement(t *testing.T) {
	now := timeutil.Date(2026, 3, 14)

	tests := []struct {
		name      string
		level     int
		score     float64
		wantLevel int
	}{
		{"promote on 80", 2, 80, 3},
		{"hold between 60 and 80", 2, 70, 2},
		{"hold at exactly 60", 2, 60, 2},
		{"demote below 60", 2, 59.9, 1},
		{"demote floors at 0", 0, 10, 0},
		{"promote caps at table end", len(IntervalDays) - 1, 100, len(IntervalDays) - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := Entry{Level: tt.level}.Reschedule(tt.score, now)
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, now.AddDate(0, 0, IntervalDays[entry.Level]), entry.Due)
		})
	}
}

func TestReschedule_ClearsScheduledFlag(t *testing.T) {
	now := timeutil.Date(2026, 3, 14)
	entry := Entry{Level: 3, IsScheduled: true}

	updated := entry.Reschedule(90, now)

	assert.False(t, updated.IsScheduled)
	// The original must not be mutated.
	assert.True(t, entry.IsScheduled)
}

func TestDueOn_DayGranularity(t *testing.T) {
	today := timeutil.Date(2026, 3, 14)

	// Due late today still counts as due today.
	entry := Entry{Due: today.Add(22 * time.Hour)}
	assert.True(t, entry.DueOn(today))

	// Due yesterday is overdue, hence due.
	entry = Entry{Due: today.AddDate(0, 0, -1)}
	assert.True(t, entry.DueOn(today))

	// Due one minute after midnight tomorrow is not due today, even though
	// less than 24 hours away.
	entry = Entry{Due: today.AddDate(0, 0, 1).Add(time.Minute)}
	assert.False(t, entry.DueOn(today.Add(23*time.Hour)))

	// A zero due date is never due.
	assert.False(t, Entry{}.DueOn(today))
}

func TestNormalize_ClampsPersistedLevel(t *testing.T) {
	assert.Equal(t, 0, Entry{Level: -2}.Normalize().Level)
	assert.Equal(t, len(IntervalDays)-1, Entry{Level: 99}.Normalize().Level)
	assert.Equal(t, 4, Entry{Level: 4}.Normalize().Level)
}

func TestInterval_MatchesTable(t *testing.T) {
	assert.Equal(t, 24*time.Hour, Entry{Level: 0}.Interval())
	assert.Equal(t, 120*24*time.Hour, Entry{Level: len(IntervalDays) - 1}.Interval())
	// Out-of-range levels fall back to the nearest bound.
	assert.Equal(t, 24*time.Hour, Entry{Level: -1}.Interval())
}
