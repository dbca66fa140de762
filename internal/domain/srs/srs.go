// Package srs implements the Leitner-style spaced-repetition entries: one
// per (student, topic), with a fixed leveled interval table. Level moves up
// on strong exam scores and down on weak ones; the due date is always
// recomputed from the interval table.
package srs

import (
	"time"

	"github.com/aprende-hub/mastery-engine/pkg/timeutil"
)

// IntervalDays is the fixed review interval table, indexed by level.
var IntervalDays = []int{1, 2, 4, 8, 15, 30, 60, 120}

// Score thresholds for level movement.
const (
	PromoteScore = 80.0
	DemoteScore  = 60.0
)

// Entry is the spaced-repetition state for one (student, topic).
type Entry struct {
	// Level is the index into the interval table, 0..len-1.
	Level int `json:"level"`

	// LastReviewed is when the topic was last graded.
	LastReviewed time.Time `json:"lastReviewed"`

	// Due is when the next review is due: lastReviewed + interval[level].
	Due time.Time `json:"due"`

	// IsScheduled guards against duplicate agenda insertion. It is reset
	// exactly when a new due date is computed and set exactly once when the
	// scheduler injects the agenda item.
	IsScheduled bool `json:"isScheduled"`
}

// Reschedule applies a graded exam score to the entry: the level moves one
// step up for a strong score, one step down for a weak one, and the due date
// is recomputed from the interval table. The scheduled flag is cleared so the
// next agenda sweep picks the entry up again. The receiver is not mutated.
//
// A zero-value Entry is a valid starting point for a topic's first graded
// exam: level 0, never reviewed.
func (e Entry) Reschedule(score float64, now time.Time) Entry {
	updated := e

	switch {
	case score >= PromoteScore:
		if updated.Level < len(IntervalDays)-1 {
			updated.Level++
		}
	case score < DemoteScore:
		if updated.Level > 0 {
			updated.Level--
		}
	}

	updated.LastReviewed = now
	updated.Due = now.AddDate(0, 0, IntervalDays[updated.Level])
	updated.IsScheduled = false

	return updated
}

// Interval returns the current review interval for the entry.
func (e Entry) Interval() time.Duration {
	level := e.Level
	if level < 0 {
		level = 0
	}
	if level >= len(IntervalDays) {
		level = len(IntervalDays) - 1
	}
	return time.Duration(IntervalDays[level]) * 24 * time.Hour
}

// DueOn reports whether the entry is due on the given day. Both sides are
// normalized to day granularity so the time of day cannot trigger a review
// early or late.
func (e Entry) DueOn(day time.Time) bool {
	if e.Due.IsZero() {
		return false
	}
	return timeutil.OnOrBefore(e.Due, day)
}

// Normalize clamps a persisted entry's level back into the table bounds.
func (e Entry) Normalize() Entry {
	if e.Level < 0 {
		e.Level = 0
	}
	if e.Level >= len(IntervalDays) {
		e.Level = len(IntervalDays) - 1
	}
	return e
}
