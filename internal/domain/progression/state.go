// Package progression implements the achievement and meta-achievement unlock
// state machine together with XP and streak bookkeeping. Every unlock is
// one-directional and permanent: once an id is awarded it is never removed
// or re-awarded, which is what makes concurrent re-evaluation safe without
// locking.
package progression

import (
	"time"

	"github.com/aprende-hub/mastery-engine/pkg/timeutil"
)

// XPPerLevel is how much XP one level spans.
const XPPerLevel = 1000

// Activity counter keys tracked on the state for achievement conditions.
const (
	CounterPractice          = "practice_completed"
	CounterReviews           = "reviews_completed"
	CounterDiagnostics       = "diagnostics_completed"
	CounterSessions          = "sessions_completed"
	CounterConfidenceReports = "confidence_reports"
)

// Awarded records a single achievement unlock.
type Awarded struct {
	AwardedAt time.Time `json:"awardedAt"`
	Category  Category  `json:"category"`
}

// MetaAwarded records a single meta-achievement unlock.
type MetaAwarded struct {
	AwardedAt time.Time `json:"awardedAt"`
}

// State is the per-student gamification state. It is persisted as one record
// and mutated only through its methods, all of which are idempotent where the
// spec requires it.
type State struct {
	StudentID string `json:"studentId"`

	// XP is the accumulated experience, never negative.
	XP int `json:"xp"`

	// Streak is the consecutive-day visit counter.
	Streak int `json:"streak"`

	// BestStreak is the highest streak ever reached.
	BestStreak int `json:"bestStreak"`

	// LastVisit is the day of the last recorded visit.
	LastVisit time.Time `json:"lastVisit"`

	// Achievements maps achievement id to its unlock record.
	Achievements map[string]Awarded `json:"achievements"`

	// MetaAchievements maps meta-achievement id to its unlock record.
	MetaAchievements map[string]MetaAwarded `json:"metaAchievements"`

	// Counters tracks activity tallies consulted by achievement conditions.
	Counters map[string]int `json:"counters,omitempty"`

	// LastMockScore is the most recent mock-exam score, 0-100.
	LastMockScore float64 `json:"lastMockScore"`

	// HasMockResult is whether any mock exam was ever recorded. A missing
	// mock result means "requirement not met", never an error.
	HasMockResult bool `json:"hasMockResult"`
}

// NewState returns a default-constructed state for a student. This is also
// the fallback when no persisted record exists yet.
func NewState(studentID string) *State {
	return &State{
		StudentID:        studentID,
		Achievements:     make(map[string]Awarded),
		MetaAchievements: make(map[string]MetaAwarded),
		Counters:         make(map[string]int),
	}
}

// Normalize repairs a persisted state: nil maps become empty, negative
// values reset. Used after loading so corrupted data degrades gracefully.
func (s *State) Normalize() {
	if s.Achievements == nil {
		s.Achievements = make(map[string]Awarded)
	}
	if s.MetaAchievements == nil {
		s.MetaAchievements = make(map[string]MetaAwarded)
	}
	if s.Counters == nil {
		s.Counters = make(map[string]int)
	}
	if s.XP < 0 {
		s.XP = 0
	}
	if s.Streak < 0 {
		s.Streak = 0
	}
	if s.BestStreak < s.Streak {
		s.BestStreak = s.Streak
	}
}

// Level returns the level derived from XP (level 1 at 0 XP).
func (s *State) Level() int {
	return s.XP/XPPerLevel + 1
}

// AddXP adds a non-negative XP amount and returns the new total.
func (s *State) AddXP(amount int) int {
	if amount > 0 {
		s.XP += amount
	}
	return s.XP
}

// Increment bumps an activity counter and returns the new value.
func (s *State) Increment(counter string) int {
	if s.Counters == nil {
		s.Counters = make(map[string]int)
	}
	s.Counters[counter]++
	return s.Counters[counter]
}

// Counter returns an activity counter value, zero when absent.
func (s *State) Counter(counter string) int {
	return s.Counters[counter]
}

// RecordMockResult stores the most recent mock-exam score.
func (s *State) RecordMockResult(score float64) {
	s.LastMockScore = score
	s.HasMockResult = true
}

// VisitResult describes the outcome of a daily visit touch.
type VisitResult struct {
	// Changed is whether the streak value changed at all.
	Changed bool

	// WasReset is whether the streak restarted at 1 after missed days.
	WasReset bool
}

// TouchVisit applies the daily-streak rule for a visit at the given time:
// the streak grows by one only when the last visit was exactly yesterday,
// restarts at 1 after any gap, and is untouched on a repeat visit today.
func (s *State) TouchVisit(now time.Time) VisitResult {
	if !s.LastVisit.IsZero() && timeutil.IsSameDay(s.LastVisit, now) {
		return VisitResult{}
	}

	var res VisitResult
	if !s.LastVisit.IsZero() && timeutil.IsConsecutiveDay(s.LastVisit, now) {
		s.Streak++
	} else {
		res.WasReset = s.Streak != 1
		s.Streak = 1
	}
	res.Changed = true

	if s.Streak > s.BestStreak {
		s.BestStreak = s.Streak
	}
	s.LastVisit = timeutil.StartOfDay(now)

	return res
}

// HasAchievement reports whether an achievement id is already awarded.
func (s *State) HasAchievement(id string) bool {
	_, ok := s.Achievements[id]
	return ok
}

// HasMeta reports whether a meta-achievement id is already awarded.
func (s *State) HasMeta(id string) bool {
	_, ok := s.MetaAchievements[id]
	return ok
}

// Award marks an achievement as unlocked. Returns false and leaves the state
// completely untouched when the id is already present, preserving the
// original AwardedAt.
func (s *State) Award(id string, category Category, at time.Time) bool {
	if s.HasAchievement(id) {
		return false
	}
	if s.Achievements == nil {
		s.Achievements = make(map[string]Awarded)
	}
	s.Achievements[id] = Awarded{AwardedAt: at, Category: category}
	return true
}

// AwardMeta marks a meta-achievement as unlocked, idempotently.
func (s *State) AwardMeta(id string, at time.Time) bool {
	if s.HasMeta(id) {
		return false
	}
	if s.MetaAchievements == nil {
		s.MetaAchievements = make(map[string]MetaAwarded)
	}
	s.MetaAchievements[id] = MetaAwarded{AwardedAt: at}
	return true
}
