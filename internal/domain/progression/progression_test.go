package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aprende-hub/mastery-engine/pkg/timeutil"
)

func TestTouchVisit_StreakRules(t *testing.T) {
	today := timeutil.Date(2026, 3, 14)
	yesterday := today.AddDate(0, 0, -1)

	t.Run("consecutive day increments by exactly one", func(t *testing.T) {
		s := NewState("s1")
		s.Streak = 9
		s.LastVisit = yesterday

		res := s.TouchVisit(today)

		assert.True(t, res.Changed)
		assert.False(t, res.WasReset)
		assert.Equal(t, 10, s.Streak)
	})

	t.Run("same day leaves streak untouched", func(t *testing.T) {
		s := NewState("s1")
		s.Streak = 5
		s.LastVisit = today

		res := s.TouchVisit(today.Add(8 * time.Hour))

		assert.False(t, res.Changed)
		assert.Equal(t, 5, s.Streak)
	})

	t.Run("gap resets streak to one", func(t *testing.T) {
		s := NewState("s1")
		s.Streak = 14
		s.LastVisit = today.AddDate(0, 0, -3)

		res := s.TouchVisit(today)

		assert.True(t, res.Changed)
		assert.True(t, res.WasReset)
		assert.Equal(t, 1, s.Streak)
	})

	t.Run("first ever visit starts at one", func(t *testing.T) {
		s := NewState("s1")
		res := s.TouchVisit(today)

		assert.True(t, res.Changed)
		assert.Equal(t, 1, s.Streak)
	})

	t.Run("best streak tracks the maximum", func(t *testing.T) {
		s := NewState("s1")
		s.Streak = 9
		s.BestStreak = 9
		s.LastVisit = yesterday

		s.TouchVisit(today)
		assert.Equal(t, 10, s.BestStreak)

		s.LastVisit = today.AddDate(0, 0, 5)
		s.TouchVisit(today.AddDate(0, 0, 10))
		assert.Equal(t, 1, s.Streak)
		assert.Equal(t, 10, s.BestStreak)
	})
}

func TestAward_IdempotentAndPermanent(t *testing.T) {
	s := NewState("s1")
	first := timeutil.Date(2026, 3, 14)
	later := first.AddDate(0, 0, 5)

	assert.True(t, s.Award("ritmo_3", CategoryHabit, first))
	assert.False(t, s.Award("ritmo_3", CategoryHabit, later), "second award must be rejected")

	// AwardedAt must be unchanged by the rejected re-award.
	assert.Equal(t, first, s.Achievements["ritmo_3"].AwardedAt)

	assert.True(t, s.AwardMeta("maestria", first))
	assert.False(t, s.AwardMeta("maestria", later))
	assert.Equal(t, first, s.MetaAchievements["maestria"].AwardedAt)
}

func TestAntiGrindCount_CapsPerCategory(t *testing.T) {
	s := NewState("s1")
	at := timeutil.Date(2026, 3, 14)

	// Five achievements all in the practice category count as at most two.
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		s.Award(id, CategoryPractice, at)
	}
	assert.Equal(t, 2, AntiGrindCount(s))

	// Breadth raises the count where depth does not.
	s.Award("h1", CategoryHabit, at)
	s.Award("r1", CategoryReview, at)
	assert.Equal(t, 4, AntiGrindCount(s))
}

func TestMetaSatisfied(t *testing.T) {
	at := timeutil.Date(2026, 3, 14)

	newStateWithBreadth := func(n int) *State {
		s := NewState("s1")
		categories := []Category{
			CategoryDiagnostic, CategoryHabit, CategoryMockExam,
			CategoryPractice, CategoryReview, CategoryCognition,
		}
		for i := 0; i < n; i++ {
			s.Award(string(rune('a'+i)), categories[i%len(categories)], at)
		}
		return s
	}

	meta := MetaDefinition{ID: "m", BaseAchievements: 4, MinStreak: 7, MinMockAccuracy: 70}

	s := newStateWithBreadth(4)
	s.Streak = 7
	s.RecordMockResult(75)
	assert.True(t, meta.Satisfied(s))

	t.Run("missing mock result means not met", func(t *testing.T) {
		s := newStateWithBreadth(4)
		s.Streak = 7
		assert.False(t, meta.Satisfied(s))
	})

	t.Run("streak below requirement", func(t *testing.T) {
		s := newStateWithBreadth(4)
		s.Streak = 6
		s.RecordMockResult(75)
		assert.False(t, meta.Satisfied(s))
	})

	t.Run("zero requirements are skipped", func(t *testing.T) {
		loose := MetaDefinition{ID: "m2", BaseAchievements: 2}
		s := newStateWithBreadth(2)
		assert.True(t, loose.Satisfied(s))
	})
}

func TestLevel_DerivedFromXP(t *testing.T) {
	s := NewState("s1")
	assert.Equal(t, 1, s.Level())

	s.AddXP(999)
	assert.Equal(t, 1, s.Level())

	s.AddXP(1)
	assert.Equal(t, 2, s.Level())

	// Negative amounts are ignored.
	s.AddXP(-500)
	assert.Equal(t, 1000, s.XP)
}

func TestNormalize_RepairsCorruptState(t *testing.T) {
	s := &State{StudentID: "s1", XP: -10, Streak: -2}
	s.Normalize()

	assert.Equal(t, 0, s.XP)
	assert.Equal(t, 0, s.Streak)
	assert.NotNil(t, s.Achievements)
	assert.NotNil(t, s.MetaAchievements)
	assert.NotNil(t, s.Counters)
}

func TestCatalog_ConditionsUseSafeDefaults(t *testing.T) {
	// A fresh state satisfies no achievement condition.
	s := NewState("s1")
	for _, def := range Catalog() {
		assert.False(t, def.Check(s), "fresh state should not satisfy %s", def.ID)
	}

	// ritmo_10 unlocks at streak 10.
	s.Streak = 10
	def, ok := FindDefinition("ritmo_10")
	assert.True(t, ok)
	assert.True(t, def.Check(s))
}
