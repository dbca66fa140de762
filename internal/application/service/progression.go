package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aprende-hub/mastery-engine/internal/domain/progression"
	"github.com/aprende-hub/mastery-engine/internal/domain/shared"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/persistence"
	"github.com/aprende-hub/mastery-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION ENGINE
// Owns XP, levels, streaks and the achievement catalog. Every state change
// runs the achievement evaluation to a fixed point, because an unlock's XP
// bonus can itself satisfy further achievements or meta-achievements.
// ══════════════════════════════════════════════════════════════════════════════

// Activity XP granted for completed work, before any achievement bonuses.
const (
	xpPerPractice         = 10
	xpPerReview           = 20
	xpPerDiagnostic       = 30
	xpPerSession          = 25
	xpPerMockExam         = 50
	xpPerConfidenceReport = 5
)

// maxEvalPasses bounds the achievement fixed-point loop. The catalog is
// finite and every pass that continues must award something, so the loop
// terminates well under this bound; the cap guards against future catalog
// bugs turning it into an infinite loop.
const maxEvalPasses = 8

// ProgressionResult reports what one progression operation changed.
type ProgressionResult struct {
	StudentID string

	// XP and Level after the operation.
	XP    int
	Level int

	// Streak after the operation.
	Streak int

	// StreakChanged and StreakReset describe the visit outcome when the
	// operation touched the streak.
	StreakChanged bool
	StreakReset   bool

	// UnlockedAchievements lists achievement ids unlocked by this operation.
	UnlockedAchievements []string

	// UnlockedMetas lists meta-achievement ids unlocked by this operation.
	UnlockedMetas []string
}

// ProgressionEngine owns the gamification state machine.
type ProgressionEngine struct {
	store     persistence.Store
	publisher shared.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewProgressionEngine creates a ProgressionEngine.
func NewProgressionEngine(store persistence.Store, publisher shared.EventPublisher, logger *slog.Logger) *ProgressionEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressionEngine{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       timeutil.Now,
	}
}

// WithClock overrides the engine clock. Test hook.
func (e *ProgressionEngine) WithClock(now func() time.Time) *ProgressionEngine {
	e.now = now
	return e
}

// TouchStreak records a daily visit: the streak grows on the first visit of
// a day that follows a visit yesterday, resets after a gap, and is untouched
// on repeat visits the same day.
func (e *ProgressionEngine) TouchStreak(ctx context.Context, studentID string) (*ProgressionResult, error) {
	return e.mutate(ctx, studentID, func(s *progression.State, res *ProgressionResult, events *[]shared.Event) {
		visit := s.TouchVisit(e.now())
		res.StreakChanged = visit.Changed
		res.StreakReset = visit.WasReset
		if visit.Changed {
			*events = append(*events, shared.NewStreakUpdatedEvent(studentID, s.Streak, s.BestStreak, visit.WasReset))
		}
	})
}

// AddXP grants XP from an external source (lesson content, manual grants).
// Negative amounts are ignored.
func (e *ProgressionEngine) AddXP(ctx context.Context, studentID string, amount int, source string) (*ProgressionResult, error) {
	return e.mutate(ctx, studentID, func(s *progression.State, res *ProgressionResult, events *[]shared.Event) {
		e.grantXP(s, amount, source, events)
	})
}

// RecordPracticeCompleted counts one finished practice set.
func (e *ProgressionEngine) RecordPracticeCompleted(ctx context.Context, studentID string) (*ProgressionResult, error) {
	return e.recordActivity(ctx, studentID, progression.CounterPractice, xpPerPractice, "practice")
}

// RecordReviewCompleted counts one finished scheduled review.
func (e *ProgressionEngine) RecordReviewCompleted(ctx context.Context, studentID string) (*ProgressionResult, error) {
	return e.recordActivity(ctx, studentID, progression.CounterReviews, xpPerReview, "review")
}

// RecordDiagnosticCompleted counts one finished diagnostic.
func (e *ProgressionEngine) RecordDiagnosticCompleted(ctx context.Context, studentID string) (*ProgressionResult, error) {
	return e.recordActivity(ctx, studentID, progression.CounterDiagnostics, xpPerDiagnostic, "diagnostic")
}

// RecordSessionCompleted counts one finished tutoring session.
func (e *ProgressionEngine) RecordSessionCompleted(ctx context.Context, studentID string) (*ProgressionResult, error) {
	return e.recordActivity(ctx, studentID, progression.CounterSessions, xpPerSession, "session")
}

// RecordConfidenceReport counts one self-reported confidence rating.
func (e *ProgressionEngine) RecordConfidenceReport(ctx context.Context, studentID string) (*ProgressionResult, error) {
	return e.recordActivity(ctx, studentID, progression.CounterConfidenceReports, xpPerConfidenceReport, "confidence")
}

// RecordMockExam stores a mock-exam score and grants its activity XP.
func (e *ProgressionEngine) RecordMockExam(ctx context.Context, studentID string, score float64) (*ProgressionResult, error) {
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("progression: mock score out of range: %v", score)
	}
	return e.mutate(ctx, studentID, func(s *progression.State, res *ProgressionResult, events *[]shared.Event) {
		s.RecordMockResult(score)
		e.grantXP(s, xpPerMockExam, "mock_exam", events)
	})
}

// GetState returns the student's progression state.
func (e *ProgressionEngine) GetState(ctx context.Context, studentID string) (*progression.State, error) {
	if studentID == "" {
		return nil, errors.New("progression: student_id is required")
	}
	return e.loadState(ctx, studentID), nil
}

func (e *ProgressionEngine) recordActivity(ctx context.Context, studentID, counter string, xp int, source string) (*ProgressionResult, error) {
	return e.mutate(ctx, studentID, func(s *progression.State, res *ProgressionResult, events *[]shared.Event) {
		s.Increment(counter)
		e.grantXP(s, xp, source, events)
	})
}

// mutate is the shared load/apply/evaluate/save/publish cycle. The mutation
// runs first, then achievements are evaluated to a fixed point, the state is
// saved once, and all accumulated events are published only after the save
// succeeded.
func (e *ProgressionEngine) mutate(ctx context.Context, studentID string, apply func(*progression.State, *ProgressionResult, *[]shared.Event)) (*ProgressionResult, error) {
	if studentID == "" {
		return nil, errors.New("progression: student_id is required")
	}

	state := e.loadState(ctx, studentID)
	levelBefore := state.Level()

	result := &ProgressionResult{StudentID: studentID}
	events := make([]shared.Event, 0, 4)

	apply(state, result, &events)
	e.evaluate(state, result, &events)

	if state.Level() > levelBefore {
		events = append(events, shared.NewLevelUpEvent(studentID, levelBefore, state.Level()))
	}

	if err := e.store.Set(ctx, persistence.GamStateKey(studentID), state); err != nil {
		return nil, fmt.Errorf("progression: save state: %w", err)
	}

	for _, event := range events {
		e.publisher.Publish(event)
	}

	result.XP = state.XP
	result.Level = state.Level()
	result.Streak = state.Streak

	return result, nil
}

// evaluate runs the achievement catalog to a fixed point: a pass that awards
// anything (and therefore may have granted XP or changed the anti-grind
// count) triggers another pass, until a pass awards nothing or the pass cap
// is hit.
func (e *ProgressionEngine) evaluate(s *progression.State, res *ProgressionResult, events *[]shared.Event) {
	now := e.now()

	for pass := 0; pass < maxEvalPasses; pass++ {
		awarded := false

		for _, def := range progression.Catalog() {
			if s.HasAchievement(def.ID) || !def.Check(s) {
				continue
			}
			if !s.Award(def.ID, def.Category, now) {
				continue
			}
			awarded = true
			res.UnlockedAchievements = append(res.UnlockedAchievements, def.ID)
			*events = append(*events, shared.NewAchievementUnlockedEvent(s.StudentID, def.ID, string(def.Category), def.XPBonus))
			e.grantXP(s, def.XPBonus, "achievement:"+def.ID, events)
		}

		for _, meta := range progression.MetaCatalog() {
			if s.HasMeta(meta.ID) || !meta.Satisfied(s) {
				continue
			}
			if !s.AwardMeta(meta.ID, now) {
				continue
			}
			awarded = true
			res.UnlockedMetas = append(res.UnlockedMetas, meta.ID)
			*events = append(*events, shared.NewMetaAchievementUnlockedEvent(s.StudentID, meta.ID, meta.XPBonus))
			e.grantXP(s, meta.XPBonus, "meta:"+meta.ID, events)
		}

		if !awarded {
			return
		}
	}

	e.logger.Warn("achievement evaluation hit pass cap", "student_id", s.StudentID)
}

// grantXP adds XP and records the gain event. Zero or negative grants are a
// no-op.
func (e *ProgressionEngine) grantXP(s *progression.State, amount int, source string, events *[]shared.Event) {
	if amount <= 0 {
		return
	}
	total := s.AddXP(amount)
	*events = append(*events, shared.NewXPGainedEvent(s.StudentID, amount, total, source))
}

// loadState reads the progression state, starting from a fresh state on a
// miss or an unreadable record.
func (e *ProgressionEngine) loadState(ctx context.Context, studentID string) *progression.State {
	var state progression.State
	err := e.store.Get(ctx, persistence.GamStateKey(studentID), &state)
	switch {
	case err == nil:
		state.StudentID = studentID
		state.Normalize()
		return &state
	case errors.Is(err, persistence.ErrNotFound):
		return progression.NewState(studentID)
	default:
		e.logger.Warn("progression state unreadable, using defaults",
			"student_id", studentID,
			"error", err,
		)
		return progression.NewState(studentID)
	}
}
