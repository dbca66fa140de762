// Package service contains the engine's application services: the write-side
// operations that load a student record, apply domain rules, persist the
// result, and publish the domain events other modules react to.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aprende-hub/mastery-engine/internal/domain/shared"
	"github.com/aprende-hub/mastery-engine/internal/domain/skill"
	"github.com/aprende-hub/mastery-engine/internal/domain/student"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/persistence"
	"github.com/aprende-hub/mastery-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SKILL SERVICE
// Maintains the per-subtopic skill records inside the student profile and
// adjusts them after every graded answer and every completed session.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateSkillCommand describes one graded answer to fold into a skill record.
type UpdateSkillCommand struct {
	// StudentID is the student whose profile is updated.
	StudentID string

	// Subject is the subject area (e.g. "matematicas").
	Subject string

	// Subtopic is the skill node within the subject.
	Subtopic string

	// IsCorrect is whether the answer was correct.
	IsCorrect bool

	// QuestionDifficulty is the difficulty of the answered item, 1.0-5.0.
	QuestionDifficulty float64

	// Confidence is the self-reported confidence (1-3), 0 when not reported.
	Confidence int

	// Source labels where the answer came from (practice, diagnostic, exam).
	Source string
}

// Validate validates the command.
func (c UpdateSkillCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("update_skill: student_id is required")
	}
	if c.Subject == "" {
		return errors.New("update_skill: subject is required")
	}
	if c.Subtopic == "" {
		return errors.New("update_skill: subtopic is required")
	}
	return nil
}

// UpdateSessionSkillCommand blends a finished session into a skill record.
type UpdateSessionSkillCommand struct {
	StudentID string
	Subject   string
	Subtopic  string

	// ExitTicketScore is the end-of-session check score, 0-100.
	ExitTicketScore float64

	// PracticeAccuracy is the in-session practice accuracy, 0-100.
	PracticeAccuracy float64
}

// Validate validates the command.
func (c UpdateSessionSkillCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("update_session_skill: student_id is required")
	}
	if c.Subject == "" {
		return errors.New("update_session_skill: subject is required")
	}
	if c.Subtopic == "" {
		return errors.New("update_session_skill: subtopic is required")
	}
	return nil
}

// UpdateSkillResult is the outcome of a skill update.
type UpdateSkillResult struct {
	StudentID string
	Subject   string
	Subtopic  string

	// Record is the updated skill record.
	Record skill.Record

	// AccuracyDelta is the change in rolling accuracy.
	AccuracyDelta float64
}

// SkillService owns the skill-model operations.
type SkillService struct {
	store     persistence.Store
	publisher shared.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewSkillService creates a SkillService.
func NewSkillService(store persistence.Store, publisher shared.EventPublisher, logger *slog.Logger) *SkillService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SkillService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       timeutil.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *SkillService) WithClock(now func() time.Time) *SkillService {
	s.now = now
	return s
}

// UpdateSkill folds one graded answer into the student's skill record and
// persists the profile. A missing or unreadable profile degrades to default
// values instead of failing the answer flow.
func (s *SkillService) UpdateSkill(ctx context.Context, cmd UpdateSkillCommand) (*UpdateSkillResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	profile := loadProfile(ctx, s.store, s.logger, cmd.StudentID)

	rec := profile.Skill(cmd.Subject, cmd.Subtopic).Normalize()
	updated, delta := rec.ApplyAnswer(skill.AnswerInput{
		IsCorrect:          cmd.IsCorrect,
		QuestionDifficulty: cmd.QuestionDifficulty,
		Confidence:         cmd.Confidence,
	}, s.now())
	profile.SetSkill(cmd.Subject, cmd.Subtopic, updated)

	if err := s.store.Set(ctx, persistence.ProfileKey(cmd.StudentID), profile); err != nil {
		return nil, fmt.Errorf("update_skill: save profile: %w", err)
	}

	s.publisher.Publish(shared.NewSkillUpdatedEvent(
		cmd.StudentID, cmd.Subject, cmd.Subtopic, delta, updated.Accuracy, cmd.Source,
	))

	return &UpdateSkillResult{
		StudentID:     cmd.StudentID,
		Subject:       cmd.Subject,
		Subtopic:      cmd.Subtopic,
		Record:        updated,
		AccuracyDelta: delta,
	}, nil
}

// UpdateSkillAfterSession blends a completed session into the student's
// skill record and persists the profile.
func (s *SkillService) UpdateSkillAfterSession(ctx context.Context, cmd UpdateSessionSkillCommand) (*UpdateSkillResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	profile := loadProfile(ctx, s.store, s.logger, cmd.StudentID)

	rec := profile.Skill(cmd.Subject, cmd.Subtopic).Normalize()
	updated, delta := rec.ApplySession(skill.SessionOutcome{
		ExitTicketScore:  cmd.ExitTicketScore,
		PracticeAccuracy: cmd.PracticeAccuracy,
	}, s.now())
	profile.SetSkill(cmd.Subject, cmd.Subtopic, updated)

	if err := s.store.Set(ctx, persistence.ProfileKey(cmd.StudentID), profile); err != nil {
		return nil, fmt.Errorf("update_session_skill: save profile: %w", err)
	}

	s.publisher.Publish(shared.NewSkillUpdatedEvent(
		cmd.StudentID, cmd.Subject, cmd.Subtopic, delta, updated.Accuracy, "session",
	))

	return &UpdateSkillResult{
		StudentID:     cmd.StudentID,
		Subject:       cmd.Subject,
		Subtopic:      cmd.Subtopic,
		Record:        updated,
		AccuracyDelta: delta,
	}, nil
}

// GetSkill returns the current skill record for a subtopic, defaults when
// the student has never touched it.
func (s *SkillService) GetSkill(ctx context.Context, studentID, subject, subtopic string) (skill.Record, error) {
	if studentID == "" {
		return skill.Record{}, errors.New("get_skill: student_id is required")
	}

	profile := loadProfile(ctx, s.store, s.logger, studentID)
	return profile.Skill(subject, subtopic).Normalize(), nil
}

// loadProfile reads a student profile, falling back to a fresh profile on a
// miss or an unreadable record. A corrupt record is logged and replaced on
// the next save rather than blocking the student.
func loadProfile(ctx context.Context, store persistence.Store, logger *slog.Logger, studentID string) *student.Profile {
	var profile student.Profile
	err := store.Get(ctx, persistence.ProfileKey(studentID), &profile)
	switch {
	case err == nil:
		profile.StudentID = studentID
		return &profile
	case errors.Is(err, persistence.ErrNotFound):
		return student.NewProfile(studentID)
	default:
		logger.Warn("profile unreadable, using defaults",
			"student_id", studentID,
			"error", err,
		)
		return student.NewProfile(studentID)
	}
}
