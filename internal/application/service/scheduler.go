package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aprende-hub/mastery-engine/internal/domain/shared"
	"github.com/aprende-hub/mastery-engine/internal/domain/srs"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/persistence"
	"github.com/aprende-hub/mastery-engine/pkg/retry"
	"github.com/aprende-hub/mastery-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW SCHEDULER
// Owns the spaced-repetition lifecycle: graded exams move topics through the
// interval ladder, and a daily sweep injects due topics into the student's
// agenda exactly once.
// ══════════════════════════════════════════════════════════════════════════════

// AgendaEvent is one review item injected into the student's study agenda.
type AgendaEvent struct {
	// ID is a unique identifier for the agenda entry.
	ID string `json:"id"`

	StudentID string `json:"studentId"`
	Subject   string `json:"subject"`
	Topic     string `json:"topic"`

	// Date is the day the review appears on, at platform midnight.
	Date time.Time `json:"date"`

	// Title is the display label for the agenda entry.
	Title string `json:"title"`
}

// AgendaSink receives agenda events. The production implementation writes to
// the platform calendar service; tests use an in-memory collector.
type AgendaSink interface {
	AddAgendaEvent(ctx context.Context, event AgendaEvent) error
}

// ScheduleReviewCommand applies a graded exam score to a topic's review plan.
type ScheduleReviewCommand struct {
	StudentID string
	Subject   string
	Topic     string

	// Score is the graded exam score, 0-100.
	Score float64
}

// Validate validates the command.
func (c ScheduleReviewCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("schedule_review: student_id is required")
	}
	if c.Subject == "" {
		return errors.New("schedule_review: subject is required")
	}
	if c.Topic == "" {
		return errors.New("schedule_review: topic is required")
	}
	if c.Score < 0 || c.Score > 100 {
		return fmt.Errorf("schedule_review: score out of range: %v", c.Score)
	}
	return nil
}

// ScheduleReviewResult is the outcome of scheduling a review.
type ScheduleReviewResult struct {
	StudentID string
	Subject   string
	Topic     string

	// Entry is the updated spaced-repetition entry.
	Entry srs.Entry
}

// AgendaSweepResult summarizes one due-review agenda sweep.
type AgendaSweepResult struct {
	StudentID string

	// Injected lists the agenda events added by this sweep. Topics already
	// marked as scheduled are skipped, so running the sweep twice on the
	// same day injects nothing new.
	Injected []AgendaEvent
}

// ReviewScheduler owns the spaced-repetition operations.
type ReviewScheduler struct {
	store     persistence.Store
	publisher shared.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewReviewScheduler creates a ReviewScheduler.
func NewReviewScheduler(store persistence.Store, publisher shared.EventPublisher, logger *slog.Logger) *ReviewScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewScheduler{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       timeutil.Now,
	}
}

// WithClock overrides the scheduler clock. Test hook.
func (s *ReviewScheduler) WithClock(now func() time.Time) *ReviewScheduler {
	s.now = now
	return s
}

// ScheduleNextReview applies a graded exam score to the topic's review entry:
// strong scores climb the interval ladder, weak ones fall back, and the next
// due date is recomputed either way. A topic graded for the first time starts
// from the bottom of the ladder.
func (s *ReviewScheduler) ScheduleNextReview(ctx context.Context, cmd ScheduleReviewCommand) (*ScheduleReviewResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	profile := loadProfile(ctx, s.store, s.logger, cmd.StudentID)

	entry, _ := profile.SrsEntry(cmd.Subject, cmd.Topic)
	updated := entry.Normalize().Reschedule(cmd.Score, s.now())
	profile.SetSrsEntry(cmd.Subject, cmd.Topic, updated)

	if err := s.store.Set(ctx, persistence.ProfileKey(cmd.StudentID), profile); err != nil {
		return nil, fmt.Errorf("schedule_review: save profile: %w", err)
	}

	s.addToRoster(ctx, cmd.StudentID)

	s.publisher.Publish(shared.NewReviewScheduledEvent(
		cmd.StudentID, cmd.Subject, cmd.Topic, updated.Level, updated.Due,
	))

	return &ScheduleReviewResult{
		StudentID: cmd.StudentID,
		Subject:   cmd.Subject,
		Topic:     cmd.Topic,
		Entry:     updated,
	}, nil
}

// UpdateAgendaWithDueReviews scans the student's review entries and injects
// an agenda event for every topic due today or overdue. Each entry is
// injected at most once per due date: the scheduled flag is set on success
// and only cleared again when the topic is next graded.
func (s *ReviewScheduler) UpdateAgendaWithDueReviews(ctx context.Context, studentID string, sink AgendaSink) (*AgendaSweepResult, error) {
	if studentID == "" {
		return nil, errors.New("agenda_sweep: student_id is required")
	}
	if sink == nil {
		return nil, errors.New("agenda_sweep: sink is required")
	}

	profile := loadProfile(ctx, s.store, s.logger, studentID)

	now := s.now()
	today := timeutil.StartOfDay(now)
	result := &AgendaSweepResult{StudentID: studentID}

	type dueTopic struct {
		subject string
		topic   string
		entry   srs.Entry
	}
	var due []dueTopic
	profile.EachSrsEntry(func(subject, topic string, entry srs.Entry) {
		entry = entry.Normalize()
		if entry.IsScheduled || !entry.DueOn(now) {
			return
		}
		due = append(due, dueTopic{subject: subject, topic: topic, entry: entry})
	})

	for _, d := range due {
		event := AgendaEvent{
			ID:        uuid.NewString(),
			StudentID: studentID,
			Subject:   d.subject,
			Topic:     d.topic,
			Date:      today,
			Title:     fmt.Sprintf("Repaso: %s", d.topic),
		}

		injectErr := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
			return sink.AddAgendaEvent(ctx, event)
		})
		if injectErr != nil {
			// Leave the entry unscheduled so the next sweep retries it.
			s.logger.Error("agenda injection failed",
				"student_id", studentID,
				"subject", d.subject,
				"topic", d.topic,
				"error", injectErr,
			)
			continue
		}

		entry := d.entry
		entry.IsScheduled = true
		profile.SetSrsEntry(d.subject, d.topic, entry)
		result.Injected = append(result.Injected, event)

		s.publisher.Publish(shared.NewReviewQueuedEvent(studentID, d.subject, d.topic))
	}

	if len(result.Injected) > 0 {
		if err := s.store.Set(ctx, persistence.ProfileKey(studentID), profile); err != nil {
			return nil, fmt.Errorf("agenda_sweep: save profile: %w", err)
		}
	}

	return result, nil
}

// rosterRecord is the set of students with at least one review plan. The
// nightly sweep iterates it instead of scanning every profile.
type rosterRecord struct {
	Students map[string]bool `json:"students"`
}

// addToRoster records that a student has a review plan. Best effort: a
// failed roster write only delays the student's first sweep until the next
// graded exam.
func (s *ReviewScheduler) addToRoster(ctx context.Context, studentID string) {
	var roster rosterRecord
	err := s.store.Get(ctx, persistence.RosterKey, &roster)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		s.logger.Warn("roster unreadable, rebuilding", "error", err)
	}
	if roster.Students == nil {
		roster.Students = make(map[string]bool)
	}
	if roster.Students[studentID] {
		return
	}
	roster.Students[studentID] = true

	if err := s.store.Set(ctx, persistence.RosterKey, roster); err != nil {
		s.logger.Warn("roster update failed", "student_id", studentID, "error", err)
	}
}

// SweepAll runs the due-review agenda sweep for every student on the roster.
// Used by the nightly worker tick.
func (s *ReviewScheduler) SweepAll(ctx context.Context, sink AgendaSink) (int, error) {
	var roster rosterRecord
	err := s.store.Get(ctx, persistence.RosterKey, &roster)
	if errors.Is(err, persistence.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("agenda_sweep: load roster: %w", err)
	}

	injected := 0
	for studentID := range roster.Students {
		res, err := s.UpdateAgendaWithDueReviews(ctx, studentID, sink)
		if err != nil {
			s.logger.Error("sweep failed for student", "student_id", studentID, "error", err)
			continue
		}
		injected += len(res.Injected)
	}
	return injected, nil
}

// GetReviewEntry returns the current review entry for a topic. The second
// return value is false when the topic has never been graded.
func (s *ReviewScheduler) GetReviewEntry(ctx context.Context, studentID, subject, topic string) (srs.Entry, bool, error) {
	if studentID == "" {
		return srs.Entry{}, false, errors.New("get_review: student_id is required")
	}

	profile := loadProfile(ctx, s.store, s.logger, studentID)

	entry, ok := profile.SrsEntry(subject, topic)
	return entry.Normalize(), ok, nil
}
