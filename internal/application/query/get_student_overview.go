// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aprende-hub/mastery-engine/internal/domain/fairuse"
	"github.com/aprende-hub/mastery-engine/internal/domain/progression"
	"github.com/aprende-hub/mastery-engine/internal/domain/srs"
	"github.com/aprende-hub/mastery-engine/internal/domain/student"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/persistence"
	"github.com/aprende-hub/mastery-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT OVERVIEW QUERY
// Composes the read model the tutor surface renders on a student's home
// screen: skill levels per subject, pending reviews, gamification state and
// today's fair-use standing. Pure read path: nothing here mutates state or
// publishes events.
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentOverviewQuery contains the parameters of an overview request.
type GetStudentOverviewQuery struct {
	// StudentID is the student to build the overview for.
	StudentID string

	// Subject limits the skill section to one subject (empty = all).
	Subject string

	// IncludeReviews includes the pending spaced-repetition reviews.
	IncludeReviews bool

	// IncludeUsage includes today's fair-use state.
	IncludeUsage bool
}

// Validate checks the query parameters.
func (q *GetStudentOverviewQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("student_id is required")
	}
	return nil
}

// SkillDTO is one subtopic's mastery snapshot.
type SkillDTO struct {
	Subject     string    `json:"subject"`
	Subtopic    string    `json:"subtopic"`
	Accuracy    float64   `json:"accuracy"`
	Difficulty  float64   `json:"difficulty"`
	LastUpdated time.Time `json:"last_updated"`
}

// ReviewDTO is one pending spaced-repetition review.
type ReviewDTO struct {
	Subject   string    `json:"subject"`
	Topic     string    `json:"topic"`
	Level     int       `json:"level"`
	Due       time.Time `json:"due"`
	IsOverdue bool      `json:"is_overdue"`
}

// AchievementDTO is one unlocked achievement, newest first.
type AchievementDTO struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Category   string    `json:"category,omitempty"`
	IsMeta     bool      `json:"is_meta"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// ProgressionDTO is the gamification section of the overview.
type ProgressionDTO struct {
	XP           int              `json:"xp"`
	Level        int              `json:"level"`
	Streak       int              `json:"streak"`
	BestStreak   int              `json:"best_streak"`
	Achievements []AchievementDTO `json:"achievements"`
}

// UsageDTO is today's fair-use standing.
type UsageDTO struct {
	Count     int    `json:"count"`
	Limit     int    `json:"limit"`
	Tier      string `json:"tier"`
	Remaining int    `json:"remaining"`
}

// GetStudentOverviewResult is the composed overview.
type GetStudentOverviewResult struct {
	StudentID   string         `json:"student_id"`
	Skills      []SkillDTO     `json:"skills"`
	DueReviews  []ReviewDTO    `json:"due_reviews,omitempty"`
	Progression ProgressionDTO `json:"progression"`
	Usage       *UsageDTO      `json:"usage,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// GetStudentOverviewHandler serves overview queries.
type GetStudentOverviewHandler struct {
	store      persistence.Store
	dailyLimit int
	logger     *slog.Logger
	now        func() time.Time
}

// NewGetStudentOverviewHandler creates the handler. dailyLimit must match
// the limit the usage governor enforces; zero falls back to the default.
func NewGetStudentOverviewHandler(store persistence.Store, dailyLimit int, logger *slog.Logger) *GetStudentOverviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if dailyLimit <= 0 {
		dailyLimit = fairuse.DefaultDailyLimit
	}
	return &GetStudentOverviewHandler{
		store:      store,
		dailyLimit: dailyLimit,
		logger:     logger,
		now:        timeutil.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (h *GetStudentOverviewHandler) WithClock(clock func() time.Time) *GetStudentOverviewHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

// Handle builds the overview. Missing records degrade to empty sections
// rather than failing the whole query: a brand-new student has a valid,
// mostly empty overview.
func (h *GetStudentOverviewHandler) Handle(ctx context.Context, query GetStudentOverviewQuery) (*GetStudentOverviewResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("student_overview: %w", err)
	}

	now := h.now()
	result := &GetStudentOverviewResult{
		StudentID:   query.StudentID,
		GeneratedAt: now,
	}

	profile := h.loadProfile(ctx, query.StudentID)
	result.Skills = h.collectSkills(profile, query.Subject)
	if query.IncludeReviews {
		result.DueReviews = h.collectReviews(profile, now)
	}

	result.Progression = h.buildProgression(ctx, query.StudentID)

	if query.IncludeUsage {
		usage := h.loadUsage(ctx, query.StudentID, now)
		result.Usage = &usage
	}

	return result, nil
}

func (h *GetStudentOverviewHandler) loadProfile(ctx context.Context, studentID string) *student.Profile {
	var profile student.Profile
	err := h.store.Get(ctx, persistence.ProfileKey(studentID), &profile)
	switch {
	case err == nil:
		return &profile
	case errors.Is(err, persistence.ErrNotFound):
		return student.NewProfile(studentID)
	default:
		h.logger.Warn("overview: unreadable profile, showing empty sections",
			"student_id", studentID, "error", err)
		return student.NewProfile(studentID)
	}
}

func (h *GetStudentOverviewHandler) collectSkills(profile *student.Profile, subject string) []SkillDTO {
	skills := make([]SkillDTO, 0)
	for subj, subtopics := range profile.Skills {
		if subject != "" && subj != subject {
			continue
		}
		for subtopic, rec := range subtopics {
			skills = append(skills, SkillDTO{
				Subject:     subj,
				Subtopic:    subtopic,
				Accuracy:    rec.Accuracy,
				Difficulty:  rec.Difficulty,
				LastUpdated: rec.LastUpdated,
			})
		}
	}
	sort.Slice(skills, func(i, j int) bool {
		if skills[i].Subject != skills[j].Subject {
			return skills[i].Subject < skills[j].Subject
		}
		return skills[i].Subtopic < skills[j].Subtopic
	})
	return skills
}

func (h *GetStudentOverviewHandler) collectReviews(profile *student.Profile, now time.Time) []ReviewDTO {
	reviews := make([]ReviewDTO, 0)
	profile.EachSrsEntry(func(subject, topic string, entry srs.Entry) {
		if !entry.DueOn(now) {
			return
		}
		reviews = append(reviews, ReviewDTO{
			Subject:   subject,
			Topic:     topic,
			Level:     entry.Level,
			Due:       entry.Due,
			IsOverdue: timeutil.StartOfDay(entry.Due).Before(timeutil.StartOfDay(now)),
		})
	})
	sort.Slice(reviews, func(i, j int) bool {
		if !reviews[i].Due.Equal(reviews[j].Due) {
			return reviews[i].Due.Before(reviews[j].Due)
		}
		return reviews[i].Topic < reviews[j].Topic
	})
	return reviews
}

func (h *GetStudentOverviewHandler) buildProgression(ctx context.Context, studentID string) ProgressionDTO {
	var state progression.State
	err := h.store.Get(ctx, persistence.GamStateKey(studentID), &state)
	switch {
	case err == nil:
		state.Normalize()
	case errors.Is(err, persistence.ErrNotFound):
		state = *progression.NewState(studentID)
	default:
		h.logger.Warn("overview: unreadable progression state, showing defaults",
			"student_id", studentID, "error", err)
		state = *progression.NewState(studentID)
	}

	dto := ProgressionDTO{
		XP:           state.XP,
		Level:        state.Level(),
		Streak:       state.Streak,
		BestStreak:   state.BestStreak,
		Achievements: make([]AchievementDTO, 0, len(state.Achievements)+len(state.MetaAchievements)),
	}

	for id, awarded := range state.Achievements {
		item := AchievementDTO{ID: id, Category: string(awarded.Category), UnlockedAt: awarded.AwardedAt}
		if def, ok := progression.FindDefinition(id); ok {
			item.Title = def.Name
		}
		dto.Achievements = append(dto.Achievements, item)
	}
	for id, awarded := range state.MetaAchievements {
		item := AchievementDTO{ID: id, IsMeta: true, UnlockedAt: awarded.AwardedAt}
		for _, def := range progression.MetaCatalog() {
			if def.ID == id {
				item.Title = def.Name
				break
			}
		}
		dto.Achievements = append(dto.Achievements, item)
	}
	sort.Slice(dto.Achievements, func(i, j int) bool {
		if !dto.Achievements[i].UnlockedAt.Equal(dto.Achievements[j].UnlockedAt) {
			return dto.Achievements[i].UnlockedAt.After(dto.Achievements[j].UnlockedAt)
		}
		return dto.Achievements[i].ID < dto.Achievements[j].ID
	})

	return dto
}

func (h *GetStudentOverviewHandler) loadUsage(ctx context.Context, studentID string, now time.Time) UsageDTO {
	var counter fairuse.Counter
	key := persistence.FairUseKey(timeutil.DateKey(now), studentID)
	if err := h.store.Get(ctx, key, &counter); err != nil && !errors.Is(err, persistence.ErrNotFound) {
		h.logger.Warn("overview: unreadable usage counter, showing zero",
			"student_id", studentID, "error", err)
		counter = fairuse.Counter{}
	}

	state := fairuse.StateFor(counter, h.dailyLimit)
	remaining := state.Limit - state.Count
	if remaining < 0 {
		remaining = 0
	}
	return UsageDTO{
		Count:     state.Count,
		Limit:     state.Limit,
		Tier:      string(state.Tier),
		Remaining: remaining,
	}
}
