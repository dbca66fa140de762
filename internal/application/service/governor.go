package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aprende-hub/mastery-engine/internal/domain/fairuse"
	"github.com/aprende-hub/mastery-engine/internal/domain/shared"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/persistence"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/telemetry"
	"github.com/aprende-hub/mastery-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// USAGE GOVERNOR
// Bounds per-student daily AI-tutor usage. Counters are keyed by calendar
// day, so a new day starts from a fresh record with no explicit reset job.
// ══════════════════════════════════════════════════════════════════════════════

// UsageResult is the outcome of counting one query.
type UsageResult struct {
	StudentID string

	// State is the usage state after the increment.
	State fairuse.State

	// BannerTier is the tier whose banner should be surfaced now, empty
	// when no banner is due. Each tier's banner fires at most once per day.
	BannerTier fairuse.Tier
}

// UsageGovernor owns the daily fair-use counters.
type UsageGovernor struct {
	store      persistence.Store
	publisher  shared.EventPublisher
	tracker    telemetry.Tracker
	logger     *slog.Logger
	dailyLimit int
	now        func() time.Time
}

// NewUsageGovernor creates a UsageGovernor. A non-positive dailyLimit falls
// back to the domain default.
func NewUsageGovernor(store persistence.Store, publisher shared.EventPublisher, tracker telemetry.Tracker, logger *slog.Logger, dailyLimit int) *UsageGovernor {
	if logger == nil {
		logger = slog.Default()
	}
	if tracker == nil {
		tracker = telemetry.NopTracker{}
	}
	if dailyLimit <= 0 {
		dailyLimit = fairuse.DefaultDailyLimit
	}
	return &UsageGovernor{
		store:      store,
		publisher:  publisher,
		tracker:    tracker,
		logger:     logger,
		dailyLimit: dailyLimit,
		now:        timeutil.Now,
	}
}

// WithClock overrides the governor clock. Test hook.
func (g *UsageGovernor) WithClock(now func() time.Time) *UsageGovernor {
	g.now = now
	return g
}

// IncrementQueryCount counts one AI-tutor query for the student and returns
// the resulting usage state. When the increment crosses into a new tier for
// the first time today, the result carries the banner to surface and a
// tier-crossed event is published.
func (g *UsageGovernor) IncrementQueryCount(ctx context.Context, studentID string) (*UsageResult, error) {
	if studentID == "" {
		return nil, errors.New("usage: student_id is required")
	}

	key := persistence.FairUseKey(timeutil.DateKey(g.now()), studentID)
	counter := g.loadCounter(ctx, key, studentID)

	updated, tier, firstCrossing := counter.Increment(g.dailyLimit)

	if err := g.store.Set(ctx, key, updated); err != nil {
		return nil, fmt.Errorf("usage: save counter: %w", err)
	}

	result := &UsageResult{
		StudentID: studentID,
		State:     fairuse.StateFor(updated, g.dailyLimit),
	}

	if firstCrossing {
		result.BannerTier = tier
		g.publisher.Publish(shared.NewUsageTierCrossedEvent(
			studentID, string(tier), updated.Count, g.dailyLimit,
		))
		g.tracker.Track("fairuse_banner", map[string]any{
			"student_id": studentID,
			"tier":       string(tier),
			"count":      updated.Count,
			"limit":      g.dailyLimit,
		})
	}

	return result, nil
}

// GetQueryState returns today's usage state without counting a query.
func (g *UsageGovernor) GetQueryState(ctx context.Context, studentID string) (fairuse.State, error) {
	if studentID == "" {
		return fairuse.State{}, errors.New("usage: student_id is required")
	}

	key := persistence.FairUseKey(timeutil.DateKey(g.now()), studentID)
	counter := g.loadCounter(ctx, key, studentID)

	return fairuse.StateFor(counter, g.dailyLimit), nil
}

// loadCounter reads today's counter, starting fresh on a miss or an
// unreadable record.
func (g *UsageGovernor) loadCounter(ctx context.Context, key, studentID string) fairuse.Counter {
	var counter fairuse.Counter
	err := g.store.Get(ctx, key, &counter)
	switch {
	case err == nil:
		return counter
	case errors.Is(err, persistence.ErrNotFound):
		return fairuse.Counter{}
	default:
		g.logger.Warn("usage counter unreadable, starting fresh",
			"student_id", studentID,
			"key", key,
			"error", err,
		)
		return fairuse.Counter{}
	}
}
