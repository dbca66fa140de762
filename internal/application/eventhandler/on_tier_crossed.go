package eventhandler

import (
	"fmt"
	"log/slog"

	"github.com/aprende-hub/mastery-engine/internal/domain/fairuse"
	"github.com/aprende-hub/mastery-engine/internal/domain/shared"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/telemetry"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON TIER CROSSED HANDLER
// Surfaces the once-per-day fair-use banner and records the crossing for
// product analytics. The governor guarantees at most one event per tier per
// day, so the handler does not deduplicate.
// ═══════════════════════════════════════════════════════════════════════════

// BannerNotifier delivers a fair-use banner to the student's client.
type BannerNotifier interface {
	ShowBanner(studentID string, tier fairuse.Tier, count, limit int) error
}

// LogBannerNotifier is the default notifier: it writes the banner to the
// structured log. A real delivery channel replaces it in production wiring.
type LogBannerNotifier struct {
	Logger *slog.Logger
}

// ShowBanner implements BannerNotifier.
func (n LogBannerNotifier) ShowBanner(studentID string, tier fairuse.Tier, count, limit int) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("fair-use banner",
		"student_id", studentID,
		"tier", tier,
		"count", count,
		"limit", limit,
	)
	return nil
}

// OnTierCrossedHandler reacts to fairuse.tier_crossed events.
type OnTierCrossedHandler struct {
	notifier BannerNotifier
	tracker  telemetry.Tracker
	logger   *slog.Logger
}

// NewOnTierCrossedHandler creates the handler.
func NewOnTierCrossedHandler(notifier BannerNotifier, tracker telemetry.Tracker, logger *slog.Logger) *OnTierCrossedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = LogBannerNotifier{Logger: logger}
	}
	if tracker == nil {
		tracker = telemetry.NopTracker{}
	}
	return &OnTierCrossedHandler{
		notifier: notifier,
		tracker:  tracker,
		logger:   logger,
	}
}

// Handle processes one fairuse.tier_crossed event.
func (h *OnTierCrossedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.UsageTierCrossedEvent)
	if !ok {
		return fmt.Errorf("on_tier_crossed: unexpected event %T", event)
	}

	h.tracker.Track("tier_crossed", map[string]any{
		"student_id": e.StudentID,
		"tier":       e.Tier,
		"count":      e.Count,
	})

	if err := h.notifier.ShowBanner(e.StudentID, fairuse.Tier(e.Tier), e.Count, e.Limit); err != nil {
		return fmt.Errorf("on_tier_crossed: show banner: %w", err)
	}

	return nil
}
