package eventhandler

import (
	"fmt"
	"log/slog"

	"github.com/aprende-hub/mastery-engine/internal/domain/progression"
	"github.com/aprende-hub/mastery-engine/internal/domain/shared"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/telemetry"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ACHIEVEMENT UNLOCKED HANDLER
// Turns unlock events into student-facing congratulation notices. Unlocks
// are rare by design, so each one deserves a visible moment.
// ═══════════════════════════════════════════════════════════════════════════

// UnlockNotifier delivers an unlock congratulation to the student's client.
type UnlockNotifier interface {
	CongratulateUnlock(studentID, title, description string, xpBonus int) error
}

// LogUnlockNotifier writes congratulations to the structured log.
type LogUnlockNotifier struct {
	Logger *slog.Logger
}

// CongratulateUnlock implements UnlockNotifier.
func (n LogUnlockNotifier) CongratulateUnlock(studentID, title, description string, xpBonus int) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("achievement unlocked",
		"student_id", studentID,
		"title", title,
		"description", description,
		"xp_bonus", xpBonus,
	)
	return nil
}

// OnAchievementUnlockedHandler reacts to base and meta unlock events.
type OnAchievementUnlockedHandler struct {
	notifier UnlockNotifier
	tracker  telemetry.Tracker
	logger   *slog.Logger
}

// NewOnAchievementUnlockedHandler creates the handler.
func NewOnAchievementUnlockedHandler(notifier UnlockNotifier, tracker telemetry.Tracker, logger *slog.Logger) *OnAchievementUnlockedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = LogUnlockNotifier{Logger: logger}
	}
	if tracker == nil {
		tracker = telemetry.NopTracker{}
	}
	return &OnAchievementUnlockedHandler{
		notifier: notifier,
		tracker:  tracker,
		logger:   logger,
	}
}

// Handle processes an achievement or meta-achievement unlock event.
func (h *OnAchievementUnlockedHandler) Handle(event shared.Event) error {
	switch e := event.(type) {
	case shared.AchievementUnlockedEvent:
		title, description := e.AchievementID, ""
		if def, ok := progression.FindDefinition(e.AchievementID); ok {
			title, description = def.Name, def.Description
		}
		h.tracker.Track("achievement_unlocked", map[string]any{
			"student_id":     e.StudentID,
			"achievement_id": e.AchievementID,
			"category":       e.Category,
		})
		return h.notifier.CongratulateUnlock(e.StudentID, title, description, e.XPBonus)

	case shared.MetaAchievementUnlockedEvent:
		title, description := e.MetaID, ""
		for _, meta := range progression.MetaCatalog() {
			if meta.ID == e.MetaID {
				title, description = meta.Name, meta.Description
				break
			}
		}
		h.tracker.Track("meta_achievement_unlocked", map[string]any{
			"student_id": e.StudentID,
			"meta_id":    e.MetaID,
		})
		return h.notifier.CongratulateUnlock(e.StudentID, title, description, e.XPBonus)

	default:
		return fmt.Errorf("on_achievement_unlocked: unexpected event %T", event)
	}
}
