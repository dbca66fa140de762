// Package eventhandler contains the domain event handlers that connect the
// engine's modules: skill updates feed progression counters, fair-use
// crossings surface banners, unlocks produce student-facing notices.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aprende-hub/mastery-engine/internal/application/service"
	"github.com/aprende-hub/mastery-engine/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON SKILL UPDATED HANDLER
// Every graded practice answer counts toward practice progression, and every
// self-reported confidence rating counts toward the cognition achievements.
// The skill module stays unaware of gamification; this handler is the only
// link between the two.
// ═══════════════════════════════════════════════════════════════════════════

// OnSkillUpdatedHandler folds skill updates into progression counters.
type OnSkillUpdatedHandler struct {
	progression *service.ProgressionEngine
	logger      *slog.Logger
}

// NewOnSkillUpdatedHandler creates the handler.
func NewOnSkillUpdatedHandler(progression *service.ProgressionEngine, logger *slog.Logger) *OnSkillUpdatedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnSkillUpdatedHandler{
		progression: progression,
		logger:      logger,
	}
}

// Handle processes one skill.updated event.
func (h *OnSkillUpdatedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.SkillUpdatedEvent)
	if !ok {
		return fmt.Errorf("on_skill_updated: unexpected event %T", event)
	}

	// Only completed practice counts toward practice achievements;
	// diagnostics and sessions are recorded by their own flows.
	if e.Source != "practice" {
		return nil
	}

	if _, err := h.progression.RecordPracticeCompleted(context.Background(), e.StudentID); err != nil {
		return fmt.Errorf("on_skill_updated: record practice: %w", err)
	}

	return nil
}
