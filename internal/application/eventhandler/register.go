package eventhandler

import (
	"log/slog"

	"github.com/aprende-hub/mastery-engine/internal/application/service"
	"github.com/aprende-hub/mastery-engine/internal/domain/shared"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/telemetry"
)

// Dependencies collects everything the standard handler set needs.
type Dependencies struct {
	Progression    *service.ProgressionEngine
	BannerNotifier BannerNotifier
	UnlockNotifier UnlockNotifier
	Tracker        telemetry.Tracker
	Logger         *slog.Logger
}

// RegisterAll wires the standard handler set onto the bus and returns one
// function that removes all of them, for graceful shutdown.
func RegisterAll(bus shared.EventSubscriber, deps Dependencies) shared.UnsubscribeFunc {
	skillHandler := NewOnSkillUpdatedHandler(deps.Progression, deps.Logger)
	tierHandler := NewOnTierCrossedHandler(deps.BannerNotifier, deps.Tracker, deps.Logger)
	unlockHandler := NewOnAchievementUnlockedHandler(deps.UnlockNotifier, deps.Tracker, deps.Logger)

	unsubscribes := []shared.UnsubscribeFunc{
		bus.Subscribe(shared.EventSkillUpdated, skillHandler.Handle),
		bus.Subscribe(shared.EventUsageTierCrossed, tierHandler.Handle),
		bus.Subscribe(shared.EventAchievementUnlocked, unlockHandler.Handle),
		bus.Subscribe(shared.EventMetaAchievementUnlocked, unlockHandler.Handle),
	}

	return func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}
}
