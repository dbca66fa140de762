package eventhandler

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aprende-hub/mastery-engine/internal/application/service"
	"github.com/aprende-hub/mastery-engine/internal/domain/fairuse"
	"github.com/aprende-hub/mastery-engine/internal/domain/shared"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/messaging"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/persistence"
)

type recordedUnlock struct {
	studentID string
	title     string
	xpBonus   int
}

type fakeUnlockNotifier struct {
	mu      sync.Mutex
	unlocks []recordedUnlock
}

func (n *fakeUnlockNotifier) CongratulateUnlock(studentID, title, description string, xpBonus int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unlocks = append(n.unlocks, recordedUnlock{studentID: studentID, title: title, xpBonus: xpBonus})
	return nil
}

type fakeBannerNotifier struct {
	banners []fairuse.Tier
}

func (n *fakeBannerNotifier) ShowBanner(studentID string, tier fairuse.Tier, count, limit int) error {
	n.banners = append(n.banners, tier)
	return nil
}

func TestPracticeAnswerFlowsIntoProgression(t *testing.T) {
	store := persistence.NewMemoryStore()
	bus := messaging.NewInMemoryEventBus(messaging.DefaultConfig())

	progression := service.NewProgressionEngine(store, bus, nil)
	skills := service.NewSkillService(store, bus, nil)

	unlocks := &fakeUnlockNotifier{}
	unregister := RegisterAll(bus, Dependencies{
		Progression:    progression,
		UnlockNotifier: unlocks,
	})
	defer unregister()

	_, err := skills.UpdateSkill(context.Background(), service.UpdateSkillCommand{
		StudentID:          "student-1",
		Subject:            "matematicas",
		Subtopic:           "fracciones",
		IsCorrect:          true,
		QuestionDifficulty: 2.5,
		Source:             "practice",
	})
	assert.NoError(t, err)

	// The answer flowed through the bus into progression: the practice
	// counter moved and the first-practice achievement unlocked.
	state, err := progression.GetState(context.Background(), "student-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, state.Counter("practice_completed"))
	assert.True(t, state.HasAchievement("primera_practica"))

	assert.Len(t, unlocks.unlocks, 1)
	assert.Equal(t, "Primera práctica", unlocks.unlocks[0].title)
}

func TestDiagnosticAnswersDoNotCountAsPractice(t *testing.T) {
	store := persistence.NewMemoryStore()
	bus := messaging.NewInMemoryEventBus(messaging.DefaultConfig())

	progression := service.NewProgressionEngine(store, bus, nil)
	skills := service.NewSkillService(store, bus, nil)

	unregister := RegisterAll(bus, Dependencies{Progression: progression})
	defer unregister()

	_, err := skills.UpdateSkill(context.Background(), service.UpdateSkillCommand{
		StudentID: "student-1", Subject: "matematicas", Subtopic: "fracciones",
		IsCorrect: true, QuestionDifficulty: 2.5, Source: "diagnostic",
	})
	assert.NoError(t, err)

	state, err := progression.GetState(context.Background(), "student-1")
	assert.NoError(t, err)
	assert.Equal(t, 0, state.Counter("practice_completed"))
}

func TestTierCrossingSurfacesBanner(t *testing.T) {
	store := persistence.NewMemoryStore()
	bus := messaging.NewInMemoryEventBus(messaging.DefaultConfig())

	progression := service.NewProgressionEngine(store, bus, nil)
	banners := &fakeBannerNotifier{}
	unregister := RegisterAll(bus, Dependencies{
		Progression:    progression,
		BannerNotifier: banners,
	})
	defer unregister()

	governor := service.NewUsageGovernor(store, bus, nil, nil, 10)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, err := governor.IncrementQueryCount(ctx, "student-1")
		assert.NoError(t, err)
	}

	// Limit 10: pre-cap at 8, cap at 10, one banner each.
	assert.Equal(t, []fairuse.Tier{fairuse.TierPreCap, fairuse.TierCapped}, banners.banners)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	store := persistence.NewMemoryStore()
	bus := messaging.NewInMemoryEventBus(messaging.DefaultConfig())

	progression := service.NewProgressionEngine(store, bus, nil)
	unregister := RegisterAll(bus, Dependencies{Progression: progression})
	unregister()

	bus.Publish(shared.NewSkillUpdatedEvent("student-1", "matematicas", "fracciones", 10, 60, "practice"))

	state, err := progression.GetState(context.Background(), "student-1")
	assert.NoError(t, err)
	assert.Equal(t, 0, state.Counter("practice_completed"))
}
