package shared

import "time"

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven core of the engine.
// Each event represents something significant that happened in the domain.
const (
	// Skill events
	EventSkillUpdated EventType = "skill.updated"

	// Spaced-repetition events
	EventReviewScheduled EventType = "srs.review_scheduled"
	EventReviewQueued    EventType = "srs.review_queued"

	// Fair-use events
	EventUsageTierCrossed EventType = "fairuse.tier_crossed"

	// Progression events
	EventXPGained                EventType = "progression.xp_gained"
	EventLevelUp                 EventType = "progression.level_up"
	EventStreakUpdated           EventType = "progression.streak_updated"
	EventAchievementUnlocked     EventType = "progression.achievement_unlocked"
	EventMetaAchievementUnlocked EventType = "progression.meta_achievement_unlocked"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	// For this engine that is always the student ID.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Skill Events
// ═══════════════════════════════════════════════════════════════════════════

// SkillUpdatedEvent is emitted after every skill record mutation.
type SkillUpdatedEvent struct {
	BaseEvent
	StudentID string  `json:"student_id"`
	Subject   string  `json:"subject"`
	Subtopic  string  `json:"subtopic"`
	Delta     float64 `json:"delta"`
	Accuracy  float64 `json:"accuracy"`
	Source    string  `json:"source"` // e.g., "practice", "session", "diagnostic"
}

// Payload implements Event interface.
func (e SkillUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"subject":    e.Subject,
		"subtopic":   e.Subtopic,
		"delta":      e.Delta,
		"accuracy":   e.Accuracy,
		"source":     e.Source,
	}
}

// NewSkillUpdatedEvent creates a new SkillUpdatedEvent.
func NewSkillUpdatedEvent(studentID, subject, subtopic string, delta, accuracy float64, source string) SkillUpdatedEvent {
	return SkillUpdatedEvent{
		BaseEvent: NewBaseEvent(EventSkillUpdated, studentID),
		StudentID: studentID,
		Subject:   subject,
		Subtopic:  subtopic,
		Delta:     delta,
		Accuracy:  accuracy,
		Source:    source,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Spaced-Repetition Events
// ═══════════════════════════════════════════════════════════════════════════

// ReviewScheduledEvent is emitted when a topic's next review date is computed.
type ReviewScheduledEvent struct {
	BaseEvent
	StudentID string    `json:"student_id"`
	Subject   string    `json:"subject"`
	Topic     string    `json:"topic"`
	Level     int       `json:"level"`
	Due       time.Time `json:"due"`
}

// Payload implements Event interface.
func (e ReviewScheduledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"subject":    e.Subject,
		"topic":      e.Topic,
		"level":      e.Level,
		"due":        e.Due.Format(time.RFC3339),
	}
}

// NewReviewScheduledEvent creates a new ReviewScheduledEvent.
func NewReviewScheduledEvent(studentID, subject, topic string, level int, due time.Time) ReviewScheduledEvent {
	return ReviewScheduledEvent{
		BaseEvent: NewBaseEvent(EventReviewScheduled, studentID),
		StudentID: studentID,
		Subject:   subject,
		Topic:     topic,
		Level:     level,
		Due:       due,
	}
}

// ReviewQueuedEvent is emitted when a due review is injected into the agenda.
type ReviewQueuedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	Subject   string `json:"subject"`
	Topic     string `json:"topic"`
}

// Payload implements Event interface.
func (e ReviewQueuedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"subject":    e.Subject,
		"topic":      e.Topic,
	}
}

// NewReviewQueuedEvent creates a new ReviewQueuedEvent.
func NewReviewQueuedEvent(studentID, subject, topic string) ReviewQueuedEvent {
	return ReviewQueuedEvent{
		BaseEvent: NewBaseEvent(EventReviewQueued, studentID),
		StudentID: studentID,
		Subject:   subject,
		Topic:     topic,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Fair-Use Events
// ═══════════════════════════════════════════════════════════════════════════

// UsageTierCrossedEvent is emitted the first time a usage tier is crossed on
// a given day. It fires at most once per tier per student per day.
type UsageTierCrossedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	Tier      string `json:"tier"`
	Count     int    `json:"count"`
	Limit     int    `json:"limit"`
}

// Payload implements Event interface.
func (e UsageTierCrossedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"tier":       e.Tier,
		"count":      e.Count,
		"limit":      e.Limit,
	}
}

// NewUsageTierCrossedEvent creates a new UsageTierCrossedEvent.
func NewUsageTierCrossedEvent(studentID, tier string, count, limit int) UsageTierCrossedEvent {
	return UsageTierCrossedEvent{
		BaseEvent: NewBaseEvent(EventUsageTierCrossed, studentID),
		StudentID: studentID,
		Tier:      tier,
		Count:     count,
		Limit:     limit,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a student gains XP.
type XPGainedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	Amount    int    `json:"amount"`
	NewTotal  int    `json:"new_total"`
	Source    string `json:"source"` // e.g., "practice", "achievement_bonus"
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"amount":     e.Amount,
		"new_total":  e.NewTotal,
		"source":     e.Source,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(studentID string, amount, newTotal int, source string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, studentID),
		StudentID: studentID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LevelUpEvent is emitted when a student's level rises.
type LevelUpEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(studentID string, oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, studentID),
		StudentID: studentID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// StreakUpdatedEvent is emitted when a student's daily streak changes.
type StreakUpdatedEvent struct {
	BaseEvent
	StudentID  string `json:"student_id"`
	Streak     int    `json:"streak"`
	BestStreak int    `json:"best_streak"`
	WasReset   bool   `json:"was_reset"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":  e.StudentID,
		"streak":      e.Streak,
		"best_streak": e.BestStreak,
		"was_reset":   e.WasReset,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(studentID string, streak, best int, wasReset bool) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent:  NewBaseEvent(EventStreakUpdated, studentID),
		StudentID:  studentID,
		Streak:     streak,
		BestStreak: best,
		WasReset:   wasReset,
	}
}

// AchievementUnlockedEvent is emitted exactly once per (student, achievement).
type AchievementUnlockedEvent struct {
	BaseEvent
	StudentID     string `json:"student_id"`
	AchievementID string `json:"achievement_id"`
	Category      string `json:"category"`
	XPBonus       int    `json:"xp_bonus"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":     e.StudentID,
		"achievement_id": e.AchievementID,
		"category":       e.Category,
		"xp_bonus":       e.XPBonus,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(studentID, achievementID, category string, xpBonus int) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, studentID),
		StudentID:     studentID,
		AchievementID: achievementID,
		Category:      category,
		XPBonus:       xpBonus,
	}
}

// MetaAchievementUnlockedEvent is emitted exactly once per (student, meta id).
type MetaAchievementUnlockedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	MetaID    string `json:"meta_id"`
	XPBonus   int    `json:"xp_bonus"`
}

// Payload implements Event interface.
func (e MetaAchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"meta_id":    e.MetaID,
		"xp_bonus":   e.XPBonus,
	}
}

// NewMetaAchievementUnlockedEvent creates a new MetaAchievementUnlockedEvent.
func NewMetaAchievementUnlockedEvent(studentID, metaID string, xpBonus int) MetaAchievementUnlockedEvent {
	return MetaAchievementUnlockedEvent{
		BaseEvent: NewBaseEvent(EventMetaAchievementUnlocked, studentID),
		StudentID: studentID,
		MetaID:    metaID,
		XPBonus:   xpBonus,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// UnsubscribeFunc removes a previously registered handler. Calling it more
// than once is a no-op.
type UnsubscribeFunc func()

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish delivers an event synchronously to all current subscribers.
	// Handlers registered after the call simply miss the event.
	Publish(event Event)
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type and returns a function
	// that removes the registration.
	Subscribe(eventType EventType, handler EventHandler) UnsubscribeFunc

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) UnsubscribeFunc
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
