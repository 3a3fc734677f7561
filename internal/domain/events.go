package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Event Interface and Base Event
// -----------------------------------------------------------------------------

// Event represents a domain event
type Event interface {
	// EventID returns the unique identifier for this event
	EventID() uuid.UUID
	// EventType returns the type name of this event
	EventType() string
	// OccurredAt returns when this event occurred
	OccurredAt() time.Time
	// AggregateID returns the ID of the aggregate that produced this event
	AggregateID() uuid.UUID
	// AggregateType returns the type of aggregate that produced this event
	AggregateType() string
}

// BaseEvent provides common event fields
type BaseEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateUUID uuid.UUID `json:"aggregate_id"`
	AggregateName string    `json:"aggregate_type"`
}

// NewBaseEvent creates a new BaseEvent
func NewBaseEvent(eventType, aggregateType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     time.Now(),
		AggregateUUID: aggregateID,
		AggregateName: aggregateType,
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.ID }
func (e BaseEvent) EventType() string      { return e.Type }
func (e BaseEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e BaseEvent) AggregateID() uuid.UUID { return e.AggregateUUID }
func (e BaseEvent) AggregateType() string  { return e.AggregateName }

// -----------------------------------------------------------------------------
// Event Handler and Dispatcher
// -----------------------------------------------------------------------------

// EventHandler processes domain events
type EventHandler func(event Event)

// EventDispatcher manages event subscriptions and publishing
type EventDispatcher struct {
	mu          sync.RWMutex
	handlers    map[string][]EventHandler
	allHandlers []EventHandler // handlers for all events
}

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// SubscribeAll registers a handler for all event types
func (d *EventDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allHandlers = append(d.allHandlers, handler)
}

// Publish dispatches an event to all registered handlers
func (d *EventDispatcher) Publish(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if handlers, ok := d.handlers[event.EventType()]; ok {
		for _, h := range handlers {
			h(event)
		}
	}

	for _, h := range d.allHandlers {
		h(event)
	}
}

// PublishAll dispatches multiple events
func (d *EventDispatcher) PublishAll(events []Event) {
	for _, event := range events {
		d.Publish(event)
	}
}

// -----------------------------------------------------------------------------
// Game Events
// -----------------------------------------------------------------------------

// Event type names
const (
	EventTypeQuestCompleted     = "quest.completed"
	EventTypeLevelUp            = "player.level_up"
	EventTypeItemAcquired       = "inventory.item_acquired"
	EventTypeChallengeCompleted = "challenge.completed"
	EventTypeProfileSaved       = "profile.saved"
	EventTypeProfileSaveFailed  = "profile.save_failed"
)

// QuestCompletedEvent is published the first time a quest's completion
// scene is entered.
type QuestCompletedEvent struct {
	BaseEvent
	Quest     QuestID `json:"quest"`
	XPAwarded int     `json:"xp_awarded"`
}

// NewQuestCompletedEvent creates a QuestCompletedEvent
func NewQuestCompletedEvent(profileID uuid.UUID, quest QuestID, xp int) QuestCompletedEvent {
	return QuestCompletedEvent{
		BaseEvent: NewBaseEvent(EventTypeQuestCompleted, "profile", profileID),
		Quest:     quest,
		XPAwarded: xp,
	}
}

// LevelUpEvent is published when accumulated skill points push the player
// into a new level.
type LevelUpEvent struct {
	BaseEvent
	NewLevel int `json:"new_level"`
}

// NewLevelUpEvent creates a LevelUpEvent
func NewLevelUpEvent(profileID uuid.UUID, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventTypeLevelUp, "profile", profileID),
		NewLevel:  newLevel,
	}
}

// ItemAcquiredEvent is published when an item is added to the inventory
// for the first time.
type ItemAcquiredEvent struct {
	BaseEvent
	Item string `json:"item"`
}

// NewItemAcquiredEvent creates an ItemAcquiredEvent
func NewItemAcquiredEvent(profileID uuid.UUID, item string) ItemAcquiredEvent {
	return ItemAcquiredEvent{
		BaseEvent: NewBaseEvent(EventTypeItemAcquired, "profile", profileID),
		Item:      item,
	}
}

// ChallengeCompletedEvent is published on first-time completion of a
// playground challenge.
type ChallengeCompletedEvent struct {
	BaseEvent
	Challenge string `json:"challenge"`
	XPAwarded int    `json:"xp_awarded"`
}

// NewChallengeCompletedEvent creates a ChallengeCompletedEvent
func NewChallengeCompletedEvent(profileID uuid.UUID, challenge string, xp int) ChallengeCompletedEvent {
	return ChallengeCompletedEvent{
		BaseEvent: NewBaseEvent(EventTypeChallengeCompleted, "profile", profileID),
		Challenge: challenge,
		XPAwarded: xp,
	}
}

// ProfileSavedEvent is published after a snapshot reaches disk
type ProfileSavedEvent struct {
	BaseEvent
	Auto bool `json:"auto"`
}

// NewProfileSavedEvent creates a ProfileSavedEvent
func NewProfileSavedEvent(profileID uuid.UUID, auto bool) ProfileSavedEvent {
	return ProfileSavedEvent{
		BaseEvent: NewBaseEvent(EventTypeProfileSaved, "profile", profileID),
		Auto:      auto,
	}
}

// ProfileSaveFailedEvent is published when a save attempt fails; the
// in-memory state is left untouched.
type ProfileSaveFailedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

// NewProfileSaveFailedEvent creates a ProfileSaveFailedEvent
func NewProfileSaveFailedEvent(profileID uuid.UUID, reason string) ProfileSaveFailedEvent {
	return ProfileSaveFailedEvent{
		BaseEvent: NewBaseEvent(EventTypeProfileSaveFailed, "profile", profileID),
		Reason:    reason,
	}
}
