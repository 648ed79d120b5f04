package models

import "time"

// DomainEvent is recorded by an aggregate when one of its mutating methods
// succeeds. Command services pull the pending events after the write store
// has accepted the change and hand them to the event publisher.
type DomainEvent struct {
	Type       string    `json:"type"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Data       any       `json:"data"`
	OccurredAt time.Time `json:"occurredAt"`
}

// AggregateRoot is embedded by every aggregate.
type AggregateRoot struct {
	events []DomainEvent
}

func (a *AggregateRoot) Raise(eventType, entityType, entityID string, data any, at time.Time) {
	a.events = append(a.events, DomainEvent{
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Data:       data,
		OccurredAt: at.UTC(),
	})
}

// PullEvents returns the pending events and clears them.
func (a *AggregateRoot) PullEvents() []DomainEvent {
	evts := a.events
	a.events = nil
	return evts
}

// PendingEvents returns the pending events without clearing them.
func (a *AggregateRoot) PendingEvents() []DomainEvent {
	return a.events
}
