package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/startupstarter/admin/shared/models"
)

// Stream names
const (
	AccountEventsStream  = "account.events"
	UserEventsStream     = "user.events"
	RoleEventsStream     = "role.events"
	ContentEventsStream  = "content.events"
	WorkflowEventsStream = "workflow.events"
	MediaEventsStream    = "media.events"
	APIKeyEventsStream   = "apikey.events"
	WebhookEventsStream  = "webhook.events"
	AuthEventsStream     = "auth.events"
	SystemEventsStream   = "system.events"
)

// AllStreams is every stream a domain event can land on.
var AllStreams = []string{
	AccountEventsStream,
	UserEventsStream,
	RoleEventsStream,
	ContentEventsStream,
	WorkflowEventsStream,
	MediaEventsStream,
	APIKeyEventsStream,
	WebhookEventsStream,
	AuthEventsStream,
	SystemEventsStream,
}

var streamByEntity = map[string]string{
	models.EntityAccount:  AccountEventsStream,
	models.EntityUser:     UserEventsStream,
	models.EntityRole:     RoleEventsStream,
	models.EntityContent:  ContentEventsStream,
	models.EntityWorkflow: WorkflowEventsStream,
	models.EntityMedia:    MediaEventsStream,
	models.EntityAPIKey:   APIKeyEventsStream,
	models.EntityWebhook:  WebhookEventsStream,
	models.EntitySession:  AuthEventsStream,
	models.EntitySystem:   SystemEventsStream,
}

// StreamFor returns the stream that carries events of an entity type.
func StreamFor(entityType string) string {
	if s, ok := streamByEntity[entityType]; ok {
		return s
	}
	return SystemEventsStream
}

// Event is the envelope written to a stream. Data holds one of the payload
// structs of the models package; after a round trip through Redis it is a
// generic JSON value, so consumers use DecodeData.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	AccountID  string    `json:"accountId"`
	ActorID    string    `json:"actorId,omitempty"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Timestamp  time.Time `json:"timestamp"`
	Data       any       `json:"data"`
}

// FromDomainEvent wraps an aggregate event into a stream envelope.
func FromDomainEvent(id, accountID, actorID string, evt models.DomainEvent) Event {
	return Event{
		ID:         id,
		Type:       evt.Type,
		AccountID:  accountID,
		ActorID:    actorID,
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		Timestamp:  evt.OccurredAt,
		Data:       evt.Data,
	}
}

// DecodeData re-decodes the generic payload into a typed struct.
func DecodeData[T any](e Event) (T, error) {
	var out T
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return out, fmt.Errorf("failed to marshal %s payload: %w", e.Type, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return out, nil
}

// DataMap returns the payload as a JSON object, or nil when it is not one.
func DataMap(e Event) map[string]any {
	m, err := DecodeData[map[string]any](e)
	if err != nil {
		return nil
	}
	return m
}
