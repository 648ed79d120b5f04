package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/startupstarter/admin/shared/models"
	"github.com/stretchr/testify/require"
)

func TestStreamFor(t *testing.T) {
	tests := map[string]string{
		models.EntityUser:    UserEventsStream,
		models.EntityContent: ContentEventsStream,
		models.EntitySession: AuthEventsStream,
		"unknown":            SystemEventsStream,
	}
	for entity, stream := range tests {
		require.Equal(t, stream, StreamFor(entity), entity)
	}
}

func TestParseMessage_RoundTrip(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	evt := FromDomainEvent("evt-1", "acc-1", "usr-1", models.DomainEvent{
		Type:       models.EventUserCreated,
		EntityType: models.EntityUser,
		EntityID:   "usr-2",
		Data:       models.UserEventData{UserID: "usr-2", Email: "bob@example.com", Name: "Bob", Status: models.UserActive},
		OccurredAt: at,
	})
	raw, err := json.Marshal(evt)
	req.NoError(err)

	parsed, err := ParseMessage(map[string]any{"event": string(raw)})
	req.NoError(err)
	req.Equal("evt-1", parsed.ID)
	req.Equal("acc-1", parsed.AccountID)
	req.Equal(models.EventUserCreated, parsed.Type)
	req.True(at.Equal(parsed.Timestamp))

	data, err := DecodeData[models.UserEventData](parsed)
	req.NoError(err)
	req.Equal("bob@example.com", data.Email)
	req.Equal("Bob", DataMap(parsed)["name"])
}

func TestParseMessage_InvalidFormat(t *testing.T) {
	_, err := ParseMessage(map[string]any{"event": 42})
	require.Error(t, err)

	_, err = ParseMessage(map[string]any{"event": "{not json"})
	require.Error(t, err)
}
