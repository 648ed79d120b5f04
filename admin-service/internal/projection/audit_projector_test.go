package projection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/startupstarter/admin/shared/events"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/models"
	"github.com/stretchr/testify/require"
)

type memAudit struct {
	entries map[string]*models.AuditEntry
	err     error
}

func (m *memAudit) Insert(_ context.Context, e *models.AuditEntry) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.entries[e.ID]; ok {
		return false, nil
	}
	m.entries[e.ID] = e
	return true, nil
}

func userCreated() events.Event {
	return events.FromDomainEvent("evt-1", "acc-1", "usr-admin", models.DomainEvent{
		Type:       models.EventUserCreated,
		EntityType: models.EntityUser,
		EntityID:   "usr-2",
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Data:       models.UserEventData{UserID: "usr-2", Email: "jo@example.com"},
	})
}

func TestAuditProjector_RecordsEvent(t *testing.T) {
	req := require.New(t)
	store := &memAudit{entries: map[string]*models.AuditEntry{}}
	p := NewAuditProjector(store, logger.Nop())

	req.NoError(p.HandleEvent(context.Background(), userCreated()))

	entry := store.entries["evt-1"]
	req.NotNil(entry)
	req.Equal("acc-1", entry.AccountID)
	req.Equal("usr-admin", entry.ActorID)
	req.Equal(models.EventUserCreated, entry.Action)
	req.Equal(models.EntityUser, entry.EntityType)
	req.Equal("usr-2", entry.EntityID)
	req.Equal("jo@example.com", entry.Details["email"])
}

func TestAuditProjector_RedeliveryIsIdempotent(t *testing.T) {
	req := require.New(t)
	store := &memAudit{entries: map[string]*models.AuditEntry{}}
	p := NewAuditProjector(store, logger.Nop())

	req.NoError(p.HandleEvent(context.Background(), userCreated()))
	req.NoError(p.HandleEvent(context.Background(), userCreated()))
	req.Len(store.entries, 1)
}

func TestAuditProjector_StoreFailure(t *testing.T) {
	p := NewAuditProjector(&memAudit{err: errors.New("db down")}, logger.Nop())
	require.Error(t, p.HandleEvent(context.Background(), userCreated()))
}
