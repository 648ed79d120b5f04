// Package projection turns stream events into read-side records.
package projection

import (
	"context"
	"fmt"

	"github.com/startupstarter/admin/shared/events"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/models"
)

type AuditWriter interface {
	Insert(ctx context.Context, e *models.AuditEntry) (bool, error)
}

// AuditProjector writes one audit entry per event. Entries are keyed by the
// event id, so a redelivered event is a no-op.
type AuditProjector struct {
	audit AuditWriter
	log   *logger.Logger
}

func NewAuditProjector(audit AuditWriter, log *logger.Logger) *AuditProjector {
	return &AuditProjector{audit: audit, log: log}
}

func (p *AuditProjector) HandleEvent(ctx context.Context, evt events.Event) error {
	if evt.ID == "" {
		return fmt.Errorf("event without id: %s", evt.Type)
	}
	entry := &models.AuditEntry{
		ID:         evt.ID,
		AccountID:  evt.AccountID,
		ActorID:    evt.ActorID,
		Action:     evt.Type,
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		Details:    events.DataMap(evt),
		CreatedAt:  evt.Timestamp.UTC(),
	}
	written, err := p.audit.Insert(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	if !written {
		p.log.Debug("audit entry already recorded", "eventId", evt.ID)
	}
	return nil
}
