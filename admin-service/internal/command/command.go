// Package command holds the write side of admin-service. Every service loads
// an aggregate, calls one of its methods, persists it, refreshes the Redis
// read model and publishes the events the aggregate raised.
package command

import (
	"context"

	"github.com/startupstarter/admin/shared/models"
)

// EventPublisher is satisfied by *events.Publisher. Failures are logged by the
// publisher and never fail the command.
type EventPublisher interface {
	PublishDomainEvents(ctx context.Context, accountID, actorID string, evts []models.DomainEvent)
}

type eventSource interface {
	PullEvents() []models.DomainEvent
}

// publish drains the events of every aggregate, in order, in one batch.
func publish(ctx context.Context, p EventPublisher, accountID, actorID string, aggs ...eventSource) {
	var evts []models.DomainEvent
	for _, a := range aggs {
		evts = append(evts, a.PullEvents()...)
	}
	if len(evts) > 0 {
		p.PublishDomainEvents(ctx, accountID, actorID, evts)
	}
}
