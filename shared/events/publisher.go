package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/metrics"
	"github.com/startupstarter/admin/shared/models"
)

type Publisher struct {
	client *redis.Client
	log    *logger.Logger
}

func NewPublisher(client *redis.Client, log *logger.Logger) *Publisher {
	return &Publisher{client: client, log: log}
}

func (p *Publisher) Publish(ctx context.Context, stream string, event Event) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"event": eventJSON,
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(stream, "error").Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}
	metrics.EventsPublishedTotal.WithLabelValues(stream, "ok").Inc()
	return nil
}

// PublishDomainEvents wraps each aggregate event in an envelope and writes it
// to the stream of its entity type. Failures are logged, not returned: the
// write store already holds the change.
func (p *Publisher) PublishDomainEvents(ctx context.Context, accountID, actorID string, evts []models.DomainEvent) {
	for _, evt := range evts {
		stream := StreamFor(evt.EntityType)
		envelope := FromDomainEvent(uuid.NewString(), accountID, actorID, evt)
		if err := p.Publish(ctx, stream, envelope); err != nil {
			p.log.Error("failed to publish domain event",
				"event_type", evt.Type,
				"entity_id", evt.EntityID,
				"stream", stream,
				"error", err,
			)
		}
	}
}
