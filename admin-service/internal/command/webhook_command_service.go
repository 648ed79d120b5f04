package command

import (
	"context"

	"github.com/google/uuid"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/events"
	"github.com/startupstarter/admin/shared/models"
	"github.com/startupstarter/admin/shared/utils"
)

type WebhookStore interface {
	Create(ctx context.Context, w *models.Webhook) error
	Update(ctx context.Context, w *models.Webhook) error
	Delete(ctx context.Context, accountID, id string) error
	GetByID(ctx context.Context, accountID, id string) (*models.Webhook, error)
}

// Deliverer performs one delivery attempt and records its outcome.
type Deliverer interface {
	Deliver(ctx context.Context, w *models.Webhook, evt events.Event) (*models.WebhookDelivery, error)
}

type WebhookCommandService struct {
	webhooks  WebhookStore
	deliverer Deliverer
	publisher EventPublisher
	clock     clock.Clock
}

func NewWebhookCommandService(webhooks WebhookStore, deliverer Deliverer, publisher EventPublisher, clk clock.Clock) *WebhookCommandService {
	return &WebhookCommandService{webhooks: webhooks, deliverer: deliverer, publisher: publisher, clock: clk}
}

// CreateWebhook generates the signing secret and returns it once.
func (s *WebhookCommandService) CreateWebhook(ctx context.Context, cmd cqrs.CreateWebhookCommand) (*models.CreatedWebhookView, error) {
	secret, err := utils.RandomHex(32)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	w, err := models.NewWebhook(utils.GenerateID("whk"), cmd.AccountID, cmd.URL, cmd.Description, cmd.Events, secret, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.webhooks.Create(ctx, w); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, w)
	return &models.CreatedWebhookView{WebhookView: *models.NewWebhookView(w), Secret: secret}, nil
}

func (s *WebhookCommandService) UpdateWebhook(ctx context.Context, cmd cqrs.UpdateWebhookCommand) (*models.WebhookView, error) {
	w, err := s.webhooks.GetByID(ctx, cmd.AccountID, cmd.WebhookID)
	if err != nil {
		return nil, err
	}
	active := w.Active
	if cmd.Active != nil {
		active = *cmd.Active
	}
	if err := w.Update(cmd.URL, cmd.Description, cmd.Events, active, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.webhooks.Update(ctx, w); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, w)
	return models.NewWebhookView(w), nil
}

func (s *WebhookCommandService) DeleteWebhook(ctx context.Context, cmd cqrs.DeleteWebhookCommand) error {
	w, err := s.webhooks.GetByID(ctx, cmd.AccountID, cmd.WebhookID)
	if err != nil {
		return err
	}
	w.MarkDeleted(s.clock.Now())
	if err := s.webhooks.Delete(ctx, cmd.AccountID, w.ID); err != nil {
		return err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, w)
	return nil
}

// TestWebhook sends a webhook.ping synchronously, whether or not the webhook
// is active or subscribed to it, and returns the recorded delivery.
func (s *WebhookCommandService) TestWebhook(ctx context.Context, cmd cqrs.TestWebhookCommand) (*models.DeliveryView, error) {
	w, err := s.webhooks.GetByID(ctx, cmd.AccountID, cmd.WebhookID)
	if err != nil {
		return nil, err
	}
	ping := events.Event{
		ID:         uuid.NewString(),
		Type:       models.EventWebhookPing,
		AccountID:  cmd.AccountID,
		ActorID:    cmd.UserID,
		EntityType: models.EntityWebhook,
		EntityID:   w.ID,
		Timestamp:  s.clock.Now(),
		Data:       models.WebhookEventData{WebhookID: w.ID, URL: w.URL, Events: w.Events, Active: w.Active},
	}
	d, err := s.deliverer.Deliver(ctx, w, ping)
	if err != nil {
		return nil, err
	}
	return models.NewDeliveryView(d), nil
}
