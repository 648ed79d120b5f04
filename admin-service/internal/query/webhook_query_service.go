package query

import (
	"context"

	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

type WebhookReader interface {
	GetByID(ctx context.Context, accountID, id string) (*models.Webhook, error)
	List(ctx context.Context, accountID string) ([]*models.Webhook, error)
	ListDeliveries(ctx context.Context, q cqrs.ListDeliveriesQuery) ([]*models.WebhookDelivery, int, error)
}

type WebhookQueryService struct {
	webhooks WebhookReader
}

func NewWebhookQueryService(webhooks WebhookReader) *WebhookQueryService {
	return &WebhookQueryService{webhooks: webhooks}
}

func (s *WebhookQueryService) GetWebhook(ctx context.Context, q cqrs.GetWebhookQuery) (*models.WebhookView, error) {
	w, err := s.webhooks.GetByID(ctx, q.AccountID, q.WebhookID)
	if err != nil {
		return nil, err
	}
	return models.NewWebhookView(w), nil
}

func (s *WebhookQueryService) ListWebhooks(ctx context.Context, q cqrs.ListWebhooksQuery) ([]models.WebhookView, error) {
	rows, err := s.webhooks.List(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}
	return views(rows, models.NewWebhookView), nil
}

// ListDeliveries lists deliveries of one webhook, or of the whole account
// when WebhookID is empty.
func (s *WebhookQueryService) ListDeliveries(ctx context.Context, q cqrs.ListDeliveriesQuery) (*models.PagedResult[models.DeliveryView], error) {
	if q.WebhookID != "" {
		if _, err := s.webhooks.GetByID(ctx, q.AccountID, q.WebhookID); err != nil {
			return nil, err
		}
	}
	rows, total, err := s.webhooks.ListDeliveries(ctx, q)
	if err != nil {
		return nil, err
	}
	return paged(rows, total, q.Page, models.NewDeliveryView), nil
}
