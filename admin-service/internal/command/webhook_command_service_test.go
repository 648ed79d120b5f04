package command

import (
	"context"
	"testing"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
	"github.com/stretchr/testify/require"
)

func TestWebhookLifecycle(t *testing.T) {
	req := require.New(t)
	store, deliverer, pub := newFakeWebhooks(), &fakeDeliverer{}, &fakePublisher{}
	svc := NewWebhookCommandService(store, deliverer, pub, newTestClock())
	ctx := context.Background()

	created, err := svc.CreateWebhook(ctx, cqrs.CreateWebhookCommand{
		Actor: adminActor, URL: "https://hooks.example.com/in", Events: []string{models.EventContentPublished, models.EventContentPublished},
	})
	req.NoError(err)
	req.Len(created.Secret, 64)
	req.True(created.Active)
	req.Equal([]string{models.EventContentPublished}, created.Events)

	inactive := false
	updated, err := svc.UpdateWebhook(ctx, cqrs.UpdateWebhookCommand{
		Actor: adminActor, WebhookID: created.ID, URL: "https://hooks.example.com/v2", Events: []string{models.WildcardEvent}, Active: &inactive,
	})
	req.NoError(err)
	req.False(updated.Active)

	updated, err = svc.UpdateWebhook(ctx, cqrs.UpdateWebhookCommand{
		Actor: adminActor, WebhookID: created.ID, URL: "https://hooks.example.com/v3", Events: []string{models.WildcardEvent},
	})
	req.NoError(err)
	req.False(updated.Active, "nil Active keeps the current flag")

	delivery, err := svc.TestWebhook(ctx, cqrs.TestWebhookCommand{Actor: adminActor, WebhookID: created.ID})
	req.NoError(err)
	req.True(delivery.Success)
	req.Len(deliverer.sent, 1)
	req.Equal(models.EventWebhookPing, deliverer.sent[0].Type)

	req.NoError(svc.DeleteWebhook(ctx, cqrs.DeleteWebhookCommand{Actor: adminActor, WebhookID: created.ID}))
	_, err = svc.TestWebhook(ctx, cqrs.TestWebhookCommand{Actor: adminActor, WebhookID: created.ID})
	req.ErrorIs(err, apperrors.ErrWebhookNotFound)

	req.Equal([]string{
		models.EventWebhookCreated, models.EventWebhookUpdated, models.EventWebhookUpdated, models.EventWebhookDeleted,
	}, pub.types())
}

func TestCreateWebhook_Validation(t *testing.T) {
	svc := NewWebhookCommandService(newFakeWebhooks(), &fakeDeliverer{}, &fakePublisher{}, newTestClock())
	for _, cmd := range []cqrs.CreateWebhookCommand{
		{Actor: adminActor, URL: "ftp://example.com", Events: []string{"*"}},
		{Actor: adminActor, URL: "https://example.com"},
		{Actor: adminActor, URL: "https://example.com", Events: []string{" "}},
	} {
		_, err := svc.CreateWebhook(context.Background(), cmd)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.CategoryValidation, appErr.Category)
	}
}
