// Package dispatch delivers domain events to tenant webhooks. Each event gets
// exactly one POST per subscribed webhook; failures are recorded, never retried.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/events"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/metrics"
	"github.com/startupstarter/admin/shared/models"
	"github.com/startupstarter/admin/shared/utils"
)

const (
	HeaderEvent     = "X-Webhook-Event"
	HeaderID        = "X-Webhook-Id"
	HeaderSignature = "X-Webhook-Signature"

	// ProcessedTTL bounds how long dispatched event ids are remembered.
	ProcessedTTL = 72 * time.Hour

	maxErrorLen = 500
)

type DeliveryStore interface {
	ListSubscribed(ctx context.Context, accountID, eventType string) ([]*models.Webhook, error)
	CreateDelivery(ctx context.Context, d *models.WebhookDelivery) error
}

// ProcessedSet remembers event ids that were already dispatched.
type ProcessedSet interface {
	Seen(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string) error
}

type Dispatcher struct {
	store     DeliveryStore
	processed ProcessedSet
	client    *http.Client
	clock     clock.Clock
	log       *logger.Logger
}

func NewDispatcher(store DeliveryStore, processed ProcessedSet, timeout time.Duration, clk clock.Clock, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		processed: processed,
		client:    &http.Client{Timeout: timeout},
		clock:     clk,
		log:       log,
	}
}

// HandleEvent is the subscriber handler. It only fails when the subscribed
// webhooks cannot be listed, so the event stays pending and is read again.
func (d *Dispatcher) HandleEvent(ctx context.Context, evt events.Event) error {
	if evt.AccountID == "" {
		return nil
	}
	seen, err := d.processed.Seen(ctx, evt.ID)
	if err != nil {
		d.log.Warn("processed-event lookup failed", "eventId", evt.ID, "error", err)
	}
	if seen {
		d.log.Debug("event already dispatched, skipping", "eventId", evt.ID)
		return nil
	}

	hooks, err := d.store.ListSubscribed(ctx, evt.AccountID, evt.Type)
	if err != nil {
		return fmt.Errorf("failed to list webhooks: %w", err)
	}
	for _, w := range hooks {
		if _, err := d.Deliver(ctx, w, evt); err != nil {
			d.log.Error("failed to record webhook delivery", "webhookId", w.ID, "eventId", evt.ID, "error", err)
		}
	}
	if err := d.processed.Mark(ctx, evt.ID); err != nil {
		d.log.Warn("failed to mark event dispatched", "eventId", evt.ID, "error", err)
	}
	return nil
}

// Deliver makes one signed POST of evt to w and records the outcome. The
// returned error only reports a failure to record the delivery.
func (d *Dispatcher) Deliver(ctx context.Context, w *models.Webhook, evt events.Event) (*models.WebhookDelivery, error) {
	delivery := &models.WebhookDelivery{
		ID:        utils.GenerateID("dlv"),
		WebhookID: w.ID,
		AccountID: w.AccountID,
		EventID:   evt.ID,
		EventType: evt.Type,
		CreatedAt: d.clock.Now(),
	}

	start := time.Now()
	status, err := d.post(ctx, w, evt)
	elapsed := time.Since(start)
	delivery.DurationMs = elapsed.Milliseconds()
	delivery.StatusCode = status
	switch {
	case err != nil:
		delivery.Error = truncate(err.Error())
	case status < 200 || status > 299:
		delivery.Error = fmt.Sprintf("unexpected status %d", status)
	default:
		delivery.Success = true
	}

	result := "failed"
	if delivery.Success {
		result = "succeeded"
	}
	metrics.WebhookDeliveriesTotal.WithLabelValues(result).Inc()
	metrics.WebhookDeliveryDurationSeconds.Observe(elapsed.Seconds())
	d.log.Info("webhook delivered",
		"webhookId", w.ID,
		"eventId", evt.ID,
		"eventType", evt.Type,
		"status", status,
		"success", delivery.Success,
	)

	if err := d.store.CreateDelivery(ctx, delivery); err != nil {
		return delivery, err
	}
	return delivery, nil
}

func (d *Dispatcher) post(ctx context.Context, w *models.Webhook, evt events.Event) (int, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return 0, fmt.Errorf("failed to encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "admin-webhooks/1.0")
	req.Header.Set(HeaderEvent, evt.Type)
	req.Header.Set(HeaderID, evt.ID)
	req.Header.Set(HeaderSignature, "sha256="+utils.SignHMAC(w.Secret, body))

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}

// truncate cuts s to at most maxErrorLen bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxErrorLen {
		return s
	}
	n := maxErrorLen
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
