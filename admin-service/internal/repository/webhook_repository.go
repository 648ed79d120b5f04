package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

const webhookColumns = `id, account_id, url, description, events, secret, active, created_at, updated_at`

type WebhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(ctx context.Context, w *models.Webhook) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO webhooks (id, account_id, url, description, events, secret, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.ID, w.AccountID, w.URL, w.Description, pq.Array(w.Events), w.Secret, w.Active, w.CreatedAt, w.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}
	return nil
}

func (r *WebhookRepository) Update(ctx context.Context, w *models.Webhook) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE webhooks SET url = $3, description = $4, events = $5, active = $6, updated_at = $7
		WHERE account_id = $1 AND id = $2`,
		w.AccountID, w.ID, w.URL, w.Description, pq.Array(w.Events), w.Active, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update webhook: %w", err)
	}
	return requireRow(res, apperrors.ErrWebhookNotFound)
}

func (r *WebhookRepository) Delete(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM webhooks WHERE account_id = $1 AND id = $2`, accountID, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return requireRow(res, apperrors.ErrWebhookNotFound)
}

func (r *WebhookRepository) GetByID(ctx context.Context, accountID, id string) (*models.Webhook, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE account_id = $1 AND id = $2`, accountID, id)
	w, err := scanWebhook(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrWebhookNotFound, "get webhook")
	}
	return w, nil
}

func (r *WebhookRepository) List(ctx context.Context, accountID string) ([]*models.Webhook, error) {
	return r.list(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
}

// ListSubscribed returns the active webhooks of the account whose event list
// names eventType or the wildcard.
func (r *WebhookRepository) ListSubscribed(ctx context.Context, accountID, eventType string) ([]*models.Webhook, error) {
	return r.list(ctx, `SELECT `+webhookColumns+` FROM webhooks
		WHERE account_id = $1 AND active AND ($2 = ANY(events) OR $3 = ANY(events))
		ORDER BY created_at`, accountID, eventType, models.WildcardEvent)
}

func (r *WebhookRepository) list(ctx context.Context, query string, args ...any) ([]*models.Webhook, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()
	var out []*models.Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *WebhookRepository) CreateDelivery(ctx context.Context, d *models.WebhookDelivery) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO webhook_deliveries (id, webhook_id, account_id, event_id, event_type, status_code, success,
			error, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.WebhookID, d.AccountID, d.EventID, d.EventType, d.StatusCode, d.Success,
		d.Error, d.DurationMs, d.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

func (r *WebhookRepository) ListDeliveries(ctx context.Context, q cqrs.ListDeliveriesQuery) ([]*models.WebhookDelivery, int, error) {
	f := newFilter("account_id = $1 AND webhook_id = $2", q.AccountID, q.WebhookID)
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_deliveries`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count deliveries: %w", err)
	}
	limit, args := f.page(q.Limit(), q.Offset())
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, webhook_id, account_id, event_id, event_type, status_code, success, error, duration_ms, created_at
		FROM webhook_deliveries`+f.where()+` ORDER BY created_at DESC, id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()
	var out []*models.WebhookDelivery
	for rows.Next() {
		var d models.WebhookDelivery
		if err := rows.Scan(&d.ID, &d.WebhookID, &d.AccountID, &d.EventID, &d.EventType, &d.StatusCode,
			&d.Success, &d.Error, &d.DurationMs, &d.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan delivery: %w", err)
		}
		out = append(out, &d)
	}
	return out, total, rows.Err()
}

func scanWebhook(row rowScanner) (*models.Webhook, error) {
	var w models.Webhook
	if err := row.Scan(&w.ID, &w.AccountID, &w.URL, &w.Description, pq.Array(&w.Events), &w.Secret, &w.Active,
		&w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}
