package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

const auditColumns = `id, account_id, actor_id, action, entity_type, entity_id, details, created_at`

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert is idempotent on the entry id. It reports whether a row was written.
func (r *AuditRepository) Insert(ctx context.Context, e *models.AuditEntry) (bool, error) {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return false, fmt.Errorf("failed to encode audit details: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, account_id, actor_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.AccountID, e.ActorID, e.Action, e.EntityType, e.EntityID, details, e.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert audit entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *AuditRepository) GetByID(ctx context.Context, accountID, id string) (*models.AuditEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+auditColumns+` FROM audit_entries WHERE account_id = $1 AND id = $2`, accountID, id)
	e, err := scanAudit(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrAuditNotFound, "get audit entry")
	}
	return e, nil
}

func (r *AuditRepository) List(ctx context.Context, q cqrs.ListAuditQuery) ([]*models.AuditEntry, int, error) {
	f := newFilter("account_id = $1", q.AccountID)
	if q.EntityType != "" {
		f.add("entity_type = ?", q.EntityType)
	}
	if q.EntityID != "" {
		f.add("entity_id = ?", q.EntityID)
	}
	if q.ActorID != "" {
		f.add("actor_id = ?", q.ActorID)
	}
	if q.Action != "" {
		f.add("action = ?", q.Action)
	}
	if q.From != nil {
		f.add("created_at >= ?", *q.From)
	}
	if q.To != nil {
		f.add("created_at <= ?", *q.To)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_entries`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	limit, args := f.page(q.Limit(), q.Offset())
	rows, err := r.db.QueryContext(ctx, `SELECT `+auditColumns+` FROM audit_entries`+f.where()+
		` ORDER BY created_at DESC, id DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()
	var out []*models.AuditEntry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func scanAudit(row rowScanner) (*models.AuditEntry, error) {
	var e models.AuditEntry
	var details []byte
	if err := row.Scan(&e.ID, &e.AccountID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &details, &e.CreatedAt); err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("failed to decode audit details: %w", err)
		}
	}
	return &e, nil
}
