package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/database"
	"github.com/startupstarter/admin/shared/models"
)

var contentConflicts = map[string]*apperrors.AppError{
	"content_account_slug_key": apperrors.ErrSlugTaken,
}

const contentColumns = `id, account_id, title, slug, body, status, author_id, workflow_id, current_step,
	published_at, created_at, updated_at`

type ContentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) Create(ctx context.Context, c *models.Content) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO content (id, account_id, title, slug, body, status, author_id, workflow_id, current_step,
			published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.AccountID, c.Title, c.Slug, c.Body, c.Status, c.AuthorID, c.WorkflowID, c.CurrentStep,
		database.NullTime(c.PublishedAt), c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return conflict(err, "create content", contentConflicts)
	}
	return nil
}

// Save persists the content and, when approval is non-nil, records the
// decision in the same transaction.
func (r *ContentRepository) Save(ctx context.Context, c *models.Content, approval *models.ContentApproval) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE content
			SET title = $3, slug = $4, body = $5, status = $6, workflow_id = $7, current_step = $8,
				published_at = $9, updated_at = $10, deleted_at = $11
			WHERE account_id = $1 AND id = $2 AND deleted_at IS NULL`,
			c.AccountID, c.ID, c.Title, c.Slug, c.Body, c.Status, c.WorkflowID, c.CurrentStep,
			database.NullTime(c.PublishedAt), c.UpdatedAt, database.NullTime(c.DeletedAt),
		)
		if err != nil {
			return conflict(err, "update content", contentConflicts)
		}
		if err := requireRow(res, apperrors.ErrContentNotFound); err != nil {
			return err
		}
		if approval == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO content_approvals (id, account_id, content_id, step, actor_id, decision, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			approval.ID, approval.AccountID, approval.ContentID, approval.Step, approval.ActorID,
			approval.Decision, approval.Comment, approval.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to record approval: %w", err)
		}
		return nil
	})
}

func (r *ContentRepository) GetByID(ctx context.Context, accountID, id string) (*models.Content, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content
		WHERE account_id = $1 AND id = $2 AND deleted_at IS NULL`, accountID, id)
	c, err := scanContent(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrContentNotFound, "get content")
	}
	return c, nil
}

func (r *ContentRepository) List(ctx context.Context, q cqrs.ListContentQuery) ([]*models.Content, int, error) {
	f := newFilter("account_id = $1 AND deleted_at IS NULL", q.AccountID)
	if q.Status != "" {
		f.add("status = ?", q.Status)
	}
	if q.AuthorID != "" {
		f.add("author_id = ?", q.AuthorID)
	}
	if q.Search != "" {
		f.add("(title ILIKE ? OR slug ILIKE ?)", database.LikePattern(q.Search))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count content: %w", err)
	}
	limit, args := f.page(q.Limit(), q.Offset())
	rows, err := r.db.QueryContext(ctx, `SELECT `+contentColumns+` FROM content`+f.where()+` ORDER BY updated_at DESC, id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()
	var out []*models.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan content: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *ContentRepository) ListApprovals(ctx context.Context, accountID, contentID string) ([]*models.ContentApproval, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, content_id, step, actor_id, decision, comment, created_at
		FROM content_approvals WHERE account_id = $1 AND content_id = $2
		ORDER BY created_at, step`, accountID, contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()
	var out []*models.ContentApproval
	for rows.Next() {
		var a models.ContentApproval
		if err := rows.Scan(&a.ID, &a.AccountID, &a.ContentID, &a.Step, &a.ActorID, &a.Decision, &a.Comment, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func scanContent(row rowScanner) (*models.Content, error) {
	var c models.Content
	var published sql.NullTime
	if err := row.Scan(&c.ID, &c.AccountID, &c.Title, &c.Slug, &c.Body, &c.Status, &c.AuthorID, &c.WorkflowID,
		&c.CurrentStep, &published, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.PublishedAt = database.TimePtr(published)
	return &c, nil
}
