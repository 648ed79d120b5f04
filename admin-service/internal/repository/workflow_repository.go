package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/database"
	"github.com/startupstarter/admin/shared/models"
)

const workflowColumns = `id, account_id, name, description, steps, is_default, created_at, updated_at`

type WorkflowRepository struct {
	db *sql.DB
}

func NewWorkflowRepository(db *sql.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// Create inserts the workflow; a default workflow takes the flag from any
// previous default of the account.
func (r *WorkflowRepository) Create(ctx context.Context, w *models.Workflow) error {
	steps, err := json.Marshal(w.Steps)
	if err != nil {
		return err
	}
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := clearDefault(ctx, tx, w); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO workflows (id, account_id, name, description, steps, is_default, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			w.ID, w.AccountID, w.Name, w.Description, steps, w.IsDefault, w.CreatedAt, w.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create workflow: %w", err)
		}
		return nil
	})
}

func (r *WorkflowRepository) Update(ctx context.Context, w *models.Workflow) error {
	steps, err := json.Marshal(w.Steps)
	if err != nil {
		return err
	}
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := clearDefault(ctx, tx, w); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE workflows SET name = $3, description = $4, steps = $5, is_default = $6, updated_at = $7
			WHERE account_id = $1 AND id = $2`,
			w.AccountID, w.ID, w.Name, w.Description, steps, w.IsDefault, w.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update workflow: %w", err)
		}
		return requireRow(res, apperrors.ErrWorkflowNotFound)
	})
}

func clearDefault(ctx context.Context, tx *sql.Tx, w *models.Workflow) error {
	if !w.IsDefault {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE workflows SET is_default = FALSE, updated_at = $3
		WHERE account_id = $1 AND id <> $2 AND is_default`, w.AccountID, w.ID, w.UpdatedAt); err != nil {
		return fmt.Errorf("failed to clear default workflow: %w", err)
	}
	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE account_id = $1 AND id = $2`, accountID, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	return requireRow(res, apperrors.ErrWorkflowNotFound)
}

func (r *WorkflowRepository) GetByID(ctx context.Context, accountID, id string) (*models.Workflow, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workflowColumns+` FROM workflows WHERE account_id = $1 AND id = $2`, accountID, id)
	w, err := scanWorkflow(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrWorkflowNotFound, "get workflow")
	}
	return w, nil
}

// GetDefault returns the account's default workflow, or nil when it has none.
func (r *WorkflowRepository) GetDefault(ctx context.Context, accountID string) (*models.Workflow, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workflowColumns+` FROM workflows WHERE account_id = $1 AND is_default`, accountID)
	w, err := scanWorkflow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default workflow: %w", err)
	}
	return w, nil
}

// CountPending counts live content waiting on this workflow.
func (r *WorkflowRepository) CountPending(ctx context.Context, accountID, id string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content
		WHERE account_id = $1 AND workflow_id = $2 AND status = $3 AND deleted_at IS NULL`,
		accountID, id, models.ContentPendingReview,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending content: %w", err)
	}
	return n, nil
}

func (r *WorkflowRepository) List(ctx context.Context, accountID string) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+workflowColumns+` FROM workflows WHERE account_id = $1
		ORDER BY is_default DESC, lower(name)`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()
	var out []*models.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var w models.Workflow
	var steps []byte
	if err := row.Scan(&w.ID, &w.AccountID, &w.Name, &w.Description, &steps, &w.IsDefault, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(steps, &w.Steps); err != nil {
		return nil, fmt.Errorf("corrupt workflow steps: %w", err)
	}
	return &w, nil
}
