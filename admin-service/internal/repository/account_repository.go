package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/database"
	"github.com/startupstarter/admin/shared/models"
)

var accountConflicts = map[string]*apperrors.AppError{
	"accounts_slug_key":       apperrors.ErrSlugTaken,
	"users_account_email_key": apperrors.ErrEmailTaken,
	"roles_account_name_key":  apperrors.ErrRoleNameTaken,
}

const accountColumns = `id, name, slug, plan, status, owner_user_id, created_at, updated_at`

// AccountWriteRepository handles all state-mutating operations for accounts.
type AccountWriteRepository struct {
	db *sql.DB
}

func NewAccountWriteRepository(db *sql.DB) *AccountWriteRepository {
	return &AccountWriteRepository{db: db}
}

// CreateWithOwner inserts the account, its Administrator role and the owner
// user in one transaction.
func (r *AccountWriteRepository) CreateWithOwner(ctx context.Context, a *models.Account, admin *models.Role, owner *models.User) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, name, slug, plan, status, owner_user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			a.ID, a.Name, a.Slug, a.Plan, a.Status, a.OwnerUserID, a.CreatedAt, a.UpdatedAt,
		); err != nil {
			return conflict(err, "create account", accountConflicts)
		}
		if err := insertRole(ctx, tx, admin); err != nil {
			return err
		}
		return insertUser(ctx, tx, owner)
	})
}

func (r *AccountWriteRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND deleted_at IS NULL`, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrAccountNotFound, "get account")
	}
	return a, nil
}

func (r *AccountWriteRepository) Update(ctx context.Context, a *models.Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET name = $2, plan = $3, status = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL`,
		a.ID, a.Name, a.Plan, a.Status, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return requireRow(res, apperrors.ErrAccountNotFound)
}

// Delete soft-deletes the account together with its users, revoking every
// session and API key so nothing of the tenant can authenticate again.
func (r *AccountWriteRepository) Delete(ctx context.Context, id string, at time.Time) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE accounts SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
		if err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		if err := requireRow(res, apperrors.ErrAccountNotFound); err != nil {
			return err
		}
		stmts := []string{
			`UPDATE users SET deleted_at = $2 WHERE account_id = $1 AND deleted_at IS NULL`,
			`UPDATE sessions SET revoked_at = $2 WHERE account_id = $1 AND revoked_at IS NULL`,
			`UPDATE api_keys SET revoked_at = $2 WHERE account_id = $1 AND revoked_at IS NULL`,
			`UPDATE webhooks SET active = FALSE, updated_at = $2 WHERE account_id = $1`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, id, at); err != nil {
				return fmt.Errorf("failed to cascade account deletion: %w", err)
			}
		}
		return nil
	})
}

func (r *AccountWriteRepository) List(ctx context.Context, q cqrs.ListAccountsQuery) ([]*models.Account, int, error) {
	f := newFilter("deleted_at IS NULL")
	if q.Status != "" {
		f.add("status = ?", q.Status)
	}
	if q.Search != "" {
		f.add("(name ILIKE ? OR slug ILIKE ?)", database.LikePattern(q.Search))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	limit, args := f.page(q.Limit(), q.Offset())
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts`+f.where()+` ORDER BY created_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Slug, &a.Plan, &a.Status, &a.OwnerUserID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
