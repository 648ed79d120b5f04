package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/database"
	"github.com/startupstarter/admin/shared/models"
)

var userConflicts = map[string]*apperrors.AppError{
	"users_account_email_key": apperrors.ErrEmailTaken,
}

const userColumns = `u.id, u.account_id, u.name, u.email, u.password_hash, u.status,
	u.mfa_enabled, u.mfa_secret, u.failed_logins, u.last_login_at, u.created_at, u.updated_at,
	ARRAY(SELECT ur.role_id FROM user_roles ur WHERE ur.user_id = u.id ORDER BY ur.role_id)`

// UserWriteRepository handles all state-mutating operations for users.
// It operates exclusively against the PostgreSQL write store (source of truth).
type UserWriteRepository struct {
	db *sql.DB
}

func NewUserWriteRepository(db *sql.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

func (r *UserWriteRepository) Create(ctx context.Context, u *models.User) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertUser(ctx, tx, u)
	})
}

// GetByID fetches the full write model (including PasswordHash) for internal operations.
func (r *UserWriteRepository) GetByID(ctx context.Context, accountID, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u
		WHERE u.account_id = $1 AND u.id = $2 AND u.deleted_at IS NULL`, accountID, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound, "get user")
	}
	return u, nil
}

// Update persists every mutable field and replaces the role set.
func (r *UserWriteRepository) Update(ctx context.Context, u *models.User) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE users
			SET name = $3, email = $4, password_hash = $5, status = $6, mfa_enabled = $7,
				mfa_secret = $8, failed_logins = $9, last_login_at = $10, updated_at = $11
			WHERE account_id = $1 AND id = $2 AND deleted_at IS NULL`,
			u.AccountID, u.ID, u.Name, u.Email, u.PasswordHash, u.Status, u.MFAEnabled,
			u.MFASecret, u.FailedLogins, database.NullTime(u.LastLoginAt), u.UpdatedAt,
		)
		if err != nil {
			return conflict(err, "update user", userConflicts)
		}
		if err := requireRow(res, apperrors.ErrUserNotFound); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, u.ID); err != nil {
			return fmt.Errorf("failed to clear roles: %w", err)
		}
		return insertUserRoles(ctx, tx, u)
	})
}

// Delete soft-deletes the user and revokes their sessions.
func (r *UserWriteRepository) Delete(ctx context.Context, accountID, id string, at time.Time) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE users SET deleted_at = $3, updated_at = $3
			WHERE account_id = $1 AND id = $2 AND deleted_at IS NULL`, accountID, id, at)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if err := requireRow(res, apperrors.ErrUserNotFound); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE sessions SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`, id, at); err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		return nil
	})
}

func (r *UserWriteRepository) List(ctx context.Context, q cqrs.ListUsersQuery) ([]*models.User, int, error) {
	f := newFilter("u.account_id = $1 AND u.deleted_at IS NULL", q.AccountID)
	if q.Status != "" {
		f.add("u.status = ?", q.Status)
	}
	if q.Search != "" {
		f.add("(u.name ILIKE ? OR u.email ILIKE ?)", database.LikePattern(q.Search))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	limit, args := f.page(q.Limit(), q.Offset())
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users u`+f.where()+` ORDER BY u.created_at DESC, u.id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func insertUser(ctx context.Context, q database.Querier, u *models.User) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO users (id, account_id, name, email, password_hash, status, mfa_enabled, mfa_secret,
			failed_logins, last_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.AccountID, u.Name, u.Email, u.PasswordHash, u.Status, u.MFAEnabled, u.MFASecret,
		u.FailedLogins, database.NullTime(u.LastLoginAt), u.CreatedAt, u.UpdatedAt,
	); err != nil {
		return conflict(err, "create user", userConflicts)
	}
	return insertUserRoles(ctx, q, u)
}

func insertUserRoles(ctx context.Context, q database.Querier, u *models.User) error {
	if len(u.RoleIDs) == 0 {
		return nil
	}
	// Only roles of the user's own account are linked.
	if _, err := q.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, r.id FROM roles r WHERE r.account_id = $2 AND r.id = ANY($3)`,
		u.ID, u.AccountID, pq.Array(u.RoleIDs),
	); err != nil {
		return fmt.Errorf("failed to assign roles: %w", err)
	}
	return nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime
	if err := row.Scan(
		&u.ID, &u.AccountID, &u.Name, &u.Email, &u.PasswordHash, &u.Status,
		&u.MFAEnabled, &u.MFASecret, &u.FailedLogins, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
		stringArray(&u.RoleIDs),
	); err != nil {
		return nil, err
	}
	u.LastLoginAt = database.TimePtr(lastLogin)
	return &u, nil
}
