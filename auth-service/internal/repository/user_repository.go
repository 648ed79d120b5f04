package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/database"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/models"
	sharedredis "github.com/startupstarter/admin/shared/redis"
)

// UserRepository reads users for authentication and persists the login state
// (failed attempts, lock, last login, MFA). Profile fields belong to
// admin-service and are never written here.
type UserRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.UserView]
}

func NewUserRepository(db *sql.DB, redisClient *goredis.Client, log *logger.Logger) *UserRepository {
	return &UserRepository{db: db, cache: sharedredis.NewViewCache[models.UserView](redisClient, log, 0)}
}

// GetByEmail matches the email case-insensitively within one account.
func (r *UserRepository) GetByEmail(ctx context.Context, accountID, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u
		WHERE u.account_id = $1 AND lower(u.email) = lower($2) AND u.deleted_at IS NULL`,
		accountID, strings.TrimSpace(email))
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound, "get user by email")
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, accountID, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u
		WHERE u.account_id = $1 AND u.id = $2 AND u.deleted_at IS NULL`, accountID, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound, "get user")
	}
	return u, nil
}

// RecordFailedLogin increments the counter in one statement and locks an
// active user whose counter reaches maxAttempts. It returns the new counter
// and whether this increment locked the user.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, accountID, userID string, maxAttempts int, now time.Time) (int, bool, error) {
	var failed int
	var status, prevStatus string
	err := r.db.QueryRowContext(ctx, `
		WITH prev AS (
			SELECT id, status FROM users
			WHERE account_id = $1 AND id = $2 AND deleted_at IS NULL
			FOR UPDATE
		)
		UPDATE users u
		SET failed_logins = u.failed_logins + 1,
			status = CASE WHEN $3 > 0 AND u.status = $5 AND u.failed_logins + 1 >= $3 THEN $6 ELSE u.status END,
			updated_at = $4
		FROM prev
		WHERE u.id = prev.id
		RETURNING u.failed_logins, u.status, prev.status`,
		accountID, userID, maxAttempts, now.UTC(), models.UserActive, models.UserLocked,
	).Scan(&failed, &status, &prevStatus)
	if err != nil {
		return 0, false, notFound(err, apperrors.ErrUserNotFound, "record failed login")
	}
	return failed, status == models.UserLocked && prevStatus != models.UserLocked, nil
}

// RecordLogin clears the counter and stamps the login time. Only active users
// are updated, so a lock written since the user was read is never undone;
// that case returns ErrUserLocked.
func (r *UserRepository) RecordLogin(ctx context.Context, u *models.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_logins = 0, last_login_at = $3, updated_at = $4
		WHERE account_id = $1 AND id = $2 AND deleted_at IS NULL AND status = $5`,
		u.AccountID, u.ID, database.NullTime(u.LastLoginAt), u.UpdatedAt, models.UserActive,
	)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return requireRow(res, apperrors.ErrUserLocked)
}

// SaveMFA persists the MFA enrolment fields only.
func (r *UserRepository) SaveMFA(ctx context.Context, u *models.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET mfa_enabled = $3, mfa_secret = $4, updated_at = $5
		WHERE account_id = $1 AND id = $2 AND deleted_at IS NULL`,
		u.AccountID, u.ID, u.MFAEnabled, u.MFASecret, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save mfa state: %w", err)
	}
	return requireRow(res, apperrors.ErrUserNotFound)
}

// Permissions returns the union of the user's role permissions and whether
// one of those roles is a system role.
func (r *UserRepository) Permissions(ctx context.Context, accountID, userID string) ([]string, bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.permissions, r.is_system
		FROM roles r JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1 AND r.account_id = $2`, userID, accountID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load permissions: %w", err)
	}
	defer rows.Close()

	var perms []string
	var system bool
	for rows.Next() {
		var rolePerms []string
		var isSystem bool
		if err := rows.Scan(pq.Array(&rolePerms), &isSystem); err != nil {
			return nil, false, fmt.Errorf("failed to scan permissions: %w", err)
		}
		perms = append(perms, rolePerms...)
		system = system || isSystem
	}
	return perms, system, rows.Err()
}

// CacheUserView refreshes the admin read model after a login state change.
func (r *UserRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	r.cache.Set(ctx, sharedredis.UserViewKey(view.AccountID, view.ID), view)
}
