package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/database"
	"github.com/startupstarter/admin/shared/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error, sentinel *apperrors.AppError, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func requireRow(res sql.Result, sentinel *apperrors.AppError) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel
	}
	return nil
}

const userColumns = `u.id, u.account_id, u.name, u.email, u.password_hash, u.status,
	u.mfa_enabled, u.mfa_secret, u.failed_logins, u.last_login_at, u.created_at, u.updated_at,
	ARRAY(SELECT ur.role_id FROM user_roles ur WHERE ur.user_id = u.id ORDER BY ur.role_id)`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime
	if err := row.Scan(&u.ID, &u.AccountID, &u.Name, &u.Email, &u.PasswordHash, &u.Status,
		&u.MFAEnabled, &u.MFASecret, &u.FailedLogins, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
		pq.Array(&u.RoleIDs)); err != nil {
		return nil, err
	}
	u.LastLoginAt = database.TimePtr(lastLogin)
	return &u, nil
}

const accountColumns = `id, name, slug, plan, status, owner_user_id, created_at, updated_at, deleted_at`

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	var deleted sql.NullTime
	if err := row.Scan(&a.ID, &a.Name, &a.Slug, &a.Plan, &a.Status, &a.OwnerUserID,
		&a.CreatedAt, &a.UpdatedAt, &deleted); err != nil {
		return nil, err
	}
	a.DeletedAt = database.TimePtr(deleted)
	return &a, nil
}

const sessionColumns = `id, account_id, user_id, refresh_hash, user_agent, ip, expires_at, revoked_at, created_at, last_used_at`

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	var revoked sql.NullTime
	if err := row.Scan(&s.ID, &s.AccountID, &s.UserID, &s.RefreshHash, &s.UserAgent, &s.IP,
		&s.ExpiresAt, &revoked, &s.CreatedAt, &s.LastUsedAt); err != nil {
		return nil, err
	}
	s.RevokedAt = database.TimePtr(revoked)
	return &s, nil
}
