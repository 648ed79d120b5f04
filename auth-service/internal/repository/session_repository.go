package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/database"
	"github.com/startupstarter/admin/shared/models"
)

// SessionRepository stores one row per refresh token family.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, account_id, user_id, refresh_hash, user_agent, ip, expires_at, revoked_at, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.AccountID, s.UserID, s.RefreshHash, s.UserAgent, s.IP, s.ExpiresAt,
		database.NullTime(s.RevokedAt), s.CreatedAt, s.LastUsedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByRefreshHash(ctx context.Context, hash string) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE refresh_hash = $1`, hash)
	s, err := scanSession(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSessionNotFound, "get session")
	}
	return s, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, accountID, id string) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE account_id = $1 AND id = $2`, accountID, id)
	s, err := scanSession(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSessionNotFound, "get session")
	}
	return s, nil
}

// Rotate swaps the refresh hash only if the session still carries prevHash,
// so two concurrent refreshes with the same token cannot both succeed.
func (r *SessionRepository) Rotate(ctx context.Context, s *models.Session, prevHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET refresh_hash = $3, user_agent = $4, ip = $5, expires_at = $6, last_used_at = $7
		WHERE id = $1 AND refresh_hash = $2 AND revoked_at IS NULL`,
		s.ID, prevHash, s.RefreshHash, s.UserAgent, s.IP, s.ExpiresAt, s.LastUsedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to rotate session: %w", err)
	}
	return requireRow(res, apperrors.ErrInvalidToken)
}

// Revoke is a no-op for sessions that are already revoked.
func (r *SessionRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`, id, at); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *SessionRepository) ListActive(ctx context.Context, accountID, userID string, now time.Time) ([]*models.Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions
		WHERE account_id = $1 AND user_id = $2 AND revoked_at IS NULL AND expires_at > $3
		ORDER BY last_used_at DESC`, accountID, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteExpired removes sessions that expired or were revoked before cutoff.
func (r *SessionRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1 OR revoked_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
