package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/database"
	"github.com/startupstarter/admin/shared/models"
)

const apiKeyColumns = `id, account_id, name, prefix, key_hash, scopes, created_by, expires_at, last_used_at, revoked_at, created_at`

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Create(ctx context.Context, k *models.APIKey) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, account_id, name, prefix, key_hash, scopes, created_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		k.ID, k.AccountID, k.Name, k.Prefix, k.KeyHash, pq.Array(k.Scopes), k.CreatedBy,
		database.NullTime(k.ExpiresAt), k.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

func (r *APIKeyRepository) GetByID(ctx context.Context, accountID, id string) (*models.APIKey, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE account_id = $1 AND id = $2`, accountID, id)
	k, err := scanAPIKey(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrAPIKeyNotFound, "get api key")
	}
	return k, nil
}

// GetByPrefix is the authentication lookup; it is not tenant scoped.
func (r *APIKeyRepository) GetByPrefix(ctx context.Context, prefix string) (*models.APIKey, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE prefix = $1`, prefix)
	k, err := scanAPIKey(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrAPIKeyNotFound, "get api key")
	}
	return k, nil
}

func (r *APIKeyRepository) Revoke(ctx context.Context, k *models.APIKey) error {
	res, err := r.db.ExecContext(ctx, `UPDATE api_keys SET revoked_at = $3 WHERE account_id = $1 AND id = $2`,
		k.AccountID, k.ID, database.NullTime(k.RevokedAt))
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	return requireRow(res, apperrors.ErrAPIKeyNotFound)
}

func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}

func (r *APIKeyRepository) List(ctx context.Context, accountID string, includeRevoked bool) ([]*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE account_id = $1`
	if !includeRevoked {
		query += ` AND revoked_at IS NULL`
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()
	var out []*models.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func scanAPIKey(row rowScanner) (*models.APIKey, error) {
	var k models.APIKey
	var expires, lastUsed, revoked sql.NullTime
	if err := row.Scan(&k.ID, &k.AccountID, &k.Name, &k.Prefix, &k.KeyHash, pq.Array(&k.Scopes), &k.CreatedBy,
		&expires, &lastUsed, &revoked, &k.CreatedAt); err != nil {
		return nil, err
	}
	k.ExpiresAt = database.TimePtr(expires)
	k.LastUsedAt = database.TimePtr(lastUsed)
	k.RevokedAt = database.TimePtr(revoked)
	return &k, nil
}
