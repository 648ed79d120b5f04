package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

const mediaColumns = `id, account_id, file_name, content_type, size_bytes, storage_key, uploaded_by, created_at`

type MediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Create(ctx context.Context, m *models.Media) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO media (id, account_id, file_name, content_type, size_bytes, storage_key, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.AccountID, m.FileName, m.ContentType, m.SizeBytes, m.StorageKey, m.UploadedBy, m.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}
	return nil
}

func (r *MediaRepository) GetByID(ctx context.Context, accountID, id string) (*models.Media, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE account_id = $1 AND id = $2`, accountID, id)
	m, err := scanMedia(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrMediaNotFound, "get media")
	}
	return m, nil
}

func (r *MediaRepository) Delete(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE account_id = $1 AND id = $2`, accountID, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	return requireRow(res, apperrors.ErrMediaNotFound)
}

func (r *MediaRepository) List(ctx context.Context, q cqrs.ListMediaQuery) ([]*models.Media, int, error) {
	f := newFilter("account_id = $1", q.AccountID)
	if q.ContentType != "" {
		f.add("content_type LIKE ?", q.ContentType+"%")
	}
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count media: %w", err)
	}
	limit, args := f.page(q.Limit(), q.Offset())
	rows, err := r.db.QueryContext(ctx, `SELECT `+mediaColumns+` FROM media`+f.where()+` ORDER BY created_at DESC, id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()
	var out []*models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan media: %w", err)
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func scanMedia(row rowScanner) (*models.Media, error) {
	var m models.Media
	if err := row.Scan(&m.ID, &m.AccountID, &m.FileName, &m.ContentType, &m.SizeBytes, &m.StorageKey, &m.UploadedBy, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
