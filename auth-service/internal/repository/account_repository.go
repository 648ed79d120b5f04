package repository

import (
	"context"
	"database/sql"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/models"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetBySlug(ctx context.Context, slug string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts
		WHERE slug = $1 AND deleted_at IS NULL`, slug)
	a, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrAccountNotFound, "get account by slug")
	}
	return a, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts
		WHERE id = $1 AND deleted_at IS NULL`, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrAccountNotFound, "get account")
	}
	return a, nil
}
