package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/database"
	"github.com/startupstarter/admin/shared/models"
)

var roleConflicts = map[string]*apperrors.AppError{
	"roles_account_name_key": apperrors.ErrRoleNameTaken,
}

const roleColumns = `r.id, r.account_id, r.name, r.description, r.permissions, r.is_system, r.created_at, r.updated_at`

type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	return insertRole(ctx, r.db, role)
}

func (r *RoleRepository) GetByID(ctx context.Context, accountID, id string) (*models.Role, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles r WHERE r.account_id = $1 AND r.id = $2`, accountID, id)
	role, err := scanRole(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrRoleNotFound, "get role")
	}
	return role, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, accountID, name string) (*models.Role, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles r WHERE r.account_id = $1 AND lower(r.name) = lower($2)`, accountID, name)
	role, err := scanRole(row)
	if err != nil {
		return nil, notFound(err, apperrors.ErrRoleNotFound.WithMessage("role "+name+" not found"), "get role")
	}
	return role, nil
}

func (r *RoleRepository) Update(ctx context.Context, role *models.Role) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE roles SET name = $3, description = $4, permissions = $5, updated_at = $6
		WHERE account_id = $1 AND id = $2`,
		role.AccountID, role.ID, role.Name, role.Description, pq.Array(role.Permissions), role.UpdatedAt,
	)
	if err != nil {
		return conflict(err, "update role", roleConflicts)
	}
	return requireRow(res, apperrors.ErrRoleNotFound)
}

func (r *RoleRepository) Delete(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE account_id = $1 AND id = $2`, accountID, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return requireRow(res, apperrors.ErrRoleNotFound)
}

// CountUsers counts live users holding the role.
func (r *RoleRepository) CountUsers(ctx context.Context, accountID, roleID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM user_roles ur JOIN users u ON u.id = ur.user_id
		WHERE u.account_id = $1 AND ur.role_id = $2 AND u.deleted_at IS NULL`, accountID, roleID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count role users: %w", err)
	}
	return n, nil
}

// MissingIDs returns the ids that are not roles of the account.
func (r *RoleRepository) MissingIDs(ctx context.Context, accountID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT want FROM unnest($2::text[]) AS want
		WHERE NOT EXISTS (SELECT 1 FROM roles r WHERE r.account_id = $1 AND r.id = want)`,
		accountID, pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to check roles: %w", err)
	}
	defer rows.Close()
	var missing []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}

// List returns every role of the account with its live user count.
func (r *RoleRepository) List(ctx context.Context, accountID string) ([]models.RoleView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+roleColumns+`,
			(SELECT COUNT(*) FROM user_roles ur JOIN users u ON u.id = ur.user_id
			 WHERE ur.role_id = r.id AND u.deleted_at IS NULL)
		FROM roles r WHERE r.account_id = $1
		ORDER BY r.is_system DESC, lower(r.name)`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	out := []models.RoleView{}
	for rows.Next() {
		var role models.Role
		var count int
		if err := rows.Scan(&role.ID, &role.AccountID, &role.Name, &role.Description, pq.Array(&role.Permissions),
			&role.IsSystem, &role.CreatedAt, &role.UpdatedAt, &count); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		view := models.NewRoleView(&role)
		view.UserCount = count
		out = append(out, *view)
	}
	return out, rows.Err()
}

func insertRole(ctx context.Context, q database.Querier, role *models.Role) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO roles (id, account_id, name, description, permissions, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		role.ID, role.AccountID, role.Name, role.Description, pq.Array(role.Permissions), role.IsSystem,
		role.CreatedAt, role.UpdatedAt,
	); err != nil {
		return conflict(err, "create role", roleConflicts)
	}
	return nil
}

func scanRole(row rowScanner) (*models.Role, error) {
	var role models.Role
	if err := row.Scan(&role.ID, &role.AccountID, &role.Name, &role.Description, pq.Array(&role.Permissions),
		&role.IsSystem, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return nil, err
	}
	return &role, nil
}
