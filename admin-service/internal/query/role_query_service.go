package query

import (
	"context"

	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

type RoleReader interface {
	GetByID(ctx context.Context, accountID, id string) (*models.Role, error)
	CountUsers(ctx context.Context, accountID, roleID string) (int, error)
	List(ctx context.Context, accountID string) ([]models.RoleView, error)
}

type RoleQueryService struct {
	roles RoleReader
}

func NewRoleQueryService(roles RoleReader) *RoleQueryService {
	return &RoleQueryService{roles: roles}
}

func (s *RoleQueryService) GetRole(ctx context.Context, q cqrs.GetRoleQuery) (*models.RoleView, error) {
	role, err := s.roles.GetByID(ctx, q.AccountID, q.RoleID)
	if err != nil {
		return nil, err
	}
	view := models.NewRoleView(role)
	if view.UserCount, err = s.roles.CountUsers(ctx, q.AccountID, role.ID); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *RoleQueryService) ListRoles(ctx context.Context, q cqrs.ListRolesQuery) ([]models.RoleView, error) {
	roles, err := s.roles.List(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []models.RoleView{}
	}
	return roles, nil
}

// ListPermissions returns the permissions a tenant role may hold. Platform
// admins also see system:admin.
func (s *RoleQueryService) ListPermissions(platformAdmin bool) []models.Permission {
	out := make([]models.Permission, 0)
	for _, p := range models.Catalogue() {
		if p.Name == models.PermSystemAdmin && !platformAdmin {
			continue
		}
		out = append(out, p)
	}
	return out
}
