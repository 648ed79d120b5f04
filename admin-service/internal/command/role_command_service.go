package command

import (
	"context"
	"strings"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
	"github.com/startupstarter/admin/shared/utils"
)

type RoleStore interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, accountID, id string) (*models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, accountID, id string) error
	CountUsers(ctx context.Context, accountID, roleID string) (int, error)
}

type RoleCommandService struct {
	roles     RoleStore
	publisher EventPublisher
	clock     clock.Clock
}

func NewRoleCommandService(roles RoleStore, publisher EventPublisher, clk clock.Clock) *RoleCommandService {
	return &RoleCommandService{roles: roles, publisher: publisher, clock: clk}
}

func (s *RoleCommandService) CreateRole(ctx context.Context, cmd cqrs.CreateRoleCommand) (*models.RoleView, error) {
	role, err := models.NewRole(utils.GenerateID("rol"), cmd.AccountID, strings.TrimSpace(cmd.Name), cmd.Description, cmd.Permissions, false, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, role)
	return models.NewRoleView(role), nil
}

func (s *RoleCommandService) UpdateRole(ctx context.Context, cmd cqrs.UpdateRoleCommand) (*models.RoleView, error) {
	role, err := s.roles.GetByID(ctx, cmd.AccountID, cmd.RoleID)
	if err != nil {
		return nil, err
	}
	if err := role.Update(strings.TrimSpace(cmd.Name), cmd.Description, cmd.Permissions, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, role)
	view := models.NewRoleView(role)
	if view.UserCount, err = s.roles.CountUsers(ctx, cmd.AccountID, role.ID); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *RoleCommandService) DeleteRole(ctx context.Context, cmd cqrs.DeleteRoleCommand) error {
	role, err := s.roles.GetByID(ctx, cmd.AccountID, cmd.RoleID)
	if err != nil {
		return err
	}
	if err := role.MarkDeleted(s.clock.Now()); err != nil {
		return err
	}
	n, err := s.roles.CountUsers(ctx, cmd.AccountID, role.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperrors.ErrRoleInUse
	}
	if err := s.roles.Delete(ctx, cmd.AccountID, role.ID); err != nil {
		return err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, role)
	return nil
}
