package command

import (
	"context"
	"testing"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
	"github.com/stretchr/testify/require"
)

func TestCreateRole(t *testing.T) {
	req := require.New(t)
	roles := newFakeRoles()
	pub := &fakePublisher{}
	svc := NewRoleCommandService(roles, pub, newTestClock())

	view, err := svc.CreateRole(context.Background(), cqrs.CreateRoleCommand{
		Actor:       adminActor,
		Name:        " Editor ",
		Permissions: []string{models.PermContentWrite, models.PermContentRead, models.PermContentWrite},
	})
	req.NoError(err)
	req.Equal("Editor", view.Name)
	req.Equal([]string{models.PermContentRead, models.PermContentWrite}, view.Permissions)
	req.Equal([]string{models.EventRoleCreated}, pub.types())

	_, err = svc.CreateRole(context.Background(), cqrs.CreateRoleCommand{Actor: adminActor, Name: "editor"})
	req.ErrorIs(err, apperrors.ErrRoleNameTaken)

	_, err = svc.CreateRole(context.Background(), cqrs.CreateRoleCommand{Actor: adminActor, Name: "Root", Permissions: []string{models.PermSystemAdmin}})
	req.ErrorIs(err, apperrors.ErrUnknownPermission)

	_, err = svc.CreateRole(context.Background(), cqrs.CreateRoleCommand{Actor: adminActor, Name: "Typo", Permissions: []string{"content:wirte"}})
	req.ErrorIs(err, apperrors.ErrUnknownPermission)
}

func TestUpdateRole(t *testing.T) {
	req := require.New(t)
	roles := newFakeRoles(models.NewAdministratorRole("rol-admin", "acc-1", testNow), mustRole(t, "rol-editor", "acc-1", "Editor"))
	roles.usage["rol-editor"] = 2
	svc := NewRoleCommandService(roles, &fakePublisher{}, newTestClock())

	_, err := svc.UpdateRole(context.Background(), cqrs.UpdateRoleCommand{Actor: adminActor, RoleID: "rol-admin", Name: "Boss"})
	req.ErrorIs(err, apperrors.ErrSystemRole)

	view, err := svc.UpdateRole(context.Background(), cqrs.UpdateRoleCommand{
		Actor: adminActor, RoleID: "rol-editor", Name: "Writer", Permissions: []string{models.PermMediaWrite},
	})
	req.NoError(err)
	req.Equal("Writer", view.Name)
	req.Equal(2, view.UserCount)
}

func TestDeleteRole(t *testing.T) {
	tests := []struct {
		name   string
		roleID string
		usage  int
		want   error
	}{
		{name: "system role", roleID: "rol-admin", want: apperrors.ErrSystemRole},
		{name: "in use", roleID: "rol-editor", usage: 1, want: apperrors.ErrRoleInUse},
		{name: "missing", roleID: "rol-nope", want: apperrors.ErrRoleNotFound},
		{name: "unused", roleID: "rol-editor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles := newFakeRoles(models.NewAdministratorRole("rol-admin", "acc-1", testNow), mustRole(t, "rol-editor", "acc-1", "Editor"))
			roles.usage[tt.roleID] = tt.usage
			pub := &fakePublisher{}
			svc := NewRoleCommandService(roles, pub, newTestClock())

			err := svc.DeleteRole(context.Background(), cqrs.DeleteRoleCommand{Actor: adminActor, RoleID: tt.roleID})
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
				require.Empty(t, pub.events)
				return
			}
			require.NoError(t, err)
			require.NotContains(t, roles.byKey, storeKey("acc-1", tt.roleID))
			require.Equal(t, []string{models.EventRoleDeleted}, pub.types())
		})
	}
}
