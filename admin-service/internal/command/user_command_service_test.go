package command

import (
	"context"
	"testing"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
	"github.com/startupstarter/admin/shared/utils"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc   *UserCommandService
	users *fakeUsers
	views *fakeUserViews
	pub   *fakePublisher
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	hash, err := utils.HashPassword("old-password")
	require.NoError(t, err)

	account := models.NewAccount("acc-1", "Acme", "acme", models.PlanFree, testNow)
	account.OwnerUserID = "usr-owner"
	users := newFakeUsers(
		models.NewUser("usr-owner", "acc-1", "Owner", "owner@acme.test", hash, []string{"rol-admin"}, testNow),
		models.NewUser("usr-admin", "acc-1", "Admin", "admin@acme.test", hash, []string{"rol-admin"}, testNow),
		models.NewUser("usr-bob", "acc-1", "Bob", "bob@acme.test", hash, nil, testNow),
	)
	roles := newFakeRoles(
		models.NewAdministratorRole("rol-admin", "acc-1", testNow),
		mustRole(t, "rol-editor", "acc-1", "Editor", models.PermContentWrite),
	)
	f := &userFixture{users: users, views: newFakeUserViews(), pub: &fakePublisher{}}
	f.svc = NewUserCommandService(users, f.views, roles, newFakeAccounts(account), f.pub, newTestClock())
	return f
}

func mustRole(t *testing.T, id, accountID, name string, perms ...string) *models.Role {
	t.Helper()
	r, err := models.NewRole(id, accountID, name, "", perms, false, testNow)
	require.NoError(t, err)
	return r
}

var adminActor = cqrs.Actor{AccountID: "acc-1", UserID: "usr-admin"}

func TestCreateUser(t *testing.T) {
	req := require.New(t)
	f := newUserFixture(t)

	view, err := f.svc.CreateUser(context.Background(), cqrs.CreateUserCommand{
		Actor: adminActor, Name: "Cy", Email: " cy@acme.test ", Password: "longenough", RoleIDs: []string{"rol-editor"},
	})
	req.NoError(err)
	req.Equal("cy@acme.test", view.Email)
	req.Equal([]string{"rol-editor"}, view.RoleIDs)
	req.Contains(f.views.views, storeKey("acc-1", view.ID))
	req.Equal([]string{models.EventUserCreated}, f.pub.types())
}

func TestCreateUser_Errors(t *testing.T) {
	tests := []struct {
		name string
		cmd  cqrs.CreateUserCommand
		want *apperrors.AppError
	}{
		{
			name: "duplicate email",
			cmd:  cqrs.CreateUserCommand{Actor: adminActor, Name: "B", Email: "bob@acme.test", Password: "longenough"},
			want: apperrors.ErrEmailTaken,
		},
		{
			name: "unknown role",
			cmd:  cqrs.CreateUserCommand{Actor: adminActor, Name: "C", Email: "c@acme.test", Password: "longenough", RoleIDs: []string{"rol-nope"}},
			want: apperrors.ErrRoleNotFound,
		},
		{
			name: "role of another account",
			cmd:  cqrs.CreateUserCommand{Actor: cqrs.Actor{AccountID: "acc-2", UserID: "usr-x"}, Name: "C", Email: "c@acme.test", Password: "longenough", RoleIDs: []string{"rol-editor"}},
			want: apperrors.ErrRoleNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture(t)
			_, err := f.svc.CreateUser(context.Background(), tt.cmd)
			require.ErrorIs(t, err, tt.want)
			require.Empty(t, f.pub.events)
		})
	}

	f := newUserFixture(t)
	_, err := f.svc.CreateUser(context.Background(), cqrs.CreateUserCommand{Actor: adminActor, Name: "D", Email: "d@acme.test", Password: "short"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CategoryValidation, appErr.Category)
}

func TestDeleteUser_Guards(t *testing.T) {
	req := require.New(t)
	f := newUserFixture(t)
	ctx := context.Background()

	req.ErrorIs(f.svc.DeleteUser(ctx, cqrs.DeleteUserCommand{Actor: adminActor, UserID: "usr-admin"}), apperrors.ErrSelfAction)
	req.ErrorIs(f.svc.DeleteUser(ctx, cqrs.DeleteUserCommand{Actor: adminActor, UserID: "usr-owner"}), apperrors.ErrAccountOwner)
	req.ErrorIs(f.svc.DeleteUser(ctx, cqrs.DeleteUserCommand{Actor: adminActor, UserID: "usr-ghost"}), apperrors.ErrUserNotFound)

	req.NoError(f.svc.DeleteUser(ctx, cqrs.DeleteUserCommand{Actor: adminActor, UserID: "usr-bob"}))
	req.NotContains(f.users.byKey, storeKey("acc-1", "usr-bob"))
	req.Equal([]string{"usr-bob"}, f.views.invalidated)
	req.Equal([]string{models.EventUserDeleted}, f.pub.types())
}

func TestLockUnlockUser(t *testing.T) {
	req := require.New(t)
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.LockUser(ctx, cqrs.LockUserCommand{Actor: adminActor, UserID: "usr-admin"})
	req.ErrorIs(err, apperrors.ErrSelfAction)

	view, err := f.svc.LockUser(ctx, cqrs.LockUserCommand{Actor: adminActor, UserID: "usr-bob"})
	req.NoError(err)
	req.Equal(models.UserLocked, view.Status)

	_, err = f.svc.LockUser(ctx, cqrs.LockUserCommand{Actor: adminActor, UserID: "usr-bob"})
	req.ErrorIs(err, apperrors.ErrInvalidTransition)

	f.users.byKey[storeKey("acc-1", "usr-bob")].FailedLogins = 4
	view, err = f.svc.UnlockUser(ctx, cqrs.UnlockUserCommand{Actor: adminActor, UserID: "usr-bob"})
	req.NoError(err)
	req.Equal(models.UserActive, view.Status)
	req.Zero(f.users.byKey[storeKey("acc-1", "usr-bob")].FailedLogins)
	req.Equal([]string{models.EventUserLocked, models.EventUserUnlocked}, f.pub.types())
}

func TestAssignRoles(t *testing.T) {
	req := require.New(t)
	f := newUserFixture(t)

	_, err := f.svc.AssignRoles(context.Background(), cqrs.AssignRolesCommand{Actor: adminActor, UserID: "usr-bob", RoleIDs: []string{"rol-missing"}})
	req.ErrorIs(err, apperrors.ErrRoleNotFound)

	view, err := f.svc.AssignRoles(context.Background(), cqrs.AssignRolesCommand{
		Actor: adminActor, UserID: "usr-bob", RoleIDs: []string{"rol-editor", "rol-editor", "rol-admin"},
	})
	req.NoError(err)
	req.ElementsMatch([]string{"rol-editor", "rol-admin"}, view.RoleIDs)
	req.Equal([]string{models.EventUserRolesAssigned}, f.pub.types())
}

func TestChangePassword(t *testing.T) {
	req := require.New(t)
	f := newUserFixture(t)
	ctx := context.Background()
	bob := cqrs.Actor{AccountID: "acc-1", UserID: "usr-bob"}

	req.ErrorIs(f.svc.ChangePassword(ctx, cqrs.ChangePasswordCommand{Actor: bob, CurrentPassword: "wrong", NewPassword: "new-password"}), apperrors.ErrPasswordMismatch)
	req.ErrorIs(f.svc.ChangePassword(ctx, cqrs.ChangePasswordCommand{Actor: bob, CurrentPassword: "old-password", NewPassword: "old-password"}), apperrors.ErrPasswordUnchanged)

	req.NoError(f.svc.ChangePassword(ctx, cqrs.ChangePasswordCommand{Actor: bob, CurrentPassword: "old-password", NewPassword: "new-password"}))
	req.True(utils.CheckPassword("new-password", f.users.byKey[storeKey("acc-1", "usr-bob")].PasswordHash))
	req.Equal([]string{models.EventUserPasswordChanged}, f.pub.types())
}
