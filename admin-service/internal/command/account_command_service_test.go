package command

import (
	"context"
	"testing"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
	"github.com/stretchr/testify/require"
)

func newAccountService(accounts *fakeAccounts) (*AccountCommandService, *fakeAccountViews, *fakePublisher) {
	views := newFakeAccountViews()
	pub := &fakePublisher{}
	return NewAccountCommandService(accounts, views, pub, newTestClock()), views, pub
}

func TestCreateAccount(t *testing.T) {
	req := require.New(t)
	accounts := newFakeAccounts()
	svc, views, pub := newAccountService(accounts)

	res, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{
		Name:          "Acme Widgets Ltd",
		OwnerName:     "Ada",
		OwnerEmail:    "ada@acme.test",
		OwnerPassword: "correct horse",
	})
	req.NoError(err)
	req.Equal("acme-widgets-ltd", res.Account.Slug)
	req.Equal(models.PlanFree, res.Account.Plan)
	req.Equal(res.Owner.ID, res.Account.OwnerUserID)
	req.Len(accounts.roles, 1)
	req.True(accounts.roles[0].IsSystem)
	req.Equal([]string{accounts.roles[0].ID}, accounts.users[0].RoleIDs)
	req.NotEqual("correct horse", accounts.users[0].PasswordHash)
	req.Contains(views.views, res.Account.ID)
	req.Equal([]string{models.EventAccountCreated, models.EventRoleCreated, models.EventUserCreated}, pub.types())
	for _, acc := range pub.accountIDs {
		req.Equal(res.Account.ID, acc)
	}
}

func TestCreateAccount_SlugConflictAndValidation(t *testing.T) {
	req := require.New(t)
	existing := models.NewAccount("acc-1", "Acme", "acme", models.PlanPro, testNow)
	svc, _, pub := newAccountService(newFakeAccounts(existing))

	_, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{
		Name: "Acme", OwnerName: "Bo", OwnerEmail: "bo@acme.test", OwnerPassword: "password1",
	})
	req.ErrorIs(err, apperrors.ErrSlugTaken)

	_, err = svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{
		Name: "Other", Slug: "Not A Slug", OwnerName: "Bo", OwnerEmail: "bo@acme.test", OwnerPassword: "password1",
	})
	req.Error(err)
	appErr, ok := apperrors.AsAppError(err)
	req.True(ok)
	req.Equal(apperrors.CategoryValidation, appErr.Category)
	req.Empty(pub.events)
}

func TestDeleteAccount_OwnerOnly(t *testing.T) {
	req := require.New(t)
	account := models.NewAccount("acc-1", "Acme", "acme", models.PlanFree, testNow)
	account.OwnerUserID = "usr-owner"
	accounts := newFakeAccounts(account)
	svc, views, pub := newAccountService(accounts)

	err := svc.DeleteAccount(context.Background(), cqrs.DeleteAccountCommand{Actor: cqrs.Actor{AccountID: "acc-1", UserID: "usr-other"}})
	req.ErrorIs(err, apperrors.ErrForbidden)

	err = svc.DeleteAccount(context.Background(), cqrs.DeleteAccountCommand{Actor: cqrs.Actor{AccountID: "acc-1", UserID: "usr-owner"}})
	req.NoError(err)
	req.Contains(accounts.deleted, "acc-1")
	req.Equal([]string{"acc-1"}, views.invalidated)
	req.Equal([]string{models.EventAccountDeleted}, pub.types())
}

func TestSuspendAndReactivateAccount(t *testing.T) {
	req := require.New(t)
	accounts := newFakeAccounts(models.NewAccount("acc-2", "Beta", "beta", models.PlanFree, testNow))
	svc, _, pub := newAccountService(accounts)
	platform := cqrs.Actor{AccountID: "acc-platform", UserID: "usr-root"}

	view, err := svc.SuspendAccount(context.Background(), cqrs.SuspendAccountCommand{Actor: platform, AccountID: "acc-2"})
	req.NoError(err)
	req.Equal(models.AccountSuspended, view.Status)

	_, err = svc.SuspendAccount(context.Background(), cqrs.SuspendAccountCommand{Actor: platform, AccountID: "acc-2"})
	req.ErrorIs(err, apperrors.ErrInvalidTransition)

	view, err = svc.ReactivateAccount(context.Background(), cqrs.ReactivateAccountCommand{Actor: platform, AccountID: "acc-2"})
	req.NoError(err)
	req.Equal(models.AccountActive, view.Status)

	req.Equal([]string{models.EventAccountSuspended, models.EventAccountReactivated}, pub.types())
	req.Equal([]string{"acc-2", "acc-2"}, pub.accountIDs)
	req.Equal("usr-root", pub.actorIDs[0])
}

func TestUpdateAccount(t *testing.T) {
	req := require.New(t)
	accounts := newFakeAccounts(models.NewAccount("acc-1", "Acme", "acme", models.PlanFree, testNow))
	svc, views, _ := newAccountService(accounts)

	view, err := svc.UpdateAccount(context.Background(), cqrs.UpdateAccountCommand{
		Actor: cqrs.Actor{AccountID: "acc-1", UserID: "usr-1"}, Name: "Acme Corp", Plan: models.PlanEnterprise,
	})
	req.NoError(err)
	req.Equal("Acme Corp", view.Name)
	req.Equal(models.PlanEnterprise, accounts.byID["acc-1"].Plan)
	req.Equal("Acme Corp", views.views["acc-1"].Name)
}
