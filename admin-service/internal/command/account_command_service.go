package command

import (
	"context"
	"time"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
	"github.com/startupstarter/admin/shared/utils"
)

type AccountStore interface {
	CreateWithOwner(ctx context.Context, a *models.Account, admin *models.Role, owner *models.User) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	Update(ctx context.Context, a *models.Account) error
	Delete(ctx context.Context, id string, at time.Time) error
}

type AccountViewCache interface {
	CacheAccountView(ctx context.Context, view *models.AccountView)
	InvalidateAccountView(ctx context.Context, accountID string)
}

// SignupResult is returned by the public signup.
type SignupResult struct {
	Account *models.AccountView `json:"account"`
	Owner   *models.UserView    `json:"owner"`
}

// AccountCommandService writes account state and keeps the read model in sync.
type AccountCommandService struct {
	accounts  AccountStore
	views     AccountViewCache
	publisher EventPublisher
	clock     clock.Clock
}

func NewAccountCommandService(accounts AccountStore, views AccountViewCache, publisher EventPublisher, clk clock.Clock) *AccountCommandService {
	return &AccountCommandService{accounts: accounts, views: views, publisher: publisher, clock: clk}
}

func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*SignupResult, error) {
	slug := cmd.Slug
	if slug == "" {
		slug = utils.Slugify(cmd.Name)
	}
	if !utils.ValidSlug(slug) {
		return nil, apperrors.Validation("slug may only contain lowercase letters, digits and dashes")
	}
	plan := cmd.Plan
	if plan == "" {
		plan = models.PlanFree
	}
	hash, err := utils.HashPassword(cmd.OwnerPassword)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}

	now := s.clock.Now()
	account := models.NewAccount(utils.GenerateID("acc"), cmd.Name, slug, plan, now)
	admin := models.NewAdministratorRole(utils.GenerateID("rol"), account.ID, now)
	owner := models.NewUser(utils.GenerateID("usr"), account.ID, cmd.OwnerName, cmd.OwnerEmail, hash, []string{admin.ID}, now)
	account.OwnerUserID = owner.ID

	if err := s.accounts.CreateWithOwner(ctx, account, admin, owner); err != nil {
		return nil, err
	}
	view := models.NewAccountView(account)
	s.views.CacheAccountView(ctx, view)
	publish(ctx, s.publisher, account.ID, owner.ID, account, admin, owner)
	return &SignupResult{Account: view, Owner: models.NewUserView(owner)}, nil
}

func (s *AccountCommandService) UpdateAccount(ctx context.Context, cmd cqrs.UpdateAccountCommand) (*models.AccountView, error) {
	account, err := s.accounts.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return nil, err
	}
	account.Update(cmd.Name, cmd.Plan, s.clock.Now())
	return s.save(ctx, account, cmd.Actor)
}

// DeleteAccount is reserved to the account owner.
func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error {
	account, err := s.accounts.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return err
	}
	if account.OwnerUserID != cmd.UserID {
		return apperrors.ErrForbidden.WithMessage("only the account owner can delete the account")
	}
	now := s.clock.Now()
	account.MarkDeleted(now)
	if err := s.accounts.Delete(ctx, account.ID, now); err != nil {
		return err
	}
	s.views.InvalidateAccountView(ctx, account.ID)
	publish(ctx, s.publisher, account.ID, cmd.UserID, account)
	return nil
}

func (s *AccountCommandService) SuspendAccount(ctx context.Context, cmd cqrs.SuspendAccountCommand) (*models.AccountView, error) {
	account, err := s.accounts.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return nil, err
	}
	if err := account.Suspend(s.clock.Now()); err != nil {
		return nil, err
	}
	return s.save(ctx, account, cmd.Actor)
}

func (s *AccountCommandService) ReactivateAccount(ctx context.Context, cmd cqrs.ReactivateAccountCommand) (*models.AccountView, error) {
	account, err := s.accounts.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return nil, err
	}
	if err := account.Reactivate(s.clock.Now()); err != nil {
		return nil, err
	}
	return s.save(ctx, account, cmd.Actor)
}

// save persists the account and publishes its events on the account's own
// stream, whoever the actor is.
func (s *AccountCommandService) save(ctx context.Context, account *models.Account, actor cqrs.Actor) (*models.AccountView, error) {
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	view := models.NewAccountView(account)
	s.views.CacheAccountView(ctx, view)
	publish(ctx, s.publisher, account.ID, actor.UserID, account)
	return view, nil
}
