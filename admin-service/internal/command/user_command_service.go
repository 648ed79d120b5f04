package command

import (
	"context"
	"strings"
	"time"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
	"github.com/startupstarter/admin/shared/utils"
)

const minPasswordLength = 8

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, accountID, id string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, accountID, id string, at time.Time) error
}

type UserViewCache interface {
	CacheUserView(ctx context.Context, view *models.UserView)
	InvalidateUserView(ctx context.Context, accountID, userID string)
}

// RoleChecker reports which of the given role ids do not exist in the account.
type RoleChecker interface {
	MissingIDs(ctx context.Context, accountID string, ids []string) ([]string, error)
}

// AccountOwnerLookup resolves the owner of an account.
type AccountOwnerLookup interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

// UserCommandService handles user writes and keeps the read model in sync.
type UserCommandService struct {
	users     UserStore
	views     UserViewCache
	roles     RoleChecker
	accounts  AccountOwnerLookup
	publisher EventPublisher
	clock     clock.Clock
}

func NewUserCommandService(users UserStore, views UserViewCache, roles RoleChecker, accounts AccountOwnerLookup, publisher EventPublisher, clk clock.Clock) *UserCommandService {
	return &UserCommandService{users: users, views: views, roles: roles, accounts: accounts, publisher: publisher, clock: clk}
}

func (s *UserCommandService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.UserView, error) {
	if len(cmd.Password) < minPasswordLength {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}
	if err := s.checkRoles(ctx, cmd.AccountID, cmd.RoleIDs); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	user := models.NewUser(utils.GenerateID("usr"), cmd.AccountID, cmd.Name, strings.TrimSpace(cmd.Email), hash, cmd.RoleIDs, s.clock.Now())
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.refresh(ctx, user, cmd.Actor), nil
}

func (s *UserCommandService) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	user, err := s.users.GetByID(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	user.Update(cmd.Name, strings.TrimSpace(cmd.Email), s.clock.Now())
	return s.save(ctx, user, cmd.Actor)
}

// DeleteUser refuses to remove the caller or the account owner.
func (s *UserCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) error {
	if cmd.UserID == cmd.Actor.UserID {
		return apperrors.ErrSelfAction
	}
	account, err := s.accounts.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return err
	}
	if account.OwnerUserID == cmd.UserID {
		return apperrors.ErrAccountOwner
	}
	user, err := s.users.GetByID(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	user.MarkDeleted(now)
	if err := s.users.Delete(ctx, user.AccountID, user.ID, now); err != nil {
		return err
	}
	s.views.InvalidateUserView(ctx, user.AccountID, user.ID)
	publish(ctx, s.publisher, cmd.AccountID, cmd.Actor.UserID, user)
	return nil
}

func (s *UserCommandService) LockUser(ctx context.Context, cmd cqrs.LockUserCommand) (*models.UserView, error) {
	if cmd.UserID == cmd.Actor.UserID {
		return nil, apperrors.ErrSelfAction
	}
	user, err := s.users.GetByID(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if err := user.Lock(s.clock.Now()); err != nil {
		return nil, err
	}
	return s.save(ctx, user, cmd.Actor)
}

func (s *UserCommandService) UnlockUser(ctx context.Context, cmd cqrs.UnlockUserCommand) (*models.UserView, error) {
	user, err := s.users.GetByID(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if err := user.Unlock(s.clock.Now()); err != nil {
		return nil, err
	}
	return s.save(ctx, user, cmd.Actor)
}

func (s *UserCommandService) AssignRoles(ctx context.Context, cmd cqrs.AssignRolesCommand) (*models.UserView, error) {
	if err := s.checkRoles(ctx, cmd.AccountID, cmd.RoleIDs); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	user.AssignRoles(cmd.RoleIDs, s.clock.Now())
	return s.save(ctx, user, cmd.Actor)
}

// ChangePassword applies to the calling user.
func (s *UserCommandService) ChangePassword(ctx context.Context, cmd cqrs.ChangePasswordCommand) error {
	user, err := s.users.GetByID(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(cmd.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrPasswordMismatch
	}
	if cmd.CurrentPassword == cmd.NewPassword {
		return apperrors.ErrPasswordUnchanged
	}
	if len(cmd.NewPassword) < minPasswordLength {
		return apperrors.Validation("password must be at least 8 characters")
	}
	hash, err := utils.HashPassword(cmd.NewPassword)
	if err != nil {
		return apperrors.ErrInternal.WithCause(err)
	}
	user.ChangePassword(hash, s.clock.Now())
	_, err = s.save(ctx, user, cmd.Actor)
	return err
}

func (s *UserCommandService) checkRoles(ctx context.Context, accountID string, roleIDs []string) error {
	missing, err := s.roles.MissingIDs(ctx, accountID, roleIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperrors.ErrRoleNotFound.WithMessage("unknown role: " + missing[0])
	}
	return nil
}

func (s *UserCommandService) save(ctx context.Context, user *models.User, actor cqrs.Actor) (*models.UserView, error) {
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.refresh(ctx, user, actor), nil
}

func (s *UserCommandService) refresh(ctx context.Context, user *models.User, actor cqrs.Actor) *models.UserView {
	view := models.NewUserView(user)
	s.views.CacheUserView(ctx, view)
	publish(ctx, s.publisher, actor.AccountID, actor.UserID, user)
	return view
}
