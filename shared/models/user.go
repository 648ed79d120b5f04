package models

import (
	"time"

	"github.com/samber/lo"
	"github.com/startupstarter/admin/shared/apperrors"
)

const (
	UserActive = "active"
	UserLocked = "locked"
)

type User struct {
	AggregateRoot

	ID           string
	AccountID    string
	Name         string
	Email        string
	PasswordHash string
	Status       string
	RoleIDs      []string
	MFAEnabled   bool
	MFASecret    string
	FailedLogins int
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

func NewUser(id, accountID, name, email, passwordHash string, roleIDs []string, now time.Time) *User {
	u := &User{
		ID:           id,
		AccountID:    accountID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       UserActive,
		RoleIDs:      lo.Uniq(roleIDs),
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	u.Raise(EventUserCreated, EntityUser, u.ID, u.eventData(), now)
	return u
}

func (u *User) Update(name, email string, now time.Time) {
	u.Name = name
	u.Email = email
	u.UpdatedAt = now.UTC()
	u.Raise(EventUserUpdated, EntityUser, u.ID, u.eventData(), now)
}

func (u *User) AssignRoles(roleIDs []string, now time.Time) {
	u.RoleIDs = lo.Uniq(roleIDs)
	u.UpdatedAt = now.UTC()
	u.Raise(EventUserRolesAssigned, EntityUser, u.ID, u.eventData(), now)
}

func (u *User) HasRole(roleID string) bool { return lo.Contains(u.RoleIDs, roleID) }

func (u *User) Lock(now time.Time) error {
	if u.Status == UserLocked {
		return apperrors.ErrInvalidTransition.WithMessage("user is already locked")
	}
	u.Status = UserLocked
	u.UpdatedAt = now.UTC()
	u.Raise(EventUserLocked, EntityUser, u.ID, u.eventData(), now)
	return nil
}

// Unlock also clears the failed login counter.
func (u *User) Unlock(now time.Time) error {
	if u.Status != UserLocked {
		return apperrors.ErrInvalidTransition.WithMessage("user is not locked")
	}
	u.Status = UserActive
	u.FailedLogins = 0
	u.UpdatedAt = now.UTC()
	u.Raise(EventUserUnlocked, EntityUser, u.ID, u.eventData(), now)
	return nil
}

// ApplyFailedLogin mirrors a failed login counter that storage incremented.
// locked reports that the same increment locked the user; the lock event is
// raised here.
func (u *User) ApplyFailedLogin(failed int, locked bool, now time.Time) {
	u.FailedLogins = failed
	u.UpdatedAt = now.UTC()
	if locked && u.Status != UserLocked {
		_ = u.Lock(now)
	}
}

func (u *User) RecordLogin(now time.Time) {
	t := now.UTC()
	u.FailedLogins = 0
	u.LastLoginAt = &t
	u.UpdatedAt = t
}

func (u *User) ChangePassword(hash string, now time.Time) {
	u.PasswordHash = hash
	u.UpdatedAt = now.UTC()
	u.Raise(EventUserPasswordChanged, EntityUser, u.ID, u.eventData(), now)
}

// SetupMFA stores a new secret without enabling verification.
func (u *User) SetupMFA(secret string, now time.Time) error {
	if u.MFAEnabled {
		return apperrors.ErrMFAAlreadyEnabled
	}
	u.MFASecret = secret
	u.UpdatedAt = now.UTC()
	return nil
}

func (u *User) EnableMFA(now time.Time) error {
	if u.MFAEnabled {
		return apperrors.ErrMFAAlreadyEnabled
	}
	if u.MFASecret == "" {
		return apperrors.ErrMFANotSetUp
	}
	u.MFAEnabled = true
	u.UpdatedAt = now.UTC()
	u.Raise(EventUserMFAEnabled, EntityUser, u.ID, u.eventData(), now)
	return nil
}

func (u *User) DisableMFA(now time.Time) error {
	if !u.MFAEnabled {
		return apperrors.ErrMFANotEnabled
	}
	u.MFAEnabled = false
	u.MFASecret = ""
	u.UpdatedAt = now.UTC()
	u.Raise(EventUserMFADisabled, EntityUser, u.ID, u.eventData(), now)
	return nil
}

func (u *User) MarkDeleted(now time.Time) {
	t := now.UTC()
	u.DeletedAt = &t
	u.UpdatedAt = t
	u.Raise(EventUserDeleted, EntityUser, u.ID, u.eventData(), now)
}

func (u *User) eventData() UserEventData {
	return UserEventData{UserID: u.ID, Email: u.Email, Name: u.Name, Status: u.Status, RoleIDs: u.RoleIDs}
}
