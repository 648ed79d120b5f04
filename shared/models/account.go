package models

import (
	"time"

	"github.com/startupstarter/admin/shared/apperrors"
)

const (
	AccountActive    = "active"
	AccountSuspended = "suspended"

	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Account is a tenant. Every other tenant-owned aggregate carries its ID.
type Account struct {
	AggregateRoot

	ID          string
	Name        string
	Slug        string
	Plan        string
	Status      string
	OwnerUserID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

func NewAccount(id, name, slug, plan string, now time.Time) *Account {
	a := &Account{
		ID:        id,
		Name:      name,
		Slug:      slug,
		Plan:      plan,
		Status:    AccountActive,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	a.Raise(EventAccountCreated, EntityAccount, a.ID, a.eventData(), now)
	return a
}

func (a *Account) Update(name, plan string, now time.Time) {
	a.Name = name
	a.Plan = plan
	a.UpdatedAt = now.UTC()
	a.Raise(EventAccountUpdated, EntityAccount, a.ID, a.eventData(), now)
}

func (a *Account) Suspend(now time.Time) error {
	if a.Status == AccountSuspended {
		return apperrors.ErrInvalidTransition.WithMessage("account is already suspended")
	}
	a.Status = AccountSuspended
	a.UpdatedAt = now.UTC()
	a.Raise(EventAccountSuspended, EntityAccount, a.ID, a.eventData(), now)
	return nil
}

func (a *Account) Reactivate(now time.Time) error {
	if a.Status == AccountActive {
		return apperrors.ErrInvalidTransition.WithMessage("account is already active")
	}
	a.Status = AccountActive
	a.UpdatedAt = now.UTC()
	a.Raise(EventAccountReactivated, EntityAccount, a.ID, a.eventData(), now)
	return nil
}

func (a *Account) MarkDeleted(now time.Time) {
	t := now.UTC()
	a.DeletedAt = &t
	a.UpdatedAt = t
	a.Raise(EventAccountDeleted, EntityAccount, a.ID, a.eventData(), now)
}

func (a *Account) IsActive() bool { return a.Status == AccountActive && a.DeletedAt == nil }

func (a *Account) eventData() AccountEventData {
	return AccountEventData{AccountID: a.ID, Name: a.Name, Slug: a.Slug, Plan: a.Plan, Status: a.Status}
}
