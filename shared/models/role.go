package models

import (
	"time"

	"github.com/startupstarter/admin/shared/apperrors"
)

// AdministratorRoleName is the system role created with every account.
const AdministratorRoleName = "Administrator"

type Role struct {
	AggregateRoot

	ID          string
	AccountID   string
	Name        string
	Description string
	Permissions []string
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewRole(id, accountID, name, description string, perms []string, isSystem bool, now time.Time) (*Role, error) {
	normalized, bad, ok := NormalizePermissions(perms, false)
	if !ok {
		return nil, apperrors.ErrUnknownPermission.WithMessage("permission not assignable: " + bad)
	}
	r := &Role{
		ID:          id,
		AccountID:   accountID,
		Name:        name,
		Description: description,
		Permissions: normalized,
		IsSystem:    isSystem,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	r.Raise(EventRoleCreated, EntityRole, r.ID, r.eventData(), now)
	return r, nil
}

// NewAdministratorRole builds the system role that holds every tenant permission.
func NewAdministratorRole(id, accountID string, now time.Time) *Role {
	r, _ := NewRole(id, accountID, AdministratorRoleName, "Full access to the account", TenantPermissions(), true, now)
	return r
}

func (r *Role) Update(name, description string, perms []string, now time.Time) error {
	if r.IsSystem {
		return apperrors.ErrSystemRole
	}
	normalized, bad, ok := NormalizePermissions(perms, false)
	if !ok {
		return apperrors.ErrUnknownPermission.WithMessage("permission not assignable: " + bad)
	}
	r.Name = name
	r.Description = description
	r.Permissions = normalized
	r.UpdatedAt = now.UTC()
	r.Raise(EventRoleUpdated, EntityRole, r.ID, r.eventData(), now)
	return nil
}

func (r *Role) MarkDeleted(now time.Time) error {
	if r.IsSystem {
		return apperrors.ErrSystemRole
	}
	r.Raise(EventRoleDeleted, EntityRole, r.ID, r.eventData(), now)
	return nil
}

func (r *Role) eventData() RoleEventData {
	return RoleEventData{RoleID: r.ID, Name: r.Name, Permissions: r.Permissions}
}
