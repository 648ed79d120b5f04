package models

import (
	"sort"

	"github.com/samber/lo"
)

const (
	PermAccountsRead   = "accounts:read"
	PermAccountsWrite  = "accounts:write"
	PermUsersRead      = "users:read"
	PermUsersWrite     = "users:write"
	PermRolesRead      = "roles:read"
	PermRolesWrite     = "roles:write"
	PermContentRead    = "content:read"
	PermContentWrite   = "content:write"
	PermContentPublish = "content:publish"
	PermWorkflowsRead  = "workflows:read"
	PermWorkflowsWrite = "workflows:write"
	PermMediaRead      = "media:read"
	PermMediaWrite     = "media:write"
	PermAPIKeysRead    = "apikeys:read"
	PermAPIKeysWrite   = "apikeys:write"
	PermWebhooksRead   = "webhooks:read"
	PermWebhooksWrite  = "webhooks:write"
	PermAuditRead      = "audit:read"
	PermDashboardRead  = "dashboard:read"

	// PermSystemAdmin is only honoured for users of the platform account.
	PermSystemAdmin = "system:admin"
)

// Permission describes one entry of the permission catalogue.
type Permission struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var catalogue = []Permission{
	{PermAccountsRead, "View account settings"},
	{PermAccountsWrite, "Change account settings"},
	{PermUsersRead, "View users"},
	{PermUsersWrite, "Create, change, lock and delete users"},
	{PermRolesRead, "View roles"},
	{PermRolesWrite, "Create, change and delete roles"},
	{PermContentRead, "View content"},
	{PermContentWrite, "Create, edit and submit content"},
	{PermContentPublish, "Publish and unpublish approved content"},
	{PermWorkflowsRead, "View approval workflows"},
	{PermWorkflowsWrite, "Create, change and delete approval workflows"},
	{PermMediaRead, "View and download media"},
	{PermMediaWrite, "Upload and delete media"},
	{PermAPIKeysRead, "View API keys"},
	{PermAPIKeysWrite, "Create and revoke API keys"},
	{PermWebhooksRead, "View webhooks and deliveries"},
	{PermWebhooksWrite, "Create, change and delete webhooks"},
	{PermAuditRead, "View the audit log"},
	{PermDashboardRead, "View the dashboard"},
	{PermSystemAdmin, "Platform maintenance and tenant administration"},
}

var catalogueIndex = lo.SliceToMap(catalogue, func(p Permission) (string, struct{}) {
	return p.Name, struct{}{}
})

// Catalogue returns a copy of every known permission.
func Catalogue() []Permission {
	out := make([]Permission, len(catalogue))
	copy(out, catalogue)
	return out
}

func ValidPermission(name string) bool {
	_, ok := catalogueIndex[name]
	return ok
}

// TenantPermissions is every permission a tenant role may hold.
func TenantPermissions() []string {
	return lo.FilterMap(catalogue, func(p Permission, _ int) (string, bool) {
		return p.Name, p.Name != PermSystemAdmin
	})
}

// NormalizePermissions validates, de-duplicates and sorts a permission set.
// It returns the first offending name when the set is not acceptable.
func NormalizePermissions(perms []string, allowSystem bool) ([]string, string, bool) {
	for _, p := range perms {
		if !ValidPermission(p) || (p == PermSystemAdmin && !allowSystem) {
			return nil, p, false
		}
	}
	out := lo.Uniq(perms)
	sort.Strings(out)
	return out, "", true
}
