package cqrs

import "time"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page     int
	PageSize int
}

// Normalize clamps the page to >= 1 and the size to 1..MaxPageSize, using
// DefaultPageSize when unset.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize <= 0:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

func (p Page) Limit() int {
	return p.Normalize().PageSize
}

// ---------- Account queries ----------

type GetAccountQuery struct {
	AccountID string
}

// ListAccountsQuery is a platform-wide listing.
type ListAccountsQuery struct {
	Page
	Status string
	Search string
}

// ---------- User queries ----------

type GetUserQuery struct {
	AccountID string
	UserID    string
}

type ListUsersQuery struct {
	Page
	AccountID string
	Search    string
	Status    string
}

// ---------- Role queries ----------

type GetRoleQuery struct {
	AccountID string
	RoleID    string
}

type ListRolesQuery struct {
	AccountID string
}

// ---------- Workflow queries ----------

type GetWorkflowQuery struct {
	AccountID  string
	WorkflowID string
}

type ListWorkflowsQuery struct {
	AccountID string
}

// ---------- Content queries ----------

type GetContentQuery struct {
	AccountID string
	ContentID string
}

type ListContentQuery struct {
	Page
	AccountID string
	Status    string
	AuthorID  string
	Search    string
}

type ListApprovalsQuery struct {
	AccountID string
	ContentID string
}

// ---------- Media queries ----------

type GetMediaQuery struct {
	AccountID string
	MediaID   string
}

type ListMediaQuery struct {
	Page
	AccountID   string
	ContentType string
}

// ---------- API key queries ----------

type GetAPIKeyQuery struct {
	AccountID string
	APIKeyID  string
}

type ListAPIKeysQuery struct {
	AccountID      string
	IncludeRevoked bool
}

// ---------- Webhook queries ----------

type GetWebhookQuery struct {
	AccountID string
	WebhookID string
}

type ListWebhooksQuery struct {
	AccountID string
}

type ListDeliveriesQuery struct {
	Page
	AccountID string
	WebhookID string
}

// ---------- Audit queries ----------

type GetAuditEntryQuery struct {
	AccountID string
	EntryID   string
}

// ListAuditQuery filters are optional; results are newest first.
type ListAuditQuery struct {
	Page
	AccountID  string
	EntityType string
	EntityID   string
	ActorID    string
	Action     string
	From       *time.Time
	To         *time.Time
}

// ---------- Dashboard queries ----------

type DashboardQuery struct {
	AccountID string
}

// ---------- Auth queries ----------

type ListSessionsQuery struct {
	AccountID        string
	UserID           string
	CurrentSessionID string
}
