package models

import (
	"time"

	"github.com/samber/lo"
)

// Read-optimised projections returned at the API boundary. They never expose
// password hashes, MFA secrets, key hashes or webhook secrets.

type AccountView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Plan        string    `json:"plan"`
	Status      string    `json:"status"`
	OwnerUserID string    `json:"ownerUserId"`
	CreatedAt   time.Time `json:"createdTimestamp"`
	UpdatedAt   time.Time `json:"updatedTimestamp"`
}

func NewAccountView(a *Account) *AccountView {
	return &AccountView{
		ID:          a.ID,
		Name:        a.Name,
		Slug:        a.Slug,
		Plan:        a.Plan,
		Status:      a.Status,
		OwnerUserID: a.OwnerUserID,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// UserView.AccountID keys the cache entry and is never serialised.
type UserView struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"-"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	RoleIDs     []string   `json:"roleIds"`
	MFAEnabled  bool       `json:"mfaEnabled"`
	LastLoginAt *time.Time `json:"lastLoginTimestamp,omitempty"`
	CreatedAt   time.Time  `json:"createdTimestamp"`
	UpdatedAt   time.Time  `json:"updatedTimestamp"`
}

func NewUserView(u *User) *UserView {
	return &UserView{
		ID:          u.ID,
		AccountID:   u.AccountID,
		Name:        u.Name,
		Email:       u.Email,
		Status:      u.Status,
		RoleIDs:     lo.Ternary(u.RoleIDs == nil, []string{}, u.RoleIDs),
		MFAEnabled:  u.MFAEnabled,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type RoleView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	IsSystem    bool      `json:"isSystem"`
	UserCount   int       `json:"userCount"`
	CreatedAt   time.Time `json:"createdTimestamp"`
	UpdatedAt   time.Time `json:"updatedTimestamp"`
}

func NewRoleView(r *Role) *RoleView {
	return &RoleView{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: lo.Ternary(r.Permissions == nil, []string{}, r.Permissions),
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type WorkflowView struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Steps       []WorkflowStep `json:"steps"`
	IsDefault   bool           `json:"isDefault"`
	CreatedAt   time.Time      `json:"createdTimestamp"`
	UpdatedAt   time.Time      `json:"updatedTimestamp"`
}

func NewWorkflowView(w *Workflow) *WorkflowView {
	return &WorkflowView{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Steps:       w.Steps,
		IsDefault:   w.IsDefault,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

type ContentView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body,omitempty"`
	Status      string     `json:"status"`
	AuthorID    string     `json:"authorId"`
	WorkflowID  string     `json:"workflowId,omitempty"`
	CurrentStep int        `json:"currentStep,omitempty"`
	PublishedAt *time.Time `json:"publishedTimestamp,omitempty"`
	CreatedAt   time.Time  `json:"createdTimestamp"`
	UpdatedAt   time.Time  `json:"updatedTimestamp"`
}

func NewContentView(c *Content) *ContentView {
	return &ContentView{
		ID:          c.ID,
		Title:       c.Title,
		Slug:        c.Slug,
		Body:        c.Body,
		Status:      c.Status,
		AuthorID:    c.AuthorID,
		WorkflowID:  c.WorkflowID,
		CurrentStep: c.CurrentStep,
		PublishedAt: c.PublishedAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type ApprovalView struct {
	ID        string    `json:"id"`
	Step      int       `json:"step"`
	ActorID   string    `json:"actorId"`
	Decision  string    `json:"decision"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

func NewApprovalView(a *ContentApproval) *ApprovalView {
	return &ApprovalView{
		ID:        a.ID,
		Step:      a.Step,
		ActorID:   a.ActorID,
		Decision:  a.Decision,
		Comment:   a.Comment,
		CreatedAt: a.CreatedAt,
	}
}

type MediaView struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	UploadedBy  string    `json:"uploadedBy"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"createdTimestamp"`
}

func NewMediaView(m *Media) *MediaView {
	return &MediaView{
		ID:          m.ID,
		FileName:    m.FileName,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		UploadedBy:  m.UploadedBy,
		StorageKey:  m.StorageKey,
		CreatedAt:   m.CreatedAt,
	}
}

type APIKeyView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	Scopes     []string   `json:"scopes"`
	CreatedBy  string     `json:"createdBy"`
	ExpiresAt  *time.Time `json:"expiresTimestamp,omitempty"`
	LastUsedAt *time.Time `json:"lastUsedTimestamp,omitempty"`
	RevokedAt  *time.Time `json:"revokedTimestamp,omitempty"`
	CreatedAt  time.Time  `json:"createdTimestamp"`
}

func NewAPIKeyView(k *APIKey) *APIKeyView {
	return &APIKeyView{
		ID:         k.ID,
		Name:       k.Name,
		Prefix:     k.Prefix,
		Scopes:     k.Scopes,
		CreatedBy:  k.CreatedBy,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
		RevokedAt:  k.RevokedAt,
		CreatedAt:  k.CreatedAt,
	}
}

// CreatedAPIKeyView is returned once, at creation; Key is never shown again.
type CreatedAPIKeyView struct {
	APIKeyView
	Key string `json:"key"`
}

type WebhookView struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Events      []string  `json:"events"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdTimestamp"`
	UpdatedAt   time.Time `json:"updatedTimestamp"`
}

func NewWebhookView(w *Webhook) *WebhookView {
	return &WebhookView{
		ID:          w.ID,
		URL:         w.URL,
		Description: w.Description,
		Events:      w.Events,
		Active:      w.Active,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// CreatedWebhookView exposes the signing secret once, at creation.
type CreatedWebhookView struct {
	WebhookView
	Secret string `json:"secret"`
}

type DeliveryView struct {
	ID         string    `json:"id"`
	WebhookID  string    `json:"webhookId"`
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	StatusCode int       `json:"statusCode"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdTimestamp"`
}

func NewDeliveryView(d *WebhookDelivery) *DeliveryView {
	return &DeliveryView{
		ID:         d.ID,
		WebhookID:  d.WebhookID,
		EventID:    d.EventID,
		EventType:  d.EventType,
		StatusCode: d.StatusCode,
		Success:    d.Success,
		Error:      d.Error,
		DurationMs: d.DurationMs,
		CreatedAt:  d.CreatedAt,
	}
}

type AuditEntryView struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actorId,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdTimestamp"`
}

func NewAuditEntryView(e *AuditEntry) *AuditEntryView {
	return &AuditEntryView{
		ID:         e.ID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt,
	}
}

type SessionView struct {
	ID         string    `json:"id"`
	UserAgent  string    `json:"userAgent"`
	IP         string    `json:"ip"`
	Current    bool      `json:"current"`
	ExpiresAt  time.Time `json:"expiresTimestamp"`
	CreatedAt  time.Time `json:"createdTimestamp"`
	LastUsedAt time.Time `json:"lastUsedTimestamp"`
}

func NewSessionView(s *Session, currentID string) *SessionView {
	return &SessionView{
		ID:         s.ID,
		UserAgent:  s.UserAgent,
		IP:         s.IP,
		Current:    s.ID == currentID,
		ExpiresAt:  s.ExpiresAt,
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.LastUsedAt,
	}
}

type DashboardSummary struct {
	Users struct {
		Total  int `json:"total"`
		Active int `json:"active"`
		Locked int `json:"locked"`
	} `json:"users"`
	ContentByStatus map[string]int `json:"contentByStatus"`
	Media           struct {
		Count      int   `json:"count"`
		TotalBytes int64 `json:"totalBytes"`
	} `json:"media"`
	ActiveAPIKeys  int `json:"activeApiKeys"`
	ActiveWebhooks int `json:"activeWebhooks"`
	Deliveries24h  struct {
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	} `json:"deliveriesLast24h"`
	RecentActivity []AuditEntryView `json:"recentActivity"`
	GeneratedAt    time.Time        `json:"generatedTimestamp"`
}

type SystemStatus struct {
	Version            string    `json:"version"`
	StartedAt          time.Time `json:"startedTimestamp"`
	UptimeSeconds      int64     `json:"uptimeSeconds"`
	Maintenance        bool      `json:"maintenance"`
	MaintenanceMessage string    `json:"maintenanceMessage,omitempty"`
	Database           string    `json:"database"`
	Cache              string    `json:"cache"`
}

type MaintenanceState struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message,omitempty"`
}

// PagedResult wraps one page of a list query.
type PagedResult[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}
