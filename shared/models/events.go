package models

// Entity types carried on domain events and audit entries.
const (
	EntityAccount  = "account"
	EntityUser     = "user"
	EntityRole     = "role"
	EntityContent  = "content"
	EntityWorkflow = "workflow"
	EntityMedia    = "media"
	EntityAPIKey   = "apikey"
	EntityWebhook  = "webhook"
	EntitySession  = "session"
	EntitySystem   = "system"
)

// Event types
const (
	EventAccountCreated     = "account.created"
	EventAccountUpdated     = "account.updated"
	EventAccountSuspended   = "account.suspended"
	EventAccountReactivated = "account.reactivated"
	EventAccountDeleted     = "account.deleted"

	EventUserCreated         = "user.created"
	EventUserUpdated         = "user.updated"
	EventUserDeleted         = "user.deleted"
	EventUserLocked          = "user.locked"
	EventUserUnlocked        = "user.unlocked"
	EventUserRolesAssigned   = "user.roles_assigned"
	EventUserPasswordChanged = "user.password_changed"
	EventUserMFAEnabled      = "user.mfa_enabled"
	EventUserMFADisabled     = "user.mfa_disabled"

	EventUserLoggedIn    = "auth.logged_in"
	EventUserLoginFailed = "auth.login_failed"
	EventUserLoggedOut   = "auth.logged_out"
	EventSessionRevoked  = "auth.session_revoked"

	EventRoleCreated = "role.created"
	EventRoleUpdated = "role.updated"
	EventRoleDeleted = "role.deleted"

	EventContentCreated      = "content.created"
	EventContentUpdated      = "content.updated"
	EventContentDeleted      = "content.deleted"
	EventContentSubmitted    = "content.submitted"
	EventContentStepApproved = "content.step_approved"
	EventContentApproved     = "content.approved"
	EventContentRejected     = "content.rejected"
	EventContentPublished    = "content.published"
	EventContentUnpublished  = "content.unpublished"
	EventContentArchived     = "content.archived"

	EventWorkflowCreated = "workflow.created"
	EventWorkflowUpdated = "workflow.updated"
	EventWorkflowDeleted = "workflow.deleted"

	EventMediaUploaded = "media.uploaded"
	EventMediaDeleted  = "media.deleted"

	EventAPIKeyCreated = "apikey.created"
	EventAPIKeyRevoked = "apikey.revoked"

	EventWebhookCreated = "webhook.created"
	EventWebhookUpdated = "webhook.updated"
	EventWebhookDeleted = "webhook.deleted"
	EventWebhookPing    = "webhook.ping"

	EventMaintenanceChanged = "system.maintenance_changed"
	EventCacheFlushed       = "system.cache_flushed"
	EventDataPurged         = "system.purged"
)

// Event payloads, one shape per entity type.

type AccountEventData struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Plan      string `json:"plan"`
	Status    string `json:"status"`
}

type UserEventData struct {
	UserID  string   `json:"userId"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	RoleIDs []string `json:"roleIds,omitempty"`
}

type RoleEventData struct {
	RoleID      string   `json:"roleId"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type ContentEventData struct {
	ContentID  string `json:"contentId"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	WorkflowID string `json:"workflowId,omitempty"`
	Step       int    `json:"step,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

type WorkflowEventData struct {
	WorkflowID string `json:"workflowId"`
	Name       string `json:"name"`
	Steps      int    `json:"steps"`
	IsDefault  bool   `json:"isDefault"`
}

type MediaEventData struct {
	MediaID     string `json:"mediaId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type APIKeyEventData struct {
	APIKeyID string   `json:"apiKeyId"`
	Name     string   `json:"name"`
	Prefix   string   `json:"prefix"`
	Scopes   []string `json:"scopes"`
}

type WebhookEventData struct {
	WebhookID string   `json:"webhookId"`
	URL       string   `json:"url"`
	Events    []string `json:"events"`
	Active    bool     `json:"active"`
}

type AuthEventData struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	SessionID string `json:"sessionId,omitempty"`
	IP        string `json:"ip,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type SystemEventData struct {
	Action  string           `json:"action"`
	Enabled bool             `json:"enabled,omitempty"`
	Message string           `json:"message,omitempty"`
	Counts  map[string]int64 `json:"counts,omitempty"`
}
