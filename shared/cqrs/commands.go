package cqrs

import "github.com/startupstarter/admin/shared/models"

// Actor identifies who issues a command and which tenant it is scoped to.
// UserID holds the API key id when the caller authenticated with a key.
type Actor struct {
	AccountID string
	UserID    string
}

// ---------- Account commands ----------

// CreateAccountCommand is the public signup: it creates the tenant, its
// Administrator role and the owner user in one go.
type CreateAccountCommand struct {
	Name          string
	Slug          string
	Plan          string
	OwnerName     string
	OwnerEmail    string
	OwnerPassword string
}

type UpdateAccountCommand struct {
	Actor
	Name string
	Plan string
}

type DeleteAccountCommand struct {
	Actor
}

type SuspendAccountCommand struct {
	Actor
	AccountID string
}

type ReactivateAccountCommand struct {
	Actor
	AccountID string
}

// ---------- User commands ----------

type CreateUserCommand struct {
	Actor
	Name     string
	Email    string
	Password string
	RoleIDs  []string
}

type UpdateUserCommand struct {
	Actor
	UserID string
	Name   string
	Email  string
}

type DeleteUserCommand struct {
	Actor
	UserID string
}

type LockUserCommand struct {
	Actor
	UserID string
}

type UnlockUserCommand struct {
	Actor
	UserID string
}

type AssignRolesCommand struct {
	Actor
	UserID  string
	RoleIDs []string
}

type ChangePasswordCommand struct {
	Actor
	CurrentPassword string
	NewPassword     string
}

// ---------- Role commands ----------

type CreateRoleCommand struct {
	Actor
	Name        string
	Description string
	Permissions []string
}

type UpdateRoleCommand struct {
	Actor
	RoleID      string
	Name        string
	Description string
	Permissions []string
}

type DeleteRoleCommand struct {
	Actor
	RoleID string
}

// ---------- Workflow commands ----------

type CreateWorkflowCommand struct {
	Actor
	Name        string
	Description string
	Steps       []models.WorkflowStep
	IsDefault   bool
}

type UpdateWorkflowCommand struct {
	Actor
	WorkflowID  string
	Name        string
	Description string
	Steps       []models.WorkflowStep
	IsDefault   bool
}

type DeleteWorkflowCommand struct {
	Actor
	WorkflowID string
}

// WorkflowDefinition is one workflow of an import file. Steps name their
// approver role by role name.
type WorkflowDefinition struct {
	Name        string                   `yaml:"name"`
	Description string                   `yaml:"description"`
	IsDefault   bool                     `yaml:"default"`
	Steps       []WorkflowStepDefinition `yaml:"steps"`
}

type WorkflowStepDefinition struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

type ImportWorkflowsCommand struct {
	Actor
	Workflows []WorkflowDefinition
}

// ---------- Content commands ----------

type CreateContentCommand struct {
	Actor
	Title string
	Slug  string
	Body  string
}

type UpdateContentCommand struct {
	Actor
	ContentID string
	Title     string
	Slug      string
	Body      string
}

type DeleteContentCommand struct {
	Actor
	ContentID string
}

// SubmitContentCommand uses WorkflowID when set, else the account default.
type SubmitContentCommand struct {
	Actor
	ContentID  string
	WorkflowID string
}

type ApproveContentCommand struct {
	Actor
	ContentID string
	Comment   string
}

type RejectContentCommand struct {
	Actor
	ContentID string
	Comment   string
}

type PublishContentCommand struct {
	Actor
	ContentID string
}

type UnpublishContentCommand struct {
	Actor
	ContentID string
}

type ArchiveContentCommand struct {
	Actor
	ContentID string
}

// ---------- Media commands ----------

type UploadMediaCommand struct {
	Actor
	FileName string
	Data     []byte
}

type DeleteMediaCommand struct {
	Actor
	MediaID string
}

// ---------- API key commands ----------

type CreateAPIKeyCommand struct {
	Actor
	Name          string
	Scopes        []string
	ExpiresInDays int
}

type RevokeAPIKeyCommand struct {
	Actor
	APIKeyID string
}

// ---------- Webhook commands ----------

type CreateWebhookCommand struct {
	Actor
	URL         string
	Description string
	Events      []string
}

// UpdateWebhookCommand leaves the active flag unchanged when Active is nil.
type UpdateWebhookCommand struct {
	Actor
	WebhookID   string
	URL         string
	Description string
	Events      []string
	Active      *bool
}

type DeleteWebhookCommand struct {
	Actor
	WebhookID string
}

type TestWebhookCommand struct {
	Actor
	WebhookID string
}

// ---------- System commands ----------

type SetMaintenanceCommand struct {
	Actor
	Enabled bool
	Message string
}

type FlushCacheCommand struct {
	Actor
}

type PurgeCommand struct {
	Actor
	OlderThanDays int
}

// ---------- Auth commands ----------

type LoginCommand struct {
	AccountSlug string
	Email       string
	Password    string
	UserAgent   string
	IP          string
}

type VerifyMFACommand struct {
	MFAToken  string
	Code      string
	UserAgent string
	IP        string
}

type RefreshTokenCommand struct {
	RefreshToken string
	UserAgent    string
	IP           string
}

type LogoutCommand struct {
	Actor
	RefreshToken string
}

type RevokeSessionCommand struct {
	Actor
	SessionID string
}

type SetupMFACommand struct {
	Actor
}

type EnableMFACommand struct {
	Actor
	Code string
}

type DisableMFACommand struct {
	Actor
	Code string
}
