package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Category string

const (
	CategoryValidation   Category = "VALIDATION"
	CategoryUnauthorized Category = "UNAUTHORIZED"
	CategoryForbidden    Category = "FORBIDDEN"
	CategoryNotFound     Category = "NOT_FOUND"
	CategoryConflict     Category = "CONFLICT"
	CategoryInternal     Category = "INTERNAL"
	CategoryUnavailable  Category = "UNAVAILABLE"
)

// AppError carries everything a handler needs to answer a failed command or
// query. Two AppErrors match under errors.Is when their codes are equal, so a
// sentinel still matches after WithCause.
type AppError struct {
	Code     string
	Category Category
	Status   int
	Message  string
	Cause    error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	return &AppError{
		Code:     e.Code,
		Category: e.Category,
		Status:   e.Status,
		Message:  e.Message,
		Cause:    cause,
	}
}

// WithMessage returns a copy with a more specific client-facing message.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:     e.Code,
		Category: e.Category,
		Status:   e.Status,
		Message:  msg,
		Cause:    e.Cause,
	}
}

func New(code string, category Category, status int, message string) *AppError {
	return &AppError{Code: code, Category: category, Status: status, Message: message}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func NotFound(entity string) *AppError {
	return New("NOT_FOUND", CategoryNotFound, http.StatusNotFound, entity+" not found")
}

func Validation(message string) *AppError {
	return New("VALIDATION_FAILED", CategoryValidation, http.StatusBadRequest, message)
}

var (
	ErrInternal = New("INTERNAL_ERROR", CategoryInternal, http.StatusInternalServerError, "internal server error")

	ErrUnauthorized       = New("UNAUTHORIZED", CategoryUnauthorized, http.StatusUnauthorized, "authentication required")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", CategoryUnauthorized, http.StatusUnauthorized, "invalid credentials")
	ErrInvalidToken       = New("INVALID_TOKEN", CategoryUnauthorized, http.StatusUnauthorized, "invalid or expired token")
	ErrInvalidMFACode     = New("INVALID_MFA_CODE", CategoryUnauthorized, http.StatusUnauthorized, "invalid verification code")
	ErrInvalidAPIKey      = New("INVALID_API_KEY", CategoryUnauthorized, http.StatusUnauthorized, "invalid api key")

	ErrForbidden        = New("FORBIDDEN", CategoryForbidden, http.StatusForbidden, "insufficient permissions")
	ErrAccountSuspended = New("ACCOUNT_SUSPENDED", CategoryForbidden, http.StatusForbidden, "account is suspended")
	ErrUserLocked       = New("USER_LOCKED", CategoryForbidden, http.StatusLocked, "user is locked")
	ErrNotApprover      = New("NOT_APPROVER", CategoryForbidden, http.StatusForbidden, "user does not hold the approver role for this step")
	ErrSystemRole       = New("SYSTEM_ROLE", CategoryForbidden, http.StatusForbidden, "system roles cannot be modified")
	ErrSelfAction       = New("SELF_ACTION", CategoryForbidden, http.StatusForbidden, "this action cannot be applied to yourself")
	ErrAccountOwner     = New("ACCOUNT_OWNER", CategoryForbidden, http.StatusForbidden, "the account owner cannot be removed")

	ErrAccountNotFound  = NotFound("account").withCode("ACCOUNT_NOT_FOUND")
	ErrUserNotFound     = NotFound("user").withCode("USER_NOT_FOUND")
	ErrRoleNotFound     = NotFound("role").withCode("ROLE_NOT_FOUND")
	ErrContentNotFound  = NotFound("content").withCode("CONTENT_NOT_FOUND")
	ErrWorkflowNotFound = NotFound("workflow").withCode("WORKFLOW_NOT_FOUND")
	ErrMediaNotFound    = NotFound("media").withCode("MEDIA_NOT_FOUND")
	ErrAPIKeyNotFound   = NotFound("api key").withCode("API_KEY_NOT_FOUND")
	ErrWebhookNotFound  = NotFound("webhook").withCode("WEBHOOK_NOT_FOUND")
	ErrAuditNotFound    = NotFound("audit entry").withCode("AUDIT_ENTRY_NOT_FOUND")
	ErrSessionNotFound  = NotFound("session").withCode("SESSION_NOT_FOUND")

	ErrSlugTaken           = New("SLUG_TAKEN", CategoryConflict, http.StatusConflict, "slug already in use")
	ErrEmailTaken          = New("EMAIL_TAKEN", CategoryConflict, http.StatusConflict, "email already in use")
	ErrRoleNameTaken       = New("ROLE_NAME_TAKEN", CategoryConflict, http.StatusConflict, "role name already in use")
	ErrRoleInUse           = New("ROLE_IN_USE", CategoryConflict, http.StatusConflict, "role is assigned to users")
	ErrWorkflowInUse       = New("WORKFLOW_IN_USE", CategoryConflict, http.StatusConflict, "workflow has content pending review")
	ErrInvalidTransition   = New("INVALID_TRANSITION", CategoryConflict, http.StatusConflict, "operation not allowed in the current state")
	ErrMFAAlreadyEnabled   = New("MFA_ALREADY_ENABLED", CategoryConflict, http.StatusConflict, "multi-factor authentication is already enabled")
	ErrMFANotEnabled       = New("MFA_NOT_ENABLED", CategoryConflict, http.StatusConflict, "multi-factor authentication is not enabled")
	ErrMFANotSetUp         = New("MFA_NOT_SET_UP", CategoryConflict, http.StatusConflict, "multi-factor authentication has not been set up")
	ErrPasswordMismatch    = New("PASSWORD_MISMATCH", CategoryValidation, http.StatusBadRequest, "current password is incorrect")
	ErrPasswordUnchanged   = New("PASSWORD_UNCHANGED", CategoryValidation, http.StatusBadRequest, "new password must differ from the current one")
	ErrUnknownPermission   = New("UNKNOWN_PERMISSION", CategoryValidation, http.StatusBadRequest, "unknown permission")
	ErrFileTooLarge        = New("FILE_TOO_LARGE", CategoryValidation, http.StatusRequestEntityTooLarge, "file exceeds the maximum upload size")
	ErrUnsupportedMedia    = New("UNSUPPORTED_MEDIA_TYPE", CategoryValidation, http.StatusUnsupportedMediaType, "file type is not allowed")
	ErrMaintenance         = New("MAINTENANCE", CategoryUnavailable, http.StatusServiceUnavailable, "the system is under maintenance")
	ErrUpstreamUnavailable = New("UPSTREAM_UNAVAILABLE", CategoryUnavailable, http.StatusBadGateway, "service unavailable")
)

func (e *AppError) withCode(code string) *AppError {
	e.Code = code
	return e
}
