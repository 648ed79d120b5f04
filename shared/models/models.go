package models

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/startupstarter/admin/shared/apperrors"
)

type Media struct {
	AggregateRoot

	ID          string
	AccountID   string
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
	UploadedBy  string
	CreatedAt   time.Time
}

func NewMedia(id, accountID, fileName, contentType string, size int64, storageKey, uploadedBy string, now time.Time) *Media {
	m := &Media{
		ID:          id,
		AccountID:   accountID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
		StorageKey:  storageKey,
		UploadedBy:  uploadedBy,
		CreatedAt:   now.UTC(),
	}
	m.Raise(EventMediaUploaded, EntityMedia, m.ID, m.eventData(), now)
	return m
}

func (m *Media) MarkDeleted(now time.Time) {
	m.Raise(EventMediaDeleted, EntityMedia, m.ID, m.eventData(), now)
}

func (m *Media) eventData() MediaEventData {
	return MediaEventData{MediaID: m.ID, FileName: m.FileName, ContentType: m.ContentType, SizeBytes: m.SizeBytes}
}

// APIKey authenticates machine clients of one account. Only a hash of the
// secret is ever stored.
type APIKey struct {
	AggregateRoot

	ID         string
	AccountID  string
	Name       string
	Prefix     string
	KeyHash    string
	Scopes     []string
	CreatedBy  string
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	RevokedAt  *time.Time
	CreatedAt  time.Time
}

func NewAPIKey(id, accountID, name, prefix, keyHash string, scopes []string, createdBy string, expiresAt *time.Time, now time.Time) (*APIKey, error) {
	normalized, bad, ok := NormalizePermissions(scopes, false)
	if !ok {
		return nil, apperrors.ErrUnknownPermission.WithMessage("scope not assignable: " + bad)
	}
	if len(normalized) == 0 {
		return nil, apperrors.Validation("an api key needs at least one scope")
	}
	k := &APIKey{
		ID:        id,
		AccountID: accountID,
		Name:      name,
		Prefix:    prefix,
		KeyHash:   keyHash,
		Scopes:    normalized,
		CreatedBy: createdBy,
		ExpiresAt: expiresAt,
		CreatedAt: now.UTC(),
	}
	k.Raise(EventAPIKeyCreated, EntityAPIKey, k.ID, k.eventData(), now)
	return k, nil
}

func (k *APIKey) Revoke(now time.Time) error {
	if k.RevokedAt != nil {
		return apperrors.ErrInvalidTransition.WithMessage("api key is already revoked")
	}
	t := now.UTC()
	k.RevokedAt = &t
	k.Raise(EventAPIKeyRevoked, EntityAPIKey, k.ID, k.eventData(), now)
	return nil
}

func (k *APIKey) Usable(now time.Time) bool {
	if k.RevokedAt != nil {
		return false
	}
	return k.ExpiresAt == nil || now.Before(*k.ExpiresAt)
}

func (k *APIKey) eventData() APIKeyEventData {
	return APIKeyEventData{APIKeyID: k.ID, Name: k.Name, Prefix: k.Prefix, Scopes: k.Scopes}
}

// WildcardEvent subscribes a webhook to every event type.
const WildcardEvent = "*"

type Webhook struct {
	AggregateRoot

	ID          string
	AccountID   string
	URL         string
	Description string
	Events      []string
	Secret      string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewWebhook(id, accountID, url, description string, events []string, secret string, now time.Time) (*Webhook, error) {
	if err := validateWebhook(url, events); err != nil {
		return nil, err
	}
	w := &Webhook{
		ID:          id,
		AccountID:   accountID,
		URL:         url,
		Description: description,
		Events:      lo.Uniq(events),
		Secret:      secret,
		Active:      true,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	w.Raise(EventWebhookCreated, EntityWebhook, w.ID, w.eventData(), now)
	return w, nil
}

func (w *Webhook) Update(url, description string, events []string, active bool, now time.Time) error {
	if err := validateWebhook(url, events); err != nil {
		return err
	}
	w.URL = url
	w.Description = description
	w.Events = lo.Uniq(events)
	w.Active = active
	w.UpdatedAt = now.UTC()
	w.Raise(EventWebhookUpdated, EntityWebhook, w.ID, w.eventData(), now)
	return nil
}

func (w *Webhook) MarkDeleted(now time.Time) {
	w.Raise(EventWebhookDeleted, EntityWebhook, w.ID, w.eventData(), now)
}

// Subscribes reports whether an event type should be delivered to this webhook.
func (w *Webhook) Subscribes(eventType string) bool {
	if !w.Active {
		return false
	}
	return lo.Contains(w.Events, WildcardEvent) || lo.Contains(w.Events, eventType)
}

func (w *Webhook) eventData() WebhookEventData {
	return WebhookEventData{WebhookID: w.ID, URL: w.URL, Events: w.Events, Active: w.Active}
}

func validateWebhook(url string, events []string) error {
	if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
		return apperrors.Validation("webhook url must use http or https")
	}
	if len(events) == 0 {
		return apperrors.Validation("a webhook needs at least one event")
	}
	for _, e := range events {
		if strings.TrimSpace(e) == "" {
			return apperrors.Validation("event names cannot be empty")
		}
	}
	return nil
}

// WebhookDelivery is the outcome of the single delivery attempt of one event
// to one webhook.
type WebhookDelivery struct {
	ID         string
	WebhookID  string
	AccountID  string
	EventID    string
	EventType  string
	StatusCode int
	Success    bool
	Error      string
	DurationMs int64
	CreatedAt  time.Time
}

type AuditEntry struct {
	ID         string
	AccountID  string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	CreatedAt  time.Time
}

// Session backs one refresh token. The raw token is never stored.
type Session struct {
	ID          string
	AccountID   string
	UserID      string
	RefreshHash string
	UserAgent   string
	IP          string
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	CreatedAt   time.Time
	LastUsedAt  time.Time
}

func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
