package command

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
	"github.com/startupstarter/admin/shared/utils"
)

const maxAPIKeyDays = 3650

type APIKeyStore interface {
	Create(ctx context.Context, k *models.APIKey) error
	GetByID(ctx context.Context, accountID, id string) (*models.APIKey, error)
	GetByPrefix(ctx context.Context, prefix string) (*models.APIKey, error)
	Revoke(ctx context.Context, k *models.APIKey) error
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}

// AccountStatusLookup is used to reject keys of suspended or deleted accounts.
type AccountStatusLookup interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

type APIKeyCommandService struct {
	keys      APIKeyStore
	accounts  AccountStatusLookup
	publisher EventPublisher
	clock     clock.Clock
	log       *logger.Logger
}

func NewAPIKeyCommandService(keys APIKeyStore, accounts AccountStatusLookup, publisher EventPublisher, clk clock.Clock, log *logger.Logger) *APIKeyCommandService {
	return &APIKeyCommandService{keys: keys, accounts: accounts, publisher: publisher, clock: clk, log: log}
}

// CreateAPIKey returns the raw key once; only its hash is stored.
func (s *APIKeyCommandService) CreateAPIKey(ctx context.Context, cmd cqrs.CreateAPIKeyCommand) (*models.CreatedAPIKeyView, error) {
	if cmd.ExpiresInDays < 0 || cmd.ExpiresInDays > maxAPIKeyDays {
		return nil, apperrors.Validation("expiresInDays must be between 0 and 3650")
	}
	now := s.clock.Now()
	var expires *time.Time
	if cmd.ExpiresInDays > 0 {
		t := now.AddDate(0, 0, cmd.ExpiresInDays).UTC()
		expires = &t
	}
	raw, prefix := utils.NewAPIKey()
	key, err := models.NewAPIKey(utils.GenerateID("key"), cmd.AccountID, cmd.Name, prefix, utils.HashToken(raw),
		cmd.Scopes, cmd.UserID, expires, now)
	if err != nil {
		return nil, err
	}
	if err := s.keys.Create(ctx, key); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, key)
	return &models.CreatedAPIKeyView{APIKeyView: *models.NewAPIKeyView(key), Key: raw}, nil
}

func (s *APIKeyCommandService) RevokeAPIKey(ctx context.Context, cmd cqrs.RevokeAPIKeyCommand) (*models.APIKeyView, error) {
	key, err := s.keys.GetByID(ctx, cmd.AccountID, cmd.APIKeyID)
	if err != nil {
		return nil, err
	}
	if err := key.Revoke(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.keys.Revoke(ctx, key); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, key)
	return models.NewAPIKeyView(key), nil
}

// ResolveAPIKey authenticates a raw X-API-Key value. Every failure is reported
// as the same INVALID_API_KEY error.
func (s *APIKeyCommandService) ResolveAPIKey(ctx context.Context, raw string) (*middleware.Principal, error) {
	prefix := utils.APIKeyPrefix(raw)
	if prefix == "" {
		return nil, apperrors.ErrInvalidAPIKey
	}
	key, err := s.keys.GetByPrefix(ctx, prefix)
	if errors.Is(err, apperrors.ErrAPIKeyNotFound) {
		return nil, apperrors.ErrInvalidAPIKey
	}
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(key.KeyHash), []byte(utils.HashToken(raw))) != 1 {
		return nil, apperrors.ErrInvalidAPIKey
	}
	now := s.clock.Now()
	if !key.Usable(now) {
		return nil, apperrors.ErrInvalidAPIKey
	}
	account, err := s.accounts.GetByID(ctx, key.AccountID)
	if errors.Is(err, apperrors.ErrAccountNotFound) {
		return nil, apperrors.ErrInvalidAPIKey
	}
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, apperrors.ErrInvalidAPIKey.WithMessage("account is suspended")
	}
	if err := s.keys.TouchLastUsed(ctx, key.ID, now); err != nil {
		s.log.Warn("failed to record api key use", "apiKeyId", key.ID, "error", err)
	}
	return &middleware.Principal{
		AccountID:   key.AccountID,
		APIKeyID:    key.ID,
		Permissions: key.Scopes,
	}, nil
}
