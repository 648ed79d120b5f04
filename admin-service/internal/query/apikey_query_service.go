package query

import (
	"context"

	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

type APIKeyReader interface {
	GetByID(ctx context.Context, accountID, id string) (*models.APIKey, error)
	List(ctx context.Context, accountID string, includeRevoked bool) ([]*models.APIKey, error)
}

type APIKeyQueryService struct {
	keys APIKeyReader
}

func NewAPIKeyQueryService(keys APIKeyReader) *APIKeyQueryService {
	return &APIKeyQueryService{keys: keys}
}

func (s *APIKeyQueryService) GetAPIKey(ctx context.Context, q cqrs.GetAPIKeyQuery) (*models.APIKeyView, error) {
	k, err := s.keys.GetByID(ctx, q.AccountID, q.APIKeyID)
	if err != nil {
		return nil, err
	}
	return models.NewAPIKeyView(k), nil
}

func (s *APIKeyQueryService) ListAPIKeys(ctx context.Context, q cqrs.ListAPIKeysQuery) ([]models.APIKeyView, error) {
	rows, err := s.keys.List(ctx, q.AccountID, q.IncludeRevoked)
	if err != nil {
		return nil, err
	}
	return views(rows, models.NewAPIKeyView), nil
}
