package query

import (
	"context"

	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

// AccountReader is served by the Redis-first account read repository.
type AccountReader interface {
	GetByID(ctx context.Context, id string) (*models.AccountView, error)
}

type AccountLister interface {
	List(ctx context.Context, q cqrs.ListAccountsQuery) ([]*models.Account, int, error)
}

type AccountQueryService struct {
	readRepo AccountReader
	lister   AccountLister
}

func NewAccountQueryService(readRepo AccountReader, lister AccountLister) *AccountQueryService {
	return &AccountQueryService{readRepo: readRepo, lister: lister}
}

// GetAccount returns the caller's own account. The handler always passes the
// principal's account id, so no further tenancy check is needed here.
func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	return s.readRepo.GetByID(ctx, q.AccountID)
}

// ListAccounts is the platform-wide tenant listing.
func (s *AccountQueryService) ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) (*models.PagedResult[models.AccountView], error) {
	rows, total, err := s.lister.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return paged(rows, total, q.Page, models.NewAccountView), nil
}
