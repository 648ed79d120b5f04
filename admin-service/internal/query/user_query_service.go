package query

import (
	"context"

	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

type UserReader interface {
	GetByID(ctx context.Context, accountID, id string) (*models.UserView, error)
	List(ctx context.Context, q cqrs.ListUsersQuery) (*models.PagedResult[models.UserView], error)
}

type UserQueryService struct {
	readRepo UserReader
}

func NewUserQueryService(readRepo UserReader) *UserQueryService {
	return &UserQueryService{readRepo: readRepo}
}

func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	return s.readRepo.GetByID(ctx, q.AccountID, q.UserID)
}

func (s *UserQueryService) ListUsers(ctx context.Context, q cqrs.ListUsersQuery) (*models.PagedResult[models.UserView], error) {
	return s.readRepo.List(ctx, q)
}
