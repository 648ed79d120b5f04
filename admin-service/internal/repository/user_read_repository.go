package repository

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/models"
	sharedredis "github.com/startupstarter/admin/shared/redis"
)

// UserReadRepository handles all read operations for users.
// It uses Redis as the primary read store, falling back to PostgreSQL on a miss.
type UserReadRepository struct {
	writes *UserWriteRepository
	cache  *sharedredis.ViewCache[models.UserView]
}

func NewUserReadRepository(writes *UserWriteRepository, redisClient *goredis.Client, log *logger.Logger) *UserReadRepository {
	return &UserReadRepository{
		writes: writes,
		cache:  sharedredis.NewViewCache[models.UserView](redisClient, log, 0),
	}
}

// GetByID returns a UserView from Redis first, then PostgreSQL.
func (r *UserReadRepository) GetByID(ctx context.Context, accountID, id string) (*models.UserView, error) {
	if view, ok := r.cache.Get(ctx, sharedredis.UserViewKey(accountID, id)); ok {
		return view, nil
	}

	u, err := r.writes.GetByID(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	// Warm the cache
	view := models.NewUserView(u)
	r.CacheUserView(ctx, view)
	return view, nil
}

// List always reads PostgreSQL; filtered pages are not cached.
func (r *UserReadRepository) List(ctx context.Context, q cqrs.ListUsersQuery) (*models.PagedResult[models.UserView], error) {
	users, total, err := r.writes.List(ctx, q)
	if err != nil {
		return nil, err
	}
	p := q.Page.Normalize()
	return &models.PagedResult[models.UserView]{
		Items:    lo.Map(users, func(u *models.User, _ int) models.UserView { return *models.NewUserView(u) }),
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}, nil
}

// CacheUserView stores or refreshes the Redis read model for a user.
// Called by the command service after every mutation.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	r.cache.Set(ctx, sharedredis.UserViewKey(view.AccountID, view.ID), view)
}

// InvalidateUserView removes the Redis read model entry for a deleted user.
func (r *UserReadRepository) InvalidateUserView(ctx context.Context, accountID, userID string) {
	r.cache.Delete(ctx, sharedredis.UserViewKey(accountID, userID))
}
