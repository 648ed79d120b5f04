package repository

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/models"
	sharedredis "github.com/startupstarter/admin/shared/redis"
)

const accountViewKeyPrefix = "account:view:"

// AccountReadRepository serves account views from Redis, falling back to
// PostgreSQL on a miss.
type AccountReadRepository struct {
	writes *AccountWriteRepository
	cache  *sharedredis.ViewCache[models.AccountView]
}

func NewAccountReadRepository(writes *AccountWriteRepository, redisClient *goredis.Client, log *logger.Logger) *AccountReadRepository {
	return &AccountReadRepository{
		writes: writes,
		cache:  sharedredis.NewViewCache[models.AccountView](redisClient, log, 0),
	}
}

func (r *AccountReadRepository) GetByID(ctx context.Context, id string) (*models.AccountView, error) {
	if view, ok := r.cache.Get(ctx, accountViewKeyPrefix+id); ok {
		return view, nil
	}
	a, err := r.writes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := models.NewAccountView(a)
	r.CacheAccountView(ctx, view)
	return view, nil
}

// CacheAccountView stores or refreshes the Redis read model for an account.
func (r *AccountReadRepository) CacheAccountView(ctx context.Context, view *models.AccountView) {
	r.cache.Set(ctx, accountViewKeyPrefix+view.ID, view)
}

func (r *AccountReadRepository) InvalidateAccountView(ctx context.Context, accountID string) {
	r.cache.Delete(ctx, accountViewKeyPrefix+accountID)
}
