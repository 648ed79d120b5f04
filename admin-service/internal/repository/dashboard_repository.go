package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/models"
	sharedredis "github.com/startupstarter/admin/shared/redis"
)

const (
	dashboardKeyPrefix  = "dashboard:"
	recentActivityLimit = 10
)

// DashboardRepository aggregates per-account counters and caches the result
// for a short TTL.
type DashboardRepository struct {
	db    *sql.DB
	audit *AuditRepository
	cache *sharedredis.ViewCache[models.DashboardSummary]
}

func NewDashboardRepository(db *sql.DB, audit *AuditRepository, redisClient *goredis.Client, log *logger.Logger, ttl time.Duration) *DashboardRepository {
	return &DashboardRepository{
		db:    db,
		audit: audit,
		cache: sharedredis.NewViewCache[models.DashboardSummary](redisClient, log, ttl),
	}
}

func (r *DashboardRepository) Summary(ctx context.Context, accountID string, now time.Time) (*models.DashboardSummary, error) {
	key := dashboardKeyPrefix + accountID
	if s, ok := r.cache.Get(ctx, key); ok {
		return s, nil
	}
	s, err := r.build(ctx, accountID, now)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, key, s)
	return s, nil
}

func (r *DashboardRepository) build(ctx context.Context, accountID string, now time.Time) (*models.DashboardSummary, error) {
	s := &models.DashboardSummary{ContentByStatus: map[string]int{}, GeneratedAt: now.UTC()}

	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $2),
		       COUNT(*) FILTER (WHERE status = $3)
		FROM users WHERE account_id = $1 AND deleted_at IS NULL`,
		accountID, models.UserActive, models.UserLocked,
	).Scan(&s.Users.Total, &s.Users.Active, &s.Users.Locked); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	for _, st := range models.ContentStatuses {
		s.ContentByStatus[st] = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM content
		WHERE account_id = $1 AND deleted_at IS NULL GROUP BY status`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to count content: %w", err)
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan content count: %w", err)
		}
		s.ContentByStatus[status] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM media WHERE account_id = $1`, accountID,
	).Scan(&s.Media.Count, &s.Media.TotalBytes); err != nil {
		return nil, fmt.Errorf("failed to count media: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM api_keys WHERE account_id = $1 AND revoked_at IS NULL
		     AND (expires_at IS NULL OR expires_at > $2)),
		  (SELECT COUNT(*) FROM webhooks WHERE account_id = $1 AND active),
		  (SELECT COUNT(*) FROM webhook_deliveries WHERE account_id = $1 AND success AND created_at >= $3),
		  (SELECT COUNT(*) FROM webhook_deliveries WHERE account_id = $1 AND NOT success AND created_at >= $3)`,
		accountID, now, now.Add(-24*time.Hour),
	).Scan(&s.ActiveAPIKeys, &s.ActiveWebhooks, &s.Deliveries24h.Succeeded, &s.Deliveries24h.Failed); err != nil {
		return nil, fmt.Errorf("failed to count integrations: %w", err)
	}

	recent, _, err := r.audit.List(ctx, cqrs.ListAuditQuery{
		Page:      cqrs.Page{Page: 1, PageSize: recentActivityLimit},
		AccountID: accountID,
	})
	if err != nil {
		return nil, err
	}
	s.RecentActivity = lo.Map(recent, func(e *models.AuditEntry, _ int) models.AuditEntryView {
		return *models.NewAuditEntryView(e)
	})
	return s, nil
}
