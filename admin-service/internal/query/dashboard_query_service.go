package query

import (
	"context"
	"time"

	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

type SummaryReader interface {
	Summary(ctx context.Context, accountID string, now time.Time) (*models.DashboardSummary, error)
}

type DashboardQueryService struct {
	summaries SummaryReader
	clock     clock.Clock
}

func NewDashboardQueryService(summaries SummaryReader, clk clock.Clock) *DashboardQueryService {
	return &DashboardQueryService{summaries: summaries, clock: clk}
}

func (s *DashboardQueryService) GetSummary(ctx context.Context, q cqrs.DashboardQuery) (*models.DashboardSummary, error) {
	return s.summaries.Summary(ctx, q.AccountID, s.clock.Now())
}
