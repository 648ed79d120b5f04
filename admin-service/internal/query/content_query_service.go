package query

import (
	"context"

	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

type ContentReader interface {
	GetByID(ctx context.Context, accountID, id string) (*models.Content, error)
	List(ctx context.Context, q cqrs.ListContentQuery) ([]*models.Content, int, error)
	ListApprovals(ctx context.Context, accountID, contentID string) ([]*models.ContentApproval, error)
}

type ContentQueryService struct {
	content ContentReader
}

func NewContentQueryService(content ContentReader) *ContentQueryService {
	return &ContentQueryService{content: content}
}

func (s *ContentQueryService) GetContent(ctx context.Context, q cqrs.GetContentQuery) (*models.ContentView, error) {
	c, err := s.content.GetByID(ctx, q.AccountID, q.ContentID)
	if err != nil {
		return nil, err
	}
	return models.NewContentView(c), nil
}

// ListContent omits bodies; callers fetch one item to read it.
func (s *ContentQueryService) ListContent(ctx context.Context, q cqrs.ListContentQuery) (*models.PagedResult[models.ContentView], error) {
	rows, total, err := s.content.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return paged(rows, total, q.Page, func(c *models.Content) *models.ContentView {
		v := models.NewContentView(c)
		v.Body = ""
		return v
	}), nil
}

func (s *ContentQueryService) ListApprovals(ctx context.Context, q cqrs.ListApprovalsQuery) ([]models.ApprovalView, error) {
	if _, err := s.content.GetByID(ctx, q.AccountID, q.ContentID); err != nil {
		return nil, err
	}
	rows, err := s.content.ListApprovals(ctx, q.AccountID, q.ContentID)
	if err != nil {
		return nil, err
	}
	return views(rows, models.NewApprovalView), nil
}
