package query

import (
	"context"

	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

type WorkflowReader interface {
	GetByID(ctx context.Context, accountID, id string) (*models.Workflow, error)
	List(ctx context.Context, accountID string) ([]*models.Workflow, error)
}

type WorkflowQueryService struct {
	workflows WorkflowReader
}

func NewWorkflowQueryService(workflows WorkflowReader) *WorkflowQueryService {
	return &WorkflowQueryService{workflows: workflows}
}

func (s *WorkflowQueryService) GetWorkflow(ctx context.Context, q cqrs.GetWorkflowQuery) (*models.WorkflowView, error) {
	w, err := s.workflows.GetByID(ctx, q.AccountID, q.WorkflowID)
	if err != nil {
		return nil, err
	}
	return models.NewWorkflowView(w), nil
}

func (s *WorkflowQueryService) ListWorkflows(ctx context.Context, q cqrs.ListWorkflowsQuery) ([]models.WorkflowView, error) {
	rows, err := s.workflows.List(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}
	return views(rows, models.NewWorkflowView), nil
}
