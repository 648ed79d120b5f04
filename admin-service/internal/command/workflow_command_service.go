package command

import (
	"context"
	"fmt"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
	"github.com/startupstarter/admin/shared/utils"
)

type WorkflowStore interface {
	Create(ctx context.Context, w *models.Workflow) error
	Update(ctx context.Context, w *models.Workflow) error
	Delete(ctx context.Context, accountID, id string) error
	GetByID(ctx context.Context, accountID, id string) (*models.Workflow, error)
	CountPending(ctx context.Context, accountID, id string) (int, error)
}

// RoleNameLookup resolves role names for workflow imports.
type RoleNameLookup interface {
	RoleChecker
	GetByName(ctx context.Context, accountID, name string) (*models.Role, error)
}

type WorkflowCommandService struct {
	workflows WorkflowStore
	roles     RoleNameLookup
	publisher EventPublisher
	clock     clock.Clock
}

func NewWorkflowCommandService(workflows WorkflowStore, roles RoleNameLookup, publisher EventPublisher, clk clock.Clock) *WorkflowCommandService {
	return &WorkflowCommandService{workflows: workflows, roles: roles, publisher: publisher, clock: clk}
}

func (s *WorkflowCommandService) CreateWorkflow(ctx context.Context, cmd cqrs.CreateWorkflowCommand) (*models.WorkflowView, error) {
	wf, err := models.NewWorkflow(utils.GenerateID("wfl"), cmd.AccountID, cmd.Name, cmd.Description, cmd.Steps, cmd.IsDefault, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.checkApprovers(ctx, wf); err != nil {
		return nil, err
	}
	if err := s.workflows.Create(ctx, wf); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, wf)
	return models.NewWorkflowView(wf), nil
}

func (s *WorkflowCommandService) UpdateWorkflow(ctx context.Context, cmd cqrs.UpdateWorkflowCommand) (*models.WorkflowView, error) {
	wf, err := s.workflows.GetByID(ctx, cmd.AccountID, cmd.WorkflowID)
	if err != nil {
		return nil, err
	}
	if err := wf.Update(cmd.Name, cmd.Description, cmd.Steps, cmd.IsDefault, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.checkApprovers(ctx, wf); err != nil {
		return nil, err
	}
	if err := s.workflows.Update(ctx, wf); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, wf)
	return models.NewWorkflowView(wf), nil
}

// DeleteWorkflow is refused while content is pending review on the workflow.
func (s *WorkflowCommandService) DeleteWorkflow(ctx context.Context, cmd cqrs.DeleteWorkflowCommand) error {
	wf, err := s.workflows.GetByID(ctx, cmd.AccountID, cmd.WorkflowID)
	if err != nil {
		return err
	}
	pending, err := s.workflows.CountPending(ctx, cmd.AccountID, wf.ID)
	if err != nil {
		return err
	}
	if pending > 0 {
		return apperrors.ErrWorkflowInUse
	}
	wf.MarkDeleted(s.clock.Now())
	if err := s.workflows.Delete(ctx, cmd.AccountID, wf.ID); err != nil {
		return err
	}
	publish(ctx, s.publisher, cmd.AccountID, cmd.UserID, wf)
	return nil
}

// ImportWorkflows creates every definition in order, resolving approver roles
// by name. It stops at the first invalid definition; earlier ones stay created.
func (s *WorkflowCommandService) ImportWorkflows(ctx context.Context, cmd cqrs.ImportWorkflowsCommand) ([]*models.WorkflowView, error) {
	var created []*models.WorkflowView
	for i, def := range cmd.Workflows {
		steps := make([]models.WorkflowStep, 0, len(def.Steps))
		for _, st := range def.Steps {
			role, err := s.roles.GetByName(ctx, cmd.AccountID, st.Role)
			if err != nil {
				return created, fmt.Errorf("workflow %d (%s): role %q: %w", i+1, def.Name, st.Role, err)
			}
			steps = append(steps, models.WorkflowStep{Name: st.Name, ApproverRoleID: role.ID})
		}
		view, err := s.CreateWorkflow(ctx, cqrs.CreateWorkflowCommand{
			Actor:       cmd.Actor,
			Name:        def.Name,
			Description: def.Description,
			Steps:       steps,
			IsDefault:   def.IsDefault,
		})
		if err != nil {
			return created, fmt.Errorf("workflow %d (%s): %w", i+1, def.Name, err)
		}
		created = append(created, view)
	}
	return created, nil
}

func (s *WorkflowCommandService) checkApprovers(ctx context.Context, wf *models.Workflow) error {
	missing, err := s.roles.MissingIDs(ctx, wf.AccountID, wf.RoleIDs())
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperrors.ErrRoleNotFound.WithMessage("unknown approver role: " + missing[0])
	}
	return nil
}
