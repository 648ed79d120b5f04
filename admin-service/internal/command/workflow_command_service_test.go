package command

import (
	"context"
	"testing"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
	"github.com/stretchr/testify/require"
)

func newWorkflowService(t *testing.T, wfs ...*models.Workflow) (*WorkflowCommandService, *fakeWorkflows, *fakePublisher) {
	t.Helper()
	roles := newFakeRoles(mustRole(t, "rol-editor", "acc-1", "Editor"), mustRole(t, "rol-legal", "acc-1", "Legal"))
	store := newFakeWorkflows(wfs...)
	pub := &fakePublisher{}
	return NewWorkflowCommandService(store, roles, pub, newTestClock()), store, pub
}

func TestCreateWorkflow(t *testing.T) {
	req := require.New(t)
	svc, store, pub := newWorkflowService(t)

	view, err := svc.CreateWorkflow(context.Background(), cqrs.CreateWorkflowCommand{
		Actor: adminActor,
		Name:  "Two step",
		Steps: []models.WorkflowStep{
			{Name: "Edit", ApproverRoleID: "rol-editor"},
			{Name: "Legal", ApproverRoleID: "rol-legal"},
		},
		IsDefault: true,
	})
	req.NoError(err)
	req.Len(view.Steps, 2)
	req.Equal(1, view.Steps[0].Order)
	req.Equal(2, view.Steps[1].Order)
	req.True(store.byKey[storeKey("acc-1", view.ID)].IsDefault)
	req.Equal([]string{models.EventWorkflowCreated}, pub.types())

	_, err = svc.CreateWorkflow(context.Background(), cqrs.CreateWorkflowCommand{
		Actor: adminActor, Name: "Bad", Steps: []models.WorkflowStep{{Name: "x", ApproverRoleID: "rol-ghost"}},
	})
	req.ErrorIs(err, apperrors.ErrRoleNotFound)

	_, err = svc.CreateWorkflow(context.Background(), cqrs.CreateWorkflowCommand{Actor: adminActor, Name: "Empty"})
	appErr, ok := apperrors.AsAppError(err)
	req.True(ok)
	req.Equal(apperrors.CategoryValidation, appErr.Category)
}

func TestCreateWorkflow_DefaultMovesToNewest(t *testing.T) {
	req := require.New(t)
	old, err := models.NewWorkflow("wfl-old", "acc-1", "Old", "", []models.WorkflowStep{{ApproverRoleID: "rol-editor"}}, true, testNow)
	req.NoError(err)
	svc, store, _ := newWorkflowService(t, old)

	view, err := svc.CreateWorkflow(context.Background(), cqrs.CreateWorkflowCommand{
		Actor: adminActor, Name: "New", Steps: []models.WorkflowStep{{ApproverRoleID: "rol-legal"}}, IsDefault: true,
	})
	req.NoError(err)
	req.False(store.byKey[storeKey("acc-1", "wfl-old")].IsDefault)
	req.True(store.byKey[storeKey("acc-1", view.ID)].IsDefault)
}

func TestDeleteWorkflow_PendingContent(t *testing.T) {
	req := require.New(t)
	wf, err := models.NewWorkflow("wfl-1", "acc-1", "One", "", []models.WorkflowStep{{ApproverRoleID: "rol-editor"}}, false, testNow)
	req.NoError(err)
	svc, store, pub := newWorkflowService(t, wf)
	store.pending["wfl-1"] = 1

	err = svc.DeleteWorkflow(context.Background(), cqrs.DeleteWorkflowCommand{Actor: adminActor, WorkflowID: "wfl-1"})
	req.ErrorIs(err, apperrors.ErrWorkflowInUse)

	store.pending["wfl-1"] = 0
	req.NoError(svc.DeleteWorkflow(context.Background(), cqrs.DeleteWorkflowCommand{Actor: adminActor, WorkflowID: "wfl-1"}))
	req.Empty(store.byKey)
	req.Equal([]string{models.EventWorkflowDeleted}, pub.types())
}

func TestImportWorkflows(t *testing.T) {
	req := require.New(t)
	svc, store, _ := newWorkflowService(t)

	created, err := svc.ImportWorkflows(context.Background(), cqrs.ImportWorkflowsCommand{
		Actor: adminActor,
		Workflows: []cqrs.WorkflowDefinition{
			{Name: "Standard", IsDefault: true, Steps: []cqrs.WorkflowStepDefinition{{Name: "Review", Role: "editor"}}},
			{Name: "Broken", Steps: []cqrs.WorkflowStepDefinition{{Name: "Sign-off", Role: "Finance"}}},
		},
	})
	req.ErrorIs(err, apperrors.ErrRoleNotFound)
	req.ErrorContains(err, "Broken")
	req.Len(created, 1)
	req.Len(store.byKey, 1)
	req.Equal("rol-editor", created[0].Steps[0].ApproverRoleID)
}
