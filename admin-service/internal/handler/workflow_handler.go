package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
)

type WorkflowCommander interface {
	CreateWorkflow(ctx context.Context, cmd cqrs.CreateWorkflowCommand) (*models.WorkflowView, error)
	UpdateWorkflow(ctx context.Context, cmd cqrs.UpdateWorkflowCommand) (*models.WorkflowView, error)
	DeleteWorkflow(ctx context.Context, cmd cqrs.DeleteWorkflowCommand) error
}

type WorkflowQuerier interface {
	GetWorkflow(ctx context.Context, q cqrs.GetWorkflowQuery) (*models.WorkflowView, error)
	ListWorkflows(ctx context.Context, q cqrs.ListWorkflowsQuery) ([]models.WorkflowView, error)
}

type WorkflowHandler struct {
	commands WorkflowCommander
	queries  WorkflowQuerier
}

func NewWorkflowHandler(commands WorkflowCommander, queries WorkflowQuerier) *WorkflowHandler {
	return &WorkflowHandler{commands: commands, queries: queries}
}

type WorkflowStepRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	ApproverRoleID string `json:"approverRoleId" validate:"required"`
}

type WorkflowRequest struct {
	Name        string                `json:"name" validate:"required,max=100"`
	Description string                `json:"description" validate:"max=500"`
	IsDefault   bool                  `json:"isDefault"`
	Steps       []WorkflowStepRequest `json:"steps" validate:"required,min=1,max=10,dive"`
}

func (r WorkflowRequest) steps() []models.WorkflowStep {
	return lo.Map(r.Steps, func(s WorkflowStepRequest, _ int) models.WorkflowStep {
		return models.WorkflowStep{Name: s.Name, ApproverRoleID: s.ApproverRoleID}
	})
}

func (h *WorkflowHandler) RegisterRoutes(authed *gin.RouterGroup) {
	read := middleware.RequirePermission(models.PermWorkflowsRead)
	write := middleware.RequirePermission(models.PermWorkflowsWrite)
	wf := authed.Group("/workflows")
	wf.GET("", read, h.ListWorkflows)
	wf.POST("", write, h.CreateWorkflow)
	wf.GET("/:workflowId", read, h.GetWorkflow)
	wf.PUT("/:workflowId", write, h.UpdateWorkflow)
	wf.DELETE("/:workflowId", write, h.DeleteWorkflow)
}

func (h *WorkflowHandler) CreateWorkflow(c *gin.Context) {
	var req WorkflowRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.CreateWorkflow(c.Request.Context(), cqrs.CreateWorkflowCommand{
		Actor:       actor(c),
		Name:        req.Name,
		Description: req.Description,
		Steps:       req.steps(),
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *WorkflowHandler) GetWorkflow(c *gin.Context) {
	view, err := h.queries.GetWorkflow(c.Request.Context(), cqrs.GetWorkflowQuery{
		AccountID:  actor(c).AccountID,
		WorkflowID: c.Param("workflowId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *WorkflowHandler) ListWorkflows(c *gin.Context) {
	list, err := h.queries.ListWorkflows(c.Request.Context(), cqrs.ListWorkflowsQuery{AccountID: actor(c).AccountID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *WorkflowHandler) UpdateWorkflow(c *gin.Context) {
	var req WorkflowRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.UpdateWorkflow(c.Request.Context(), cqrs.UpdateWorkflowCommand{
		Actor:       actor(c),
		WorkflowID:  c.Param("workflowId"),
		Name:        req.Name,
		Description: req.Description,
		Steps:       req.steps(),
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *WorkflowHandler) DeleteWorkflow(c *gin.Context) {
	err := h.commands.DeleteWorkflow(c.Request.Context(), cqrs.DeleteWorkflowCommand{
		Actor:      actor(c),
		WorkflowID: c.Param("workflowId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
