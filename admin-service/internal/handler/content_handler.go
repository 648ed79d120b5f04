package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
)

type ContentCommander interface {
	CreateContent(ctx context.Context, cmd cqrs.CreateContentCommand) (*models.ContentView, error)
	UpdateContent(ctx context.Context, cmd cqrs.UpdateContentCommand) (*models.ContentView, error)
	DeleteContent(ctx context.Context, cmd cqrs.DeleteContentCommand) error
	SubmitContent(ctx context.Context, cmd cqrs.SubmitContentCommand) (*models.ContentView, error)
	ApproveContent(ctx context.Context, cmd cqrs.ApproveContentCommand) (*models.ContentView, error)
	RejectContent(ctx context.Context, cmd cqrs.RejectContentCommand) (*models.ContentView, error)
	PublishContent(ctx context.Context, cmd cqrs.PublishContentCommand) (*models.ContentView, error)
	UnpublishContent(ctx context.Context, cmd cqrs.UnpublishContentCommand) (*models.ContentView, error)
	ArchiveContent(ctx context.Context, cmd cqrs.ArchiveContentCommand) (*models.ContentView, error)
}

type ContentQuerier interface {
	GetContent(ctx context.Context, q cqrs.GetContentQuery) (*models.ContentView, error)
	ListContent(ctx context.Context, q cqrs.ListContentQuery) (*models.PagedResult[models.ContentView], error)
	ListApprovals(ctx context.Context, q cqrs.ListApprovalsQuery) ([]models.ApprovalView, error)
}

type ContentHandler struct {
	commands ContentCommander
	queries  ContentQuerier
}

func NewContentHandler(commands ContentCommander, queries ContentQuerier) *ContentHandler {
	return &ContentHandler{commands: commands, queries: queries}
}

type ContentRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Slug  string `json:"slug" validate:"omitempty,max=200"`
	Body  string `json:"body"`
}

type SubmitContentRequest struct {
	WorkflowID string `json:"workflowId"`
}

type ReviewRequest struct {
	Comment string `json:"comment" validate:"max=2000"`
}

func (h *ContentHandler) RegisterRoutes(authed *gin.RouterGroup) {
	read := middleware.RequirePermission(models.PermContentRead)
	write := middleware.RequirePermission(models.PermContentWrite)
	publish := middleware.RequirePermission(models.PermContentPublish)

	content := authed.Group("/content")
	content.GET("", read, h.ListContent)
	content.POST("", write, h.CreateContent)
	content.GET("/:contentId", read, h.GetContent)
	content.PUT("/:contentId", write, h.UpdateContent)
	content.DELETE("/:contentId", write, h.DeleteContent)
	content.GET("/:contentId/approvals", read, h.ListApprovals)
	content.POST("/:contentId/submit", write, h.SubmitContent)
	content.POST("/:contentId/approve", read, middleware.RequireUser(), h.ApproveContent)
	content.POST("/:contentId/reject", read, middleware.RequireUser(), h.RejectContent)
	content.POST("/:contentId/publish", publish, h.PublishContent)
	content.POST("/:contentId/unpublish", publish, h.UnpublishContent)
	content.POST("/:contentId/archive", write, h.ArchiveContent)
}

func (h *ContentHandler) CreateContent(c *gin.Context) {
	var req ContentRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.CreateContent(c.Request.Context(), cqrs.CreateContentCommand{
		Actor: actor(c),
		Title: req.Title,
		Slug:  req.Slug,
		Body:  req.Body,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *ContentHandler) GetContent(c *gin.Context) {
	view, err := h.queries.GetContent(c.Request.Context(), cqrs.GetContentQuery{
		AccountID: actor(c).AccountID,
		ContentID: c.Param("contentId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ContentHandler) ListContent(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	res, err := h.queries.ListContent(c.Request.Context(), cqrs.ListContentQuery{
		Page:      page,
		AccountID: actor(c).AccountID,
		Status:    c.Query("status"),
		AuthorID:  c.Query("authorId"),
		Search:    c.Query("search"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ContentHandler) ListApprovals(c *gin.Context) {
	list, err := h.queries.ListApprovals(c.Request.Context(), cqrs.ListApprovalsQuery{
		AccountID: actor(c).AccountID,
		ContentID: c.Param("contentId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ContentHandler) UpdateContent(c *gin.Context) {
	var req ContentRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.UpdateContent(c.Request.Context(), cqrs.UpdateContentCommand{
		Actor:     actor(c),
		ContentID: c.Param("contentId"),
		Title:     req.Title,
		Slug:      req.Slug,
		Body:      req.Body,
	})
	h.respond(c, view, err)
}

func (h *ContentHandler) DeleteContent(c *gin.Context) {
	err := h.commands.DeleteContent(c.Request.Context(), cqrs.DeleteContentCommand{
		Actor:     actor(c),
		ContentID: c.Param("contentId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ContentHandler) SubmitContent(c *gin.Context) {
	var req SubmitContentRequest
	// The body is optional; an empty one submits to the default workflow.
	if c.Request.ContentLength > 0 && !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.SubmitContent(c.Request.Context(), cqrs.SubmitContentCommand{
		Actor:      actor(c),
		ContentID:  c.Param("contentId"),
		WorkflowID: req.WorkflowID,
	})
	h.respond(c, view, err)
}

func (h *ContentHandler) ApproveContent(c *gin.Context) {
	var req ReviewRequest
	if c.Request.ContentLength > 0 && !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.ApproveContent(c.Request.Context(), cqrs.ApproveContentCommand{
		Actor:     actor(c),
		ContentID: c.Param("contentId"),
		Comment:   req.Comment,
	})
	h.respond(c, view, err)
}

func (h *ContentHandler) RejectContent(c *gin.Context) {
	var req ReviewRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.RejectContent(c.Request.Context(), cqrs.RejectContentCommand{
		Actor:     actor(c),
		ContentID: c.Param("contentId"),
		Comment:   req.Comment,
	})
	h.respond(c, view, err)
}

func (h *ContentHandler) PublishContent(c *gin.Context) {
	view, err := h.commands.PublishContent(c.Request.Context(), cqrs.PublishContentCommand{
		Actor:     actor(c),
		ContentID: c.Param("contentId"),
	})
	h.respond(c, view, err)
}

func (h *ContentHandler) UnpublishContent(c *gin.Context) {
	view, err := h.commands.UnpublishContent(c.Request.Context(), cqrs.UnpublishContentCommand{
		Actor:     actor(c),
		ContentID: c.Param("contentId"),
	})
	h.respond(c, view, err)
}

func (h *ContentHandler) ArchiveContent(c *gin.Context) {
	view, err := h.commands.ArchiveContent(c.Request.Context(), cqrs.ArchiveContentCommand{
		Actor:     actor(c),
		ContentID: c.Param("contentId"),
	})
	h.respond(c, view, err)
}

func (h *ContentHandler) respond(c *gin.Context, view *models.ContentView, err error) {
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
