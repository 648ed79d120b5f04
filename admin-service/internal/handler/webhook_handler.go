package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
)

type WebhookCommander interface {
	CreateWebhook(ctx context.Context, cmd cqrs.CreateWebhookCommand) (*models.CreatedWebhookView, error)
	UpdateWebhook(ctx context.Context, cmd cqrs.UpdateWebhookCommand) (*models.WebhookView, error)
	DeleteWebhook(ctx context.Context, cmd cqrs.DeleteWebhookCommand) error
	TestWebhook(ctx context.Context, cmd cqrs.TestWebhookCommand) (*models.DeliveryView, error)
}

type WebhookQuerier interface {
	GetWebhook(ctx context.Context, q cqrs.GetWebhookQuery) (*models.WebhookView, error)
	ListWebhooks(ctx context.Context, q cqrs.ListWebhooksQuery) ([]models.WebhookView, error)
	ListDeliveries(ctx context.Context, q cqrs.ListDeliveriesQuery) (*models.PagedResult[models.DeliveryView], error)
}

type WebhookHandler struct {
	commands WebhookCommander
	queries  WebhookQuerier
}

func NewWebhookHandler(commands WebhookCommander, queries WebhookQuerier) *WebhookHandler {
	return &WebhookHandler{commands: commands, queries: queries}
}

type CreateWebhookRequest struct {
	URL         string   `json:"url" validate:"required,http_url"`
	Description string   `json:"description" validate:"max=500"`
	Events      []string `json:"events" validate:"required,min=1,dive,required"`
}

// UpdateWebhookRequest keeps the active flag when it is omitted.
type UpdateWebhookRequest struct {
	URL         string   `json:"url" validate:"required,http_url"`
	Description string   `json:"description" validate:"max=500"`
	Events      []string `json:"events" validate:"required,min=1,dive,required"`
	Active      *bool    `json:"active"`
}

func (h *WebhookHandler) RegisterRoutes(authed *gin.RouterGroup) {
	read := middleware.RequirePermission(models.PermWebhooksRead)
	write := middleware.RequirePermission(models.PermWebhooksWrite)
	hooks := authed.Group("/webhooks")
	hooks.GET("", read, h.ListWebhooks)
	hooks.POST("", write, h.CreateWebhook)
	hooks.GET("/deliveries", read, h.ListDeliveries)
	hooks.GET("/:webhookId", read, h.GetWebhook)
	hooks.PUT("/:webhookId", write, h.UpdateWebhook)
	hooks.DELETE("/:webhookId", write, h.DeleteWebhook)
	hooks.POST("/:webhookId/test", write, h.TestWebhook)
	hooks.GET("/:webhookId/deliveries", read, h.ListDeliveries)
}

func (h *WebhookHandler) CreateWebhook(c *gin.Context) {
	var req CreateWebhookRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.CreateWebhook(c.Request.Context(), cqrs.CreateWebhookCommand{
		Actor:       actor(c),
		URL:         req.URL,
		Description: req.Description,
		Events:      req.Events,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *WebhookHandler) GetWebhook(c *gin.Context) {
	view, err := h.queries.GetWebhook(c.Request.Context(), cqrs.GetWebhookQuery{
		AccountID: actor(c).AccountID,
		WebhookID: c.Param("webhookId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *WebhookHandler) ListWebhooks(c *gin.Context) {
	list, err := h.queries.ListWebhooks(c.Request.Context(), cqrs.ListWebhooksQuery{AccountID: actor(c).AccountID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *WebhookHandler) UpdateWebhook(c *gin.Context) {
	var req UpdateWebhookRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.UpdateWebhook(c.Request.Context(), cqrs.UpdateWebhookCommand{
		Actor:       actor(c),
		WebhookID:   c.Param("webhookId"),
		URL:         req.URL,
		Description: req.Description,
		Events:      req.Events,
		Active:      req.Active,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *WebhookHandler) DeleteWebhook(c *gin.Context) {
	err := h.commands.DeleteWebhook(c.Request.Context(), cqrs.DeleteWebhookCommand{
		Actor:     actor(c),
		WebhookID: c.Param("webhookId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WebhookHandler) TestWebhook(c *gin.Context) {
	view, err := h.commands.TestWebhook(c.Request.Context(), cqrs.TestWebhookCommand{
		Actor:     actor(c),
		WebhookID: c.Param("webhookId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListDeliveries serves both the per-webhook and the account-wide listing.
func (h *WebhookHandler) ListDeliveries(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	res, err := h.queries.ListDeliveries(c.Request.Context(), cqrs.ListDeliveriesQuery{
		Page:      page,
		AccountID: actor(c).AccountID,
		WebhookID: c.Param("webhookId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
