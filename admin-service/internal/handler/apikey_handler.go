package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
)

type APIKeyCommander interface {
	CreateAPIKey(ctx context.Context, cmd cqrs.CreateAPIKeyCommand) (*models.CreatedAPIKeyView, error)
	RevokeAPIKey(ctx context.Context, cmd cqrs.RevokeAPIKeyCommand) (*models.APIKeyView, error)
}

type APIKeyQuerier interface {
	GetAPIKey(ctx context.Context, q cqrs.GetAPIKeyQuery) (*models.APIKeyView, error)
	ListAPIKeys(ctx context.Context, q cqrs.ListAPIKeysQuery) ([]models.APIKeyView, error)
}

type APIKeyHandler struct {
	commands APIKeyCommander
	queries  APIKeyQuerier
}

func NewAPIKeyHandler(commands APIKeyCommander, queries APIKeyQuerier) *APIKeyHandler {
	return &APIKeyHandler{commands: commands, queries: queries}
}

type CreateAPIKeyRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Scopes        []string `json:"scopes" validate:"required,min=1"`
	ExpiresInDays int      `json:"expiresInDays" validate:"gte=0,lte=3650"`
}

func (h *APIKeyHandler) RegisterRoutes(authed *gin.RouterGroup) {
	read := middleware.RequirePermission(models.PermAPIKeysRead)
	write := middleware.RequirePermission(models.PermAPIKeysWrite)
	keys := authed.Group("/api-keys")
	keys.GET("", read, h.ListAPIKeys)
	keys.POST("", write, h.CreateAPIKey)
	keys.GET("/:apiKeyId", read, h.GetAPIKey)
	keys.POST("/:apiKeyId/revoke", write, h.RevokeAPIKey)
}

func (h *APIKeyHandler) CreateAPIKey(c *gin.Context) {
	var req CreateAPIKeyRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.CreateAPIKey(c.Request.Context(), cqrs.CreateAPIKeyCommand{
		Actor:         actor(c),
		Name:          req.Name,
		Scopes:        req.Scopes,
		ExpiresInDays: req.ExpiresInDays,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *APIKeyHandler) GetAPIKey(c *gin.Context) {
	view, err := h.queries.GetAPIKey(c.Request.Context(), cqrs.GetAPIKeyQuery{
		AccountID: actor(c).AccountID,
		APIKeyID:  c.Param("apiKeyId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *APIKeyHandler) ListAPIKeys(c *gin.Context) {
	list, err := h.queries.ListAPIKeys(c.Request.Context(), cqrs.ListAPIKeysQuery{
		AccountID:      actor(c).AccountID,
		IncludeRevoked: c.Query("includeRevoked") == "true",
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *APIKeyHandler) RevokeAPIKey(c *gin.Context) {
	view, err := h.commands.RevokeAPIKey(c.Request.Context(), cqrs.RevokeAPIKeyCommand{
		Actor:    actor(c),
		APIKeyID: c.Param("apiKeyId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
