package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
)

type SystemCommander interface {
	SetMaintenance(ctx context.Context, cmd cqrs.SetMaintenanceCommand) (*models.MaintenanceState, error)
	FlushCache(ctx context.Context, cmd cqrs.FlushCacheCommand) (int64, error)
	Purge(ctx context.Context, cmd cqrs.PurgeCommand) (map[string]int64, error)
}

type SystemQuerier interface {
	GetStatus(ctx context.Context) *models.SystemStatus
	GetMaintenance(ctx context.Context) (models.MaintenanceState, error)
}

type SystemHandler struct {
	commands SystemCommander
	queries  SystemQuerier
}

func NewSystemHandler(commands SystemCommander, queries SystemQuerier) *SystemHandler {
	return &SystemHandler{commands: commands, queries: queries}
}

type MaintenanceRequest struct {
	Enabled *bool  `json:"enabled" validate:"required"`
	Message string `json:"message" validate:"max=500"`
}

type PurgeRequest struct {
	OlderThanDays int `json:"olderThanDays" validate:"required,gte=1"`
}

type FlushResponse struct {
	Deleted int64 `json:"deleted"`
}

type PurgeResponse struct {
	Deleted map[string]int64 `json:"deleted"`
}

func (h *SystemHandler) RegisterRoutes(authed *gin.RouterGroup) {
	system := authed.Group("/system", middleware.RequirePlatformAdmin())
	system.GET("/status", h.GetStatus)
	system.GET("/maintenance", h.GetMaintenance)
	system.PUT("/maintenance", h.SetMaintenance)
	system.POST("/cache/flush", h.FlushCache)
	system.POST("/purge", h.Purge)
}

func (h *SystemHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.queries.GetStatus(c.Request.Context()))
}

func (h *SystemHandler) GetMaintenance(c *gin.Context) {
	state, err := h.queries.GetMaintenance(c.Request.Context())
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SystemHandler) SetMaintenance(c *gin.Context) {
	var req MaintenanceRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	state, err := h.commands.SetMaintenance(c.Request.Context(), cqrs.SetMaintenanceCommand{
		Actor:   actor(c),
		Enabled: *req.Enabled,
		Message: req.Message,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SystemHandler) FlushCache(c *gin.Context) {
	n, err := h.commands.FlushCache(c.Request.Context(), cqrs.FlushCacheCommand{Actor: actor(c)})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, FlushResponse{Deleted: n})
}

func (h *SystemHandler) Purge(c *gin.Context) {
	var req PurgeRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	counts, err := h.commands.Purge(c.Request.Context(), cqrs.PurgeCommand{
		Actor:         actor(c),
		OlderThanDays: req.OlderThanDays,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, PurgeResponse{Deleted: counts})
}
