package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
)

type RoleCommander interface {
	CreateRole(ctx context.Context, cmd cqrs.CreateRoleCommand) (*models.RoleView, error)
	UpdateRole(ctx context.Context, cmd cqrs.UpdateRoleCommand) (*models.RoleView, error)
	DeleteRole(ctx context.Context, cmd cqrs.DeleteRoleCommand) error
}

type RoleQuerier interface {
	GetRole(ctx context.Context, q cqrs.GetRoleQuery) (*models.RoleView, error)
	ListRoles(ctx context.Context, q cqrs.ListRolesQuery) ([]models.RoleView, error)
	ListPermissions(platformAdmin bool) []models.Permission
}

type RoleHandler struct {
	commands RoleCommander
	queries  RoleQuerier
}

func NewRoleHandler(commands RoleCommander, queries RoleQuerier) *RoleHandler {
	return &RoleHandler{commands: commands, queries: queries}
}

type RoleRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Permissions []string `json:"permissions" validate:"required"`
}

func (h *RoleHandler) RegisterRoutes(authed *gin.RouterGroup) {
	read := middleware.RequirePermission(models.PermRolesRead)
	write := middleware.RequirePermission(models.PermRolesWrite)
	authed.GET("/permissions", read, h.ListPermissions)
	roles := authed.Group("/roles")
	roles.GET("", read, h.ListRoles)
	roles.POST("", write, h.CreateRole)
	roles.GET("/:roleId", read, h.GetRole)
	roles.PUT("/:roleId", write, h.UpdateRole)
	roles.DELETE("/:roleId", write, h.DeleteRole)
}

func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req RoleRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.CreateRole(c.Request.Context(), cqrs.CreateRoleCommand{
		Actor:       actor(c),
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *RoleHandler) GetRole(c *gin.Context) {
	view, err := h.queries.GetRole(c.Request.Context(), cqrs.GetRoleQuery{AccountID: actor(c).AccountID, RoleID: c.Param("roleId")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.queries.ListRoles(c.Request.Context(), cqrs.ListRolesQuery{AccountID: actor(c).AccountID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

func (h *RoleHandler) UpdateRole(c *gin.Context) {
	var req RoleRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.UpdateRole(c.Request.Context(), cqrs.UpdateRoleCommand{
		Actor:       actor(c),
		RoleID:      c.Param("roleId"),
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RoleHandler) DeleteRole(c *gin.Context) {
	if err := h.commands.DeleteRole(c.Request.Context(), cqrs.DeleteRoleCommand{Actor: actor(c), RoleID: c.Param("roleId")}); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoleHandler) ListPermissions(c *gin.Context) {
	c.JSON(http.StatusOK, h.queries.ListPermissions(middleware.MustPrincipal(c).PlatformAdmin))
}
