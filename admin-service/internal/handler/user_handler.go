package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.UserView, error)
	UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.UserView, error)
	DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) error
	LockUser(ctx context.Context, cmd cqrs.LockUserCommand) (*models.UserView, error)
	UnlockUser(ctx context.Context, cmd cqrs.UnlockUserCommand) (*models.UserView, error)
	AssignRoles(ctx context.Context, cmd cqrs.AssignRolesCommand) (*models.UserView, error)
	ChangePassword(ctx context.Context, cmd cqrs.ChangePasswordCommand) error
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error)
	ListUsers(ctx context.Context, q cqrs.ListUsersQuery) (*models.PagedResult[models.UserView], error)
}

// UserHandler routes requests to the command or query service as appropriate.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

type CreateUserRequest struct {
	Name     string   `json:"name" validate:"required,max=100"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	RoleIDs  []string `json:"roleIds"`
}

type UpdateUserRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}

type AssignRolesRequest struct {
	RoleIDs []string `json:"roleIds" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// MeResponse is the caller's own profile plus the permissions of the
// current token.
type MeResponse struct {
	*models.UserView
	Permissions   []string `json:"permissions"`
	PlatformAdmin bool     `json:"platformAdmin"`
}

func (h *UserHandler) RegisterRoutes(authed *gin.RouterGroup) {
	me := authed.Group("/users/me", middleware.RequireUser())
	me.GET("", h.GetMe)
	me.POST("/password", h.ChangePassword)

	read := middleware.RequirePermission(models.PermUsersRead)
	write := middleware.RequirePermission(models.PermUsersWrite)
	users := authed.Group("/users")
	users.GET("", read, h.ListUsers)
	users.POST("", write, h.CreateUser)
	users.GET("/:userId", read, h.GetUser)
	users.PATCH("/:userId", write, h.UpdateUser)
	users.DELETE("/:userId", write, h.DeleteUser)
	users.POST("/:userId/lock", write, h.LockUser)
	users.POST("/:userId/unlock", write, h.UnlockUser)
	users.PUT("/:userId/roles", write, h.AssignRoles)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.CreateUser(c.Request.Context(), cqrs.CreateUserCommand{
		Actor:    actor(c),
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) GetMe(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	view, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{AccountID: p.AccountID, UserID: p.UserID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	perms := p.Permissions
	if perms == nil {
		perms = []string{}
	}
	c.JSON(http.StatusOK, MeResponse{UserView: view, Permissions: perms, PlatformAdmin: p.PlatformAdmin})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	view, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{
		AccountID: actor(c).AccountID,
		UserID:    c.Param("userId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	res, err := h.queries.ListUsers(c.Request.Context(), cqrs.ListUsersQuery{
		Page:      page,
		AccountID: actor(c).AccountID,
		Search:    c.Query("search"),
		Status:    c.Query("status"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.UpdateUser(c.Request.Context(), cqrs.UpdateUserCommand{
		Actor:  actor(c),
		UserID: c.Param("userId"),
		Name:   req.Name,
		Email:  req.Email,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	err := h.commands.DeleteUser(c.Request.Context(), cqrs.DeleteUserCommand{Actor: actor(c), UserID: c.Param("userId")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) LockUser(c *gin.Context) {
	view, err := h.commands.LockUser(c.Request.Context(), cqrs.LockUserCommand{Actor: actor(c), UserID: c.Param("userId")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) UnlockUser(c *gin.Context) {
	view, err := h.commands.UnlockUser(c.Request.Context(), cqrs.UnlockUserCommand{Actor: actor(c), UserID: c.Param("userId")})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) AssignRoles(c *gin.Context) {
	var req AssignRolesRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.AssignRoles(c.Request.Context(), cqrs.AssignRolesCommand{
		Actor:   actor(c),
		UserID:  c.Param("userId"),
		RoleIDs: req.RoleIDs,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	err := h.commands.ChangePassword(c.Request.Context(), cqrs.ChangePasswordCommand{
		Actor:           actor(c),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
