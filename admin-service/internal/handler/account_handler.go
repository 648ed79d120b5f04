package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/admin-service/internal/command"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
)

type AccountCommander interface {
	CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*command.SignupResult, error)
	UpdateAccount(ctx context.Context, cmd cqrs.UpdateAccountCommand) (*models.AccountView, error)
	DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error
	SuspendAccount(ctx context.Context, cmd cqrs.SuspendAccountCommand) (*models.AccountView, error)
	ReactivateAccount(ctx context.Context, cmd cqrs.ReactivateAccountCommand) (*models.AccountView, error)
}

type AccountQuerier interface {
	GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error)
	ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) (*models.PagedResult[models.AccountView], error)
}

type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

type SignupRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Slug          string `json:"slug" validate:"omitempty,max=63"`
	Plan          string `json:"plan" validate:"omitempty,oneof=free pro enterprise"`
	OwnerName     string `json:"ownerName" validate:"required,max=100"`
	OwnerEmail    string `json:"ownerEmail" validate:"required,email"`
	OwnerPassword string `json:"ownerPassword" validate:"required,min=8"`
}

type UpdateAccountRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Plan string `json:"plan" validate:"required,oneof=free pro enterprise"`
}

// RegisterPublicRoutes mounts signup, which needs no authentication.
func (h *AccountHandler) RegisterPublicRoutes(public *gin.RouterGroup) {
	public.POST("/accounts", h.CreateAccount)
}

func (h *AccountHandler) RegisterRoutes(authed *gin.RouterGroup) {
	me := authed.Group("/accounts/me")
	me.GET("", middleware.RequirePermission(models.PermAccountsRead), h.GetAccount)
	me.PATCH("", middleware.RequirePermission(models.PermAccountsWrite), h.UpdateAccount)
	me.DELETE("", middleware.RequireUser(), h.DeleteAccount)

	platform := authed.Group("/platform/accounts", middleware.RequirePlatformAdmin())
	platform.GET("", h.ListAccounts)
	platform.POST("/:accountId/suspend", h.SuspendAccount)
	platform.POST("/:accountId/reactivate", h.ReactivateAccount)
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req SignupRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	res, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		Name:          req.Name,
		Slug:          req.Slug,
		Plan:          req.Plan,
		OwnerName:     req.OwnerName,
		OwnerEmail:    req.OwnerEmail,
		OwnerPassword: req.OwnerPassword,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{AccountID: actor(c).AccountID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	var req UpdateAccountRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.UpdateAccount(c.Request.Context(), cqrs.UpdateAccountCommand{
		Actor: actor(c),
		Name:  req.Name,
		Plan:  req.Plan,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	if err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{Actor: actor(c)}); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	res, err := h.queries.ListAccounts(c.Request.Context(), cqrs.ListAccountsQuery{
		Page:   page,
		Status: c.Query("status"),
		Search: c.Query("search"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AccountHandler) SuspendAccount(c *gin.Context) {
	view, err := h.commands.SuspendAccount(c.Request.Context(), cqrs.SuspendAccountCommand{
		Actor:     actor(c),
		AccountID: c.Param("accountId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) ReactivateAccount(c *gin.Context) {
	view, err := h.commands.ReactivateAccount(c.Request.Context(), cqrs.ReactivateAccountCommand{
		Actor:     actor(c),
		AccountID: c.Param("accountId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
