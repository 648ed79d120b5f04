// Package handler exposes auth-service over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/auth-service/internal/command"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
)

type AuthCommander interface {
	Login(ctx context.Context, cmd cqrs.LoginCommand) (*command.LoginResult, error)
	VerifyMFA(ctx context.Context, cmd cqrs.VerifyMFACommand) (*command.TokenPair, error)
	Refresh(ctx context.Context, cmd cqrs.RefreshTokenCommand) (*command.TokenPair, error)
	Logout(ctx context.Context, cmd cqrs.LogoutCommand) error
	RevokeSession(ctx context.Context, cmd cqrs.RevokeSessionCommand) error
	SetupMFA(ctx context.Context, cmd cqrs.SetupMFACommand) (*command.MFASetup, error)
	EnableMFA(ctx context.Context, cmd cqrs.EnableMFACommand) (*models.UserView, error)
	DisableMFA(ctx context.Context, cmd cqrs.DisableMFACommand) (*models.UserView, error)
}

type SessionQuerier interface {
	ListSessions(ctx context.Context, q cqrs.ListSessionsQuery) ([]models.SessionView, error)
}

type AuthHandler struct {
	commands AuthCommander
	queries  SessionQuerier
}

func NewAuthHandler(commands AuthCommander, queries SessionQuerier) *AuthHandler {
	return &AuthHandler{commands: commands, queries: queries}
}

type LoginRequest struct {
	AccountSlug string `json:"accountSlug" validate:"required,max=63"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
}

type VerifyMFARequest struct {
	MFAToken string `json:"mfaToken" validate:"required"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type MFACodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// RegisterPublicRoutes mounts the unauthenticated endpoints. The caller
// applies the login rate limiter to the group.
func (h *AuthHandler) RegisterPublicRoutes(public *gin.RouterGroup) {
	public.POST("/login", h.Login)
	public.POST("/mfa/verify", h.VerifyMFA)
	public.POST("/refresh", h.Refresh)
}

func (h *AuthHandler) RegisterRoutes(authed *gin.RouterGroup) {
	user := authed.Group("", middleware.RequireUser())
	user.POST("/logout", h.Logout)
	user.GET("/sessions", h.ListSessions)
	user.DELETE("/sessions/:sessionId", h.RevokeSession)
	user.POST("/mfa/setup", h.SetupMFA)
	user.POST("/mfa/enable", h.EnableMFA)
	user.POST("/mfa/disable", h.DisableMFA)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	res, err := h.commands.Login(c.Request.Context(), cqrs.LoginCommand{
		AccountSlug: req.AccountSlug,
		Email:       req.Email,
		Password:    req.Password,
		UserAgent:   c.Request.UserAgent(),
		IP:          c.ClientIP(),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) VerifyMFA(c *gin.Context) {
	var req VerifyMFARequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	pair, err := h.commands.VerifyMFA(c.Request.Context(), cqrs.VerifyMFACommand{
		MFAToken:  req.MFAToken,
		Code:      req.Code,
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	pair, err := h.commands.Refresh(c.Request.Context(), cqrs.RefreshTokenCommand{
		RefreshToken: req.RefreshToken,
		UserAgent:    c.Request.UserAgent(),
		IP:           c.ClientIP(),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshTokenRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	err := h.commands.Logout(c.Request.Context(), cqrs.LogoutCommand{
		Actor:        middleware.MustPrincipal(c).Actor(),
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) ListSessions(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	list, err := h.queries.ListSessions(c.Request.Context(), cqrs.ListSessionsQuery{
		AccountID:        p.AccountID,
		UserID:           p.UserID,
		CurrentSessionID: p.SessionID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AuthHandler) RevokeSession(c *gin.Context) {
	err := h.commands.RevokeSession(c.Request.Context(), cqrs.RevokeSessionCommand{
		Actor:     middleware.MustPrincipal(c).Actor(),
		SessionID: c.Param("sessionId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) SetupMFA(c *gin.Context) {
	setup, err := h.commands.SetupMFA(c.Request.Context(), cqrs.SetupMFACommand{
		Actor: middleware.MustPrincipal(c).Actor(),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, setup)
}

func (h *AuthHandler) EnableMFA(c *gin.Context) {
	var req MFACodeRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.EnableMFA(c.Request.Context(), cqrs.EnableMFACommand{
		Actor: middleware.MustPrincipal(c).Actor(),
		Code:  req.Code,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AuthHandler) DisableMFA(c *gin.Context) {
	var req MFACodeRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	view, err := h.commands.DisableMFA(c.Request.Context(), cqrs.DisableMFACommand{
		Actor: middleware.MustPrincipal(c).Actor(),
		Code:  req.Code,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
