package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
)

type AuditQuerier interface {
	GetAuditEntry(ctx context.Context, q cqrs.GetAuditEntryQuery) (*models.AuditEntryView, error)
	ListAuditEntries(ctx context.Context, q cqrs.ListAuditQuery) (*models.PagedResult[models.AuditEntryView], error)
}

type DashboardQuerier interface {
	GetSummary(ctx context.Context, q cqrs.DashboardQuery) (*models.DashboardSummary, error)
}

// AuditHandler serves the audit log and the dashboard built from it.
type AuditHandler struct {
	audit     AuditQuerier
	dashboard DashboardQuerier
}

func NewAuditHandler(audit AuditQuerier, dashboard DashboardQuerier) *AuditHandler {
	return &AuditHandler{audit: audit, dashboard: dashboard}
}

func (h *AuditHandler) RegisterRoutes(authed *gin.RouterGroup) {
	read := middleware.RequirePermission(models.PermAuditRead)
	authed.GET("/audit", read, h.ListAuditEntries)
	authed.GET("/audit/:entryId", read, h.GetAuditEntry)
	authed.GET("/dashboard", middleware.RequirePermission(models.PermDashboardRead), h.GetDashboard)
}

func (h *AuditHandler) ListAuditEntries(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	from, ok := timeParam(c, "from")
	if !ok {
		return
	}
	to, ok := timeParam(c, "to")
	if !ok {
		return
	}
	res, err := h.audit.ListAuditEntries(c.Request.Context(), cqrs.ListAuditQuery{
		Page:       page,
		AccountID:  actor(c).AccountID,
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
		ActorID:    c.Query("actorId"),
		Action:     c.Query("action"),
		From:       from,
		To:         to,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuditHandler) GetAuditEntry(c *gin.Context) {
	view, err := h.audit.GetAuditEntry(c.Request.Context(), cqrs.GetAuditEntryQuery{
		AccountID: actor(c).AccountID,
		EntryID:   c.Param("entryId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AuditHandler) GetDashboard(c *gin.Context) {
	summary, err := h.dashboard.GetSummary(c.Request.Context(), cqrs.DashboardQuery{AccountID: actor(c).AccountID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
