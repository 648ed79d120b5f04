package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/models"
)

type MaintenanceReader interface {
	Get(ctx context.Context) (models.MaintenanceState, error)
}

// MaintenanceGuard answers 503 to every principal except platform admins
// while the maintenance flag is set. Mount it after the authenticator. A
// failing flag lookup lets the request through.
func MaintenanceGuard(flags MaintenanceReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, ok := GetPrincipal(c); ok && p.PlatformAdmin {
			c.Next()
			return
		}
		state, err := flags.Get(c.Request.Context())
		if err != nil {
			LoggerFrom(c).Warn("maintenance flag lookup failed", "error", err)
			c.Next()
			return
		}
		if state.Enabled {
			appErr := apperrors.ErrMaintenance
			if state.Message != "" {
				appErr = appErr.WithMessage(state.Message)
			}
			c.Header("Retry-After", "120")
			RespondWithAppError(c, appErr)
			c.Abort()
			return
		}
		c.Next()
	}
}
