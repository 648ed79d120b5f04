// Package handler exposes admin-service over HTTP. Handlers depend on small
// Commander and Querier interfaces and only translate requests into commands
// and queries.
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
)

// Routes is implemented by every handler. authed is mounted behind the
// authenticator and the maintenance guard.
type Routes interface {
	RegisterRoutes(authed *gin.RouterGroup)
}

func actor(c *gin.Context) cqrs.Actor {
	return middleware.MustPrincipal(c).Actor()
}

// pageParams reads ?page= and ?pageSize=. It answers 400 itself and returns
// false on malformed values.
func pageParams(c *gin.Context) (cqrs.Page, bool) {
	var p cqrs.Page
	var errs []middleware.ValidationError
	for _, f := range []struct {
		name string
		dst  *int
	}{{"page", &p.Page}, {"pageSize", &p.PageSize}} {
		raw := c.Query(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs = append(errs, middleware.ValidationError{Field: f.name, Message: "Value must be a positive integer", Type: "gte"})
			continue
		}
		*f.dst = n
	}
	if errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return p, false
	}
	return p.Normalize(), true
}

// timeParam parses an optional RFC 3339 query parameter.
func timeParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		middleware.RespondWithValidationError(c, []middleware.ValidationError{{
			Field: name, Message: "Value must be an RFC 3339 timestamp", Type: "datetime",
		}})
		return nil, false
	}
	return &t, true
}
