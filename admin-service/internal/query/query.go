// Package query holds the read side of admin-service. Services translate one
// query struct into one read repository call and return views.
package query

import (
	"github.com/samber/lo"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

// paged maps one page of rows to views.
func paged[E, V any](rows []E, total int, page cqrs.Page, view func(E) *V) *models.PagedResult[V] {
	p := page.Normalize()
	return &models.PagedResult[V]{
		Items:    lo.Map(rows, func(r E, _ int) V { return *view(r) }),
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}
}

// views maps an unpaged listing, never returning a nil slice.
func views[E, V any](rows []E, view func(E) *V) []V {
	out := make([]V, 0, len(rows))
	for _, r := range rows {
		out = append(out, *view(r))
	}
	return out
}
