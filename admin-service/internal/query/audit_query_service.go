package query

import (
	"context"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

type AuditReader interface {
	GetByID(ctx context.Context, accountID, id string) (*models.AuditEntry, error)
	List(ctx context.Context, q cqrs.ListAuditQuery) ([]*models.AuditEntry, int, error)
}

type AuditQueryService struct {
	audit AuditReader
}

func NewAuditQueryService(audit AuditReader) *AuditQueryService {
	return &AuditQueryService{audit: audit}
}

func (s *AuditQueryService) GetAuditEntry(ctx context.Context, q cqrs.GetAuditEntryQuery) (*models.AuditEntryView, error) {
	e, err := s.audit.GetByID(ctx, q.AccountID, q.EntryID)
	if err != nil {
		return nil, err
	}
	return models.NewAuditEntryView(e), nil
}

func (s *AuditQueryService) ListAuditEntries(ctx context.Context, q cqrs.ListAuditQuery) (*models.PagedResult[models.AuditEntryView], error) {
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, apperrors.Validation("to must not be before from")
	}
	rows, total, err := s.audit.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return paged(rows, total, q.Page, models.NewAuditEntryView), nil
}
