package query

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/models"
)

type SessionReader interface {
	ListActive(ctx context.Context, accountID, userID string, now time.Time) ([]*models.Session, error)
}

// SessionQueryService lists the caller's live sessions.
type SessionQueryService struct {
	sessions SessionReader
	clock    clock.Clock
}

func NewSessionQueryService(sessions SessionReader, clk clock.Clock) *SessionQueryService {
	return &SessionQueryService{sessions: sessions, clock: clk}
}

// ListSessions flags the session the request was made with as current.
func (s *SessionQueryService) ListSessions(ctx context.Context, q cqrs.ListSessionsQuery) ([]models.SessionView, error) {
	sessions, err := s.sessions.ListActive(ctx, q.AccountID, q.UserID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return lo.Map(sessions, func(sess *models.Session, _ int) models.SessionView {
		return *models.NewSessionView(sess, q.CurrentSessionID)
	}), nil
}
