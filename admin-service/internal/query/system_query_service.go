package query

import (
	"context"
	"time"

	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/models"
)

const (
	statusUp   = "up"
	statusDown = "down"
)

type MaintenanceReader interface {
	Get(ctx context.Context) (models.MaintenanceState, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function, such as a Redis ping, to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type SystemQueryService struct {
	version   string
	startedAt time.Time
	flags     MaintenanceReader
	db        Pinger
	cache     Pinger
	clock     clock.Clock
	log       *logger.Logger
}

func NewSystemQueryService(version string, flags MaintenanceReader, db, cache Pinger, clk clock.Clock, log *logger.Logger) *SystemQueryService {
	return &SystemQueryService{
		version:   version,
		startedAt: clk.Now(),
		flags:     flags,
		db:        db,
		cache:     cache,
		clock:     clk,
		log:       log,
	}
}

// GetStatus never fails: an unreachable dependency is reported as down.
func (s *SystemQueryService) GetStatus(ctx context.Context) *models.SystemStatus {
	status := &models.SystemStatus{
		Version:       s.version,
		StartedAt:     s.startedAt,
		UptimeSeconds: int64(s.clock.Since(s.startedAt).Seconds()),
		Database:      s.ping(ctx, "database", s.db),
		Cache:         s.ping(ctx, "cache", s.cache),
	}
	state, err := s.flags.Get(ctx)
	if err != nil {
		s.log.Warn("failed to read maintenance flag", "error", err)
	}
	status.Maintenance = state.Enabled
	status.MaintenanceMessage = state.Message
	return status
}

func (s *SystemQueryService) GetMaintenance(ctx context.Context) (models.MaintenanceState, error) {
	return s.flags.Get(ctx)
}

func (s *SystemQueryService) ping(ctx context.Context, name string, p Pinger) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		s.log.Warn("dependency ping failed", "dependency", name, "error", err)
		return statusDown
	}
	return statusUp
}
