package command

import (
	"context"
	"time"

	"github.com/startupstarter/admin/admin-service/internal/repository"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/models"
)

// CachePatterns are the read-model keys removed by a cache flush.
var CachePatterns = []string{"*:view:*", "dashboard:*"}

type MaintenanceWriter interface {
	Set(ctx context.Context, state models.MaintenanceState) error
}

type CacheFlusher interface {
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}

type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (*repository.PurgeResult, error)
}

// BlobRemover deletes orphaned media bytes after a purge.
type BlobRemover interface {
	Delete(ctx context.Context, key string) error
}

// systemEvent carries platform actions on the system stream.
type systemEvent struct {
	models.AggregateRoot
}

type SystemCommandService struct {
	flags     MaintenanceWriter
	cache     CacheFlusher
	purger    Purger
	blobs     BlobRemover
	publisher EventPublisher
	clock     clock.Clock
	log       *logger.Logger
}

func NewSystemCommandService(flags MaintenanceWriter, cache CacheFlusher, purger Purger, blobs BlobRemover, publisher EventPublisher, clk clock.Clock, log *logger.Logger) *SystemCommandService {
	return &SystemCommandService{flags: flags, cache: cache, purger: purger, blobs: blobs, publisher: publisher, clock: clk, log: log}
}

func (s *SystemCommandService) SetMaintenance(ctx context.Context, cmd cqrs.SetMaintenanceCommand) (*models.MaintenanceState, error) {
	state := models.MaintenanceState{Enabled: cmd.Enabled}
	if cmd.Enabled {
		state.Message = cmd.Message
	}
	if err := s.flags.Set(ctx, state); err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	s.raise(ctx, cmd.Actor, models.EventMaintenanceChanged, models.SystemEventData{
		Action: "maintenance", Enabled: state.Enabled, Message: state.Message,
	})
	return &state, nil
}

// FlushCache drops every read-model entry and returns how many keys were removed.
func (s *SystemCommandService) FlushCache(ctx context.Context, cmd cqrs.FlushCacheCommand) (int64, error) {
	var total int64
	for _, pattern := range CachePatterns {
		n, err := s.cache.DeleteByPattern(ctx, pattern)
		total += n
		if err != nil {
			return total, apperrors.ErrInternal.WithCause(err)
		}
	}
	s.raise(ctx, cmd.Actor, models.EventCacheFlushed, models.SystemEventData{
		Action: "flush", Counts: map[string]int64{"keys": total},
	})
	return total, nil
}

func (s *SystemCommandService) Purge(ctx context.Context, cmd cqrs.PurgeCommand) (map[string]int64, error) {
	if cmd.OlderThanDays < 1 {
		return nil, apperrors.Validation("olderThanDays must be at least 1")
	}
	cutoff := s.clock.Now().AddDate(0, 0, -cmd.OlderThanDays)
	res, err := s.purger.Purge(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	for _, key := range res.StorageKeys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Warn("failed to remove purged media blob", "key", key, "error", err)
		}
	}
	s.raise(ctx, cmd.Actor, models.EventDataPurged, models.SystemEventData{Action: "purge", Counts: res.Counts})
	return res.Counts, nil
}

func (s *SystemCommandService) raise(ctx context.Context, actor cqrs.Actor, eventType string, data models.SystemEventData) {
	var evt systemEvent
	evt.Raise(eventType, models.EntitySystem, data.Action, data, s.clock.Now())
	publish(ctx, s.publisher, actor.AccountID, actor.UserID, &evt)
}
