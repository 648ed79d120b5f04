package command

import (
	"context"
	"testing"

	"github.com/startupstarter/admin/admin-service/internal/repository"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/models"
	"github.com/stretchr/testify/require"
)

var platformActor = cqrs.Actor{AccountID: "acc-platform", UserID: "usr-root"}

func newSystemService() (*SystemCommandService, *fakeFlags, *fakeFlusher, *fakePurger, *fakeBlobs, *fakePublisher) {
	flags, flusher, blobs, pub := &fakeFlags{}, &fakeFlusher{}, newFakeBlobs(), &fakePublisher{}
	purger := &fakePurger{result: &repository.PurgeResult{
		Counts:      map[string]int64{"users": 2, "audit_entries": 10},
		StorageKeys: []string{"acc-9/a", "acc-9/b"},
	}}
	svc := NewSystemCommandService(flags, flusher, purger, blobs, pub, newTestClock(), logger.Nop())
	return svc, flags, flusher, purger, blobs, pub
}

func TestSetMaintenance(t *testing.T) {
	req := require.New(t)
	svc, flags, _, _, _, pub := newSystemService()

	state, err := svc.SetMaintenance(context.Background(), cqrs.SetMaintenanceCommand{Actor: platformActor, Enabled: true, Message: "upgrading"})
	req.NoError(err)
	req.Equal(models.MaintenanceState{Enabled: true, Message: "upgrading"}, *state)
	req.Equal(*state, flags.state)

	state, err = svc.SetMaintenance(context.Background(), cqrs.SetMaintenanceCommand{Actor: platformActor, Message: "ignored"})
	req.NoError(err)
	req.Empty(state.Message)
	req.Equal([]string{models.EventMaintenanceChanged, models.EventMaintenanceChanged}, pub.types())
	req.Equal(models.EntitySystem, pub.events[0].EntityType)
}

func TestFlushCache(t *testing.T) {
	req := require.New(t)
	svc, _, flusher, _, _, pub := newSystemService()

	n, err := svc.FlushCache(context.Background(), cqrs.FlushCacheCommand{Actor: platformActor})
	req.NoError(err)
	req.EqualValues(6, n)
	req.Equal(CachePatterns, flusher.patterns)
	req.Equal([]string{models.EventCacheFlushed}, pub.types())
}

func TestPurge(t *testing.T) {
	req := require.New(t)
	svc, _, _, purger, blobs, pub := newSystemService()

	_, err := svc.Purge(context.Background(), cqrs.PurgeCommand{Actor: platformActor})
	appErr, ok := apperrors.AsAppError(err)
	req.True(ok)
	req.Equal(apperrors.CategoryValidation, appErr.Category)

	counts, err := svc.Purge(context.Background(), cqrs.PurgeCommand{Actor: platformActor, OlderThanDays: 30})
	req.NoError(err)
	req.EqualValues(10, counts["audit_entries"])
	req.Equal(testNow.AddDate(0, 0, -30), purger.cutoff)
	req.Equal([]string{"acc-9/a", "acc-9/b"}, blobs.deleted)
	req.Equal([]string{models.EventDataPurged}, pub.types())
}
