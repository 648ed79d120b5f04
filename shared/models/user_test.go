package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplyFailedLogin(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("below threshold", func(t *testing.T) {
		u := NewUser("usr-1", "acc-1", "Alice", "alice@acme.io", "hash", nil, now)
		u.PullEvents()
		u.ApplyFailedLogin(2, false, now)
		require.Equal(t, 2, u.FailedLogins)
		require.Equal(t, UserActive, u.Status)
		require.Empty(t, u.PendingEvents())
	})

	t.Run("locked by this attempt", func(t *testing.T) {
		u := NewUser("usr-1", "acc-1", "Alice", "alice@acme.io", "hash", nil, now)
		u.PullEvents()
		u.ApplyFailedLogin(3, true, now)
		require.Equal(t, UserLocked, u.Status)
		events := u.PullEvents()
		require.Len(t, events, 1)
		require.Equal(t, EventUserLocked, events[0].Type)
	})
}
