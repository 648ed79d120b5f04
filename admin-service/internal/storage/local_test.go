package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutOpenDelete(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	req.NoError(err)

	req.NoError(store.Put(ctx, "acc-1/med-1", []byte("hello")))

	rc, err := store.Open(ctx, "acc-1/med-1")
	req.NoError(err)
	data, err := io.ReadAll(rc)
	req.NoError(err)
	req.NoError(rc.Close())
	req.Equal("hello", string(data))

	req.NoError(store.Delete(ctx, "acc-1/med-1"))
	_, err = store.Open(ctx, "acc-1/med-1")
	req.True(errors.Is(err, apperrors.ErrMediaNotFound))

	req.NoError(store.Delete(ctx, "acc-1/med-1"), "deleting twice is fine")
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../etc/passwd", "acc/../../x", "/etc/passwd", `acc\..\x`} {
		t.Run(key, func(t *testing.T) {
			require.ErrorIs(t, store.Put(context.Background(), key, []byte("x")), errInvalidKey)
		})
	}
}
