package repository

import (
	"context"
	"testing"
	"time"

	"washbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySnapshotCache(t *testing.T) {
	cache := NewMemorySnapshotCache()
	ctx := context.Background()

	t.Run("EmptyReturnsNil", func(t *testing.T) {
		snap, err := cache.GetSnapshot(ctx)
		require.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("SetGet", func(t *testing.T) {
		in := []models.Reservation{
			{ID: "r1", ClientName: "Ana", Date: time.Now()},
			{ID: "r2", ClientName: "Marko", Date: time.Now()},
		}
		require.NoError(t, cache.SetSnapshot(ctx, in))

		out, err := cache.GetSnapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		out, err := cache.GetSnapshot(ctx)
		require.NoError(t, err)
		out[0].ClientName = "Mutated"

		again, err := cache.GetSnapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Ana", again[0].ClientName)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, cache.ClearSnapshot(ctx))
		snap, err := cache.GetSnapshot(ctx)
		require.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("EmptySliceIsStored", func(t *testing.T) {
		require.NoError(t, cache.SetSnapshot(ctx, []models.Reservation{}))
		snap, err := cache.GetSnapshot(ctx)
		require.NoError(t, err)
		assert.NotNil(t, snap)
		assert.Len(t, snap, 0)
	})
}
