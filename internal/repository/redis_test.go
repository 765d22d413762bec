package repository

import (
	"context"
	"testing"
	"time"

	"washbook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T) (*RedisSnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisSnapshotCache(client, time.Hour), mr
}

func TestRedisSnapshotCache_SetGet(t *testing.T) {
	cache, _ := setupRedisCache(t)
	ctx := context.Background()

	in := []models.Reservation{
		{ID: "r1", ClientName: "Ana", Status: models.StatusPending, Date: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "r2", ClientName: "Marko", Status: models.StatusAccepted, Done: true, Date: time.Date(2024, 6, 2, 11, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, cache.SetSnapshot(ctx, in))

	out, err := cache.GetSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "r1", out[0].ID)
	assert.Equal(t, models.StatusAccepted, out[1].Status)
	assert.True(t, out[1].Done)
}

func TestRedisSnapshotCache_MissingKeyReturnsNil(t *testing.T) {
	cache, _ := setupRedisCache(t)

	out, err := cache.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRedisSnapshotCache_Clear(t *testing.T) {
	cache, _ := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetSnapshot(ctx, []models.Reservation{{ID: "r1"}}))
	require.NoError(t, cache.ClearSnapshot(ctx))

	out, err := cache.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRedisSnapshotCache_TTL(t *testing.T) {
	cache, mr := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetSnapshot(ctx, []models.Reservation{{ID: "r1"}}))
	mr.FastForward(2 * time.Hour)

	out, err := cache.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRedisSnapshotCache_CorruptPayloadErrors(t *testing.T) {
	cache, mr := setupRedisCache(t)

	require.NoError(t, mr.Set(snapshotKey, "not-json"))

	_, err := cache.GetSnapshot(context.Background())
	assert.Error(t, err)
}

func TestRedisSnapshotCache_NilClient(t *testing.T) {
	cache := NewRedisSnapshotCache(nil, time.Hour)
	ctx := context.Background()

	_, err := cache.GetSnapshot(ctx)
	assert.Error(t, err)
	assert.Error(t, cache.SetSnapshot(ctx, nil))
	assert.Error(t, cache.ClearSnapshot(ctx))
}
