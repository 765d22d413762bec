package repository

import (
	"context"
	"sync/atomic"
	"time"

	"washbook/internal/domain"
	"washbook/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSnapshotCache prefers the primary cache (Redis) and falls
// back to the in-memory cache when the primary fails, probing the
// primary again after a cooldown.
type FailoverSnapshotCache struct {
	primary   domain.SnapshotCache
	fallback  domain.SnapshotCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSnapshotCache(primary, fallback domain.SnapshotCache, logger *zerolog.Logger) *FailoverSnapshotCache {
	return &FailoverSnapshotCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverSnapshotCache) markDown(err error) {
	f.logger.Error().Err(err).Msg("Primary snapshot cache failed, falling back to memory")
	f.isDown.Store(true)
	f.lastCheck.Store(time.Now().UnixNano())
}

func (f *FailoverSnapshotCache) shouldRetryPrimary() bool {
	return time.Since(time.Unix(0, f.lastCheck.Load())) > time.Minute
}

func (f *FailoverSnapshotCache) GetSnapshot(ctx context.Context) ([]models.Reservation, error) {
	if !f.isDown.Load() {
		snapshot, err := f.primary.GetSnapshot(ctx)
		if err == nil {
			return snapshot, nil
		}
		f.markDown(err)
	} else if f.shouldRetryPrimary() {
		snapshot, err := f.primary.GetSnapshot(ctx)
		if err == nil {
			f.isDown.Store(false)
			return snapshot, nil
		}
		f.lastCheck.Store(time.Now().UnixNano())
	}

	return f.fallback.GetSnapshot(ctx)
}

func (f *FailoverSnapshotCache) SetSnapshot(ctx context.Context, snapshot []models.Reservation) error {
	// The memory copy is always kept current so a failover never serves
	// an older snapshot than the one already delivered.
	_ = f.fallback.SetSnapshot(ctx, snapshot)

	if !f.isDown.Load() {
		if err := f.primary.SetSnapshot(ctx, snapshot); err != nil {
			f.markDown(err)
			return nil
		}
		return nil
	}

	if f.shouldRetryPrimary() {
		if err := f.primary.SetSnapshot(ctx, snapshot); err == nil {
			f.isDown.Store(false)
		} else {
			f.lastCheck.Store(time.Now().UnixNano())
		}
	}
	return nil
}

func (f *FailoverSnapshotCache) ClearSnapshot(ctx context.Context) error {
	_ = f.fallback.ClearSnapshot(ctx)
	if !f.isDown.Load() {
		if err := f.primary.ClearSnapshot(ctx); err != nil {
			f.markDown(err)
		}
	}
	return nil
}
