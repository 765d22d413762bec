package repository

import (
	"context"
	"sync"
	"time"

	"washbook/internal/domain"
	"washbook/internal/events"
	"washbook/internal/metrics"
	"washbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	NoticeCreated     = "created"
	NoticeWriteError  = "write_error"
	NoticeStatusSet   = "status_set"
	NoticeDoneSet     = "done_set"
	noticeBufferSize  = 16
	deliveryQueueSize = 1
)

// Notice is a one-shot, non-blocking notification about the outcome of
// a write. A dropped notice is not an error: the next snapshot is the
// authoritative evidence of what persisted.
type Notice struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	ReservationID string    `json:"reservation_id,omitempty"`
	Message       string    `json:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SnapshotFunc receives each full snapshot. Every invocation replaces,
// never merges with, prior state.
type SnapshotFunc func([]models.Reservation)

// ReservationRepository is the sync façade over the store: it maintains
// a live read-only snapshot of all reservations and provides the only
// sanctioned write path.
type ReservationRepository struct {
	store  domain.Store
	cache  domain.SnapshotCache
	bus    *events.EventBus
	logger *zerolog.Logger

	mu       sync.RWMutex
	snapshot []models.Reservation
	primed   bool

	deliveries chan struct{}
	notices    chan Notice

	subscribeOnce sync.Once
}

func NewReservationRepository(store domain.Store, cache domain.SnapshotCache, bus *events.EventBus, logger *zerolog.Logger) *ReservationRepository {
	return &ReservationRepository{
		store:      store,
		cache:      cache,
		bus:        bus,
		logger:     logger,
		deliveries: make(chan struct{}, deliveryQueueSize),
		notices:    make(chan Notice, noticeBufferSize),
	}
}

// Subscribe registers the continuous listener. Every committed store
// change triggers a full ordered re-read delivered to onSnapshot; a
// failed re-read is skipped and the last snapshot stays in effect.
// The subscription runs until ctx is cancelled. Call once per session.
func (r *ReservationRepository) Subscribe(ctx context.Context, onSnapshot SnapshotFunc) {
	r.subscribeOnce.Do(func() {
		notify := func(*events.Event) error {
			select {
			case r.deliveries <- struct{}{}:
			default:
				// A delivery is already queued; the pending re-read
				// will observe this change too.
			}
			return nil
		}

		r.bus.Subscribe(events.EventReservationCreated, notify)
		r.bus.Subscribe(events.EventReservationStatusChanged, notify)
		r.bus.Subscribe(events.EventReservationDoneChanged, notify)

		go r.consume(ctx, onSnapshot)
	})
}

// consume is the single consumer of change notifications. It primes the
// snapshot (store first, cache as a stale-but-valid fallback) and then
// re-reads on every notification until ctx is cancelled.
func (r *ReservationRepository) consume(ctx context.Context, onSnapshot SnapshotFunc) {
	r.prime(ctx, onSnapshot)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("snapshot subscription closed")
			return
		case <-r.deliveries:
			r.reload(ctx, onSnapshot)
		}
	}
}

func (r *ReservationRepository) prime(ctx context.Context, onSnapshot SnapshotFunc) {
	snapshot, err := r.store.GetAllReservations(ctx)
	if err == nil {
		r.deliver(ctx, snapshot, onSnapshot)
		return
	}
	r.logger.Warn().Err(err).Msg("initial snapshot read failed, trying cache")

	if r.cache == nil {
		return
	}
	cached, cacheErr := r.cache.GetSnapshot(ctx)
	if cacheErr != nil || cached == nil {
		return
	}

	r.mu.Lock()
	r.snapshot = cached
	r.primed = true
	r.mu.Unlock()

	if onSnapshot != nil {
		onSnapshot(copySnapshot(cached))
	}
}

func (r *ReservationRepository) reload(ctx context.Context, onSnapshot SnapshotFunc) {
	snapshot, err := r.store.GetAllReservations(ctx)
	if err != nil {
		// ListenError: delivery skipped, prior snapshot stays in effect.
		r.logger.Error().Err(err).Msg("snapshot re-read failed, keeping previous snapshot")
		return
	}
	r.deliver(ctx, snapshot, onSnapshot)
}

func (r *ReservationRepository) deliver(ctx context.Context, snapshot []models.Reservation, onSnapshot SnapshotFunc) {
	r.mu.Lock()
	r.snapshot = snapshot
	r.primed = true
	r.mu.Unlock()

	metrics.IncSnapshotDelivered()

	if r.cache != nil {
		if err := r.cache.SetSnapshot(ctx, snapshot); err != nil {
			r.logger.Warn().Err(err).Msg("snapshot cache write failed")
		}
	}

	if onSnapshot != nil {
		onSnapshot(copySnapshot(snapshot))
	}
}

// Snapshot returns a copy of the last delivered snapshot.
func (r *ReservationRepository) Snapshot() []models.Reservation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copySnapshot(r.snapshot)
}

// Notices is the side channel for write outcomes.
func (r *ReservationRepository) Notices() <-chan Notice {
	return r.notices
}

// Create persists a new reservation with status forced to pending and
// done forced to false. Fire-and-forget: the outcome arrives on the
// notice channel, and a failed write is otherwise only visible as an
// absence from the next snapshot.
func (r *ReservationRepository) Create(ctx context.Context, draft models.Draft) {
	res := &models.Reservation{
		Date:         draft.Date,
		ClientName:   draft.ClientName,
		ClientPhone:  draft.ClientPhone,
		Notes:        draft.Notes,
		NumberOfCars: draft.CarCount(),
		CarType:      draft.CarType,
	}

	// Выживает после отмены контекста вызывающего: запись уже принята.
	wctx := context.WithoutCancel(ctx)
	go func() {
		id, err := r.store.InsertReservation(wctx, res)
		if err != nil {
			metrics.IncWriteFailure("create")
			r.logger.Error().Err(err).Msg("reservation create failed")
			r.notify(Notice{Kind: NoticeWriteError, Message: err.Error()})
			return
		}
		metrics.IncSubmission()
		r.notify(Notice{Kind: NoticeCreated, ReservationID: id})
	}()
}

// SetStatus overwrites the status field. Silently no-ops on a blank id;
// no client-side transition check is performed, so concurrent admin
// actions resolve last-write-wins.
func (r *ReservationRepository) SetStatus(ctx context.Context, id, status string) {
	if id == "" {
		return
	}

	wctx := context.WithoutCancel(ctx)
	go func() {
		if err := r.store.UpdateReservationStatus(wctx, id, status); err != nil {
			metrics.IncWriteFailure("status")
			r.logger.Error().Err(err).Str("reservation_id", id).Msg("status update failed")
			r.notify(Notice{Kind: NoticeWriteError, ReservationID: id, Message: err.Error()})
			return
		}
		metrics.IncStatusUpdate(status)
		r.notify(Notice{Kind: NoticeStatusSet, ReservationID: id, Message: status})
	}()
}

// SetDone overwrites the done flag with the same contract as SetStatus.
func (r *ReservationRepository) SetDone(ctx context.Context, id string, done bool) {
	if id == "" {
		return
	}

	wctx := context.WithoutCancel(ctx)
	go func() {
		if err := r.store.UpdateReservationDone(wctx, id, done); err != nil {
			metrics.IncWriteFailure("done")
			r.logger.Error().Err(err).Str("reservation_id", id).Msg("done update failed")
			r.notify(Notice{Kind: NoticeWriteError, ReservationID: id, Message: err.Error()})
			return
		}
		metrics.IncDoneToggle()
		r.notify(Notice{Kind: NoticeDoneSet, ReservationID: id})
	}()
}

func (r *ReservationRepository) notify(n Notice) {
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()
	select {
	case r.notices <- n:
	default:
		// One-shot, non-blocking: a full buffer drops the notice.
		r.logger.Warn().Str("kind", n.Kind).Msg("notice buffer full, dropping")
	}
}

func copySnapshot(in []models.Reservation) []models.Reservation {
	out := make([]models.Reservation, len(in))
	copy(out, in)
	return out
}
