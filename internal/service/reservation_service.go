package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"washbook/internal/domain"
	"washbook/internal/models"
	"washbook/internal/repository"
	"washbook/internal/schedule"

	"github.com/rs/zerolog"
)

var (
	// ErrMissingClient blocks a submission before any write is
	// attempted: name and phone are required.
	ErrMissingClient = errors.New("client name and phone are required")

	// ErrUnknownStatus rejects a decision outside accept/decline.
	ErrUnknownStatus = errors.New("status must be accepted or declined")
)

// SyncRepository is the slice of the sync façade the service uses.
type SyncRepository interface {
	Subscribe(ctx context.Context, onSnapshot repository.SnapshotFunc)
	Notices() <-chan repository.Notice
	Create(ctx context.Context, draft models.Draft)
	SetStatus(ctx context.Context, id, status string)
	SetDone(ctx context.Context, id string, done bool)
	Snapshot() []models.Reservation
}

// ReservationService sits between the serving surface and the sync
// façade: client-side validation, command dispatch, and the derived
// views over the current snapshot.
type ReservationService struct {
	repo     SyncRepository
	exporter domain.Exporter
	loc      *time.Location
	logger   *zerolog.Logger
}

func NewReservationService(repo SyncRepository, exporter domain.Exporter, loc *time.Location, logger *zerolog.Logger) *ReservationService {
	if loc == nil {
		loc = time.Local
	}
	return &ReservationService{
		repo:     repo,
		exporter: exporter,
		loc:      loc,
		logger:   logger,
	}
}

// Subscribe starts the snapshot listener for the session lifetime.
func (s *ReservationService) Subscribe(ctx context.Context, onSnapshot repository.SnapshotFunc) {
	s.repo.Subscribe(ctx, onSnapshot)
}

// Notices exposes the one-shot write outcome channel.
func (s *ReservationService) Notices() <-chan repository.Notice {
	return s.repo.Notices()
}

// Submit validates a guest draft and hands it to the repository. A
// validation failure blocks the create entirely; a write failure is
// reported later through the notice channel.
func (s *ReservationService) Submit(ctx context.Context, draft models.Draft) error {
	if strings.TrimSpace(draft.ClientName) == "" || strings.TrimSpace(draft.ClientPhone) == "" {
		return ErrMissingClient
	}

	s.repo.Create(ctx, draft)
	s.enqueueExport(ctx)
	return nil
}

// Decide applies an admin decision. The write is an unconditional
// overwrite: a decision on an already decided reservation is accepted
// and resolves last-write-wins.
func (s *ReservationService) Decide(ctx context.Context, id, status string) error {
	if status != models.StatusAccepted && status != models.StatusDeclined {
		return ErrUnknownStatus
	}

	s.repo.SetStatus(ctx, id, status)
	s.enqueueExport(ctx)
	return nil
}

// Accept marks a reservation accepted.
func (s *ReservationService) Accept(ctx context.Context, id string) error {
	return s.Decide(ctx, id, models.StatusAccepted)
}

// Decline marks a reservation declined.
func (s *ReservationService) Decline(ctx context.Context, id string) error {
	return s.Decide(ctx, id, models.StatusDeclined)
}

// SetDone toggles operational completion, independent of status.
func (s *ReservationService) SetDone(ctx context.Context, id string, done bool) {
	s.repo.SetDone(ctx, id, done)
	s.enqueueExport(ctx)
}

// Snapshot returns the current cached snapshot.
func (s *ReservationService) Snapshot() []models.Reservation {
	return s.repo.Snapshot()
}

// PendingQueue returns reservations awaiting a decision, snapshot order.
func (s *ReservationService) PendingQueue() []models.Reservation {
	return schedule.PendingQueue(s.repo.Snapshot())
}

// Location is the zone all calendar-day grouping happens in. Callers
// parsing date strings must parse in this zone or the day boundary
// shifts.
func (s *ReservationService) Location() *time.Location {
	return s.loc
}

// OnDate returns reservations on a local calendar day.
func (s *ReservationService) OnDate(day time.Time) []models.Reservation {
	return schedule.OnDate(s.repo.Snapshot(), day, s.loc)
}

// Week returns the 7-day view starting at start.
func (s *ReservationService) Week(start time.Time) []schedule.DayGroup {
	return schedule.WeekSchedule(s.repo.Snapshot(), start, s.loc)
}

// MonthGrid returns the fixed 42-cell grid for a month.
func (s *ReservationService) MonthGrid(year int, month time.Month) []schedule.Cell {
	return schedule.MonthGrid(year, month)
}

// Stats returns the summary statistics for the current snapshot.
func (s *ReservationService) Stats() schedule.Summary {
	return schedule.Summarize(s.repo.Snapshot())
}

func (s *ReservationService) enqueueExport(ctx context.Context) {
	if s.exporter == nil {
		return
	}
	if err := s.exporter.EnqueueExport(ctx); err != nil {
		s.logger.Error().Err(err).Msg("export enqueue error")
	}
}
