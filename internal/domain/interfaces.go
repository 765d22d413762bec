package domain

import (
	"context"

	"washbook/internal/models"
)

// Store is the reservations collection: the system of record.
type Store interface {
	InsertReservation(ctx context.Context, res *models.Reservation) (string, error)
	UpdateReservationStatus(ctx context.Context, id, status string) error
	UpdateReservationDone(ctx context.Context, id string, done bool) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	GetAllReservations(ctx context.Context) ([]models.Reservation, error)
}

// SnapshotCache mirrors the last delivered snapshot so a restarted
// reader can serve stale-but-valid state before the first live delivery.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context) ([]models.Reservation, error)
	SetSnapshot(ctx context.Context, snapshot []models.Reservation) error
	ClearSnapshot(ctx context.Context) error
}

// EventPublisher is the store-change notification side.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Exporter receives reservation snapshots for out-of-band reporting.
type Exporter interface {
	EnqueueExport(ctx context.Context) error
}
