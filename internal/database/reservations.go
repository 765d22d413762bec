package database

import (
	"context"
	"fmt"
	"time"

	"washbook/internal/events"
	"washbook/internal/models"

	"github.com/google/uuid"
)

// InsertReservation appends a new document and returns the assigned id.
// Status is forced to pending and done to false regardless of the
// caller-supplied values.
func (db *DB) InsertReservation(ctx context.Context, res *models.Reservation) (string, error) {
	id := uuid.NewString()
	now := time.Now()

	query := `INSERT INTO reservations (
				id, date, client_name, client_phone, notes,
				number_of_cars, car_type, status, done, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	cars := res.NumberOfCars
	if cars < 1 {
		cars = 1
	}

	_, err := db.db.ExecContext(ctx, query,
		id,
		res.Date.Format(time.RFC3339),
		res.ClientName,
		res.ClientPhone,
		res.Notes,
		cars,
		res.CarType,
		models.StatusPending,
		false,
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert reservation: %w", err)
	}

	res.ID = id
	res.Status = models.StatusPending
	res.Done = false
	res.NumberOfCars = cars
	res.CreatedAt = now
	res.UpdatedAt = now

	db.publish(events.EventReservationCreated, id, models.StatusPending, false)
	return id, nil
}

// UpdateReservationStatus overwrites the status field unconditionally.
// There is no transition guard: concurrent writers are last-write-wins.
func (db *DB) UpdateReservationStatus(ctx context.Context, id, status string) error {
	if !models.IsValidStatus(status) {
		return ErrInvalidStatus
	}

	query := `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	db.publish(events.EventReservationStatusChanged, id, status, false)
	return nil
}

// UpdateReservationDone overwrites the done flag, in either direction,
// any number of times.
func (db *DB) UpdateReservationDone(ctx context.Context, id string, done bool) error {
	query := `UPDATE reservations SET done = ?, updated_at = ? WHERE id = ?`
	result, err := db.db.ExecContext(ctx, query, done, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update reservation done flag: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	db.publish(events.EventReservationDoneChanged, id, "", done)
	return nil
}

// GetReservation returns a single document by id.
func (db *DB) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	query := `SELECT id, date, client_name, client_phone, notes, number_of_cars,
	                 car_type, status, done, created_at, updated_at
	          FROM reservations WHERE id = ?`

	row := db.db.QueryRowContext(ctx, query, id)
	res, err := scanReservation(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return res, nil
}

// GetAllReservations returns the full ordered snapshot, in insertion
// order. Rows that fail to decode are dropped from the snapshot rather
// than failing the read.
func (db *DB) GetAllReservations(ctx context.Context) ([]models.Reservation, error) {
	query := `SELECT id, date, client_name, client_phone, notes, number_of_cars,
	                 car_type, status, done, created_at, updated_at
	          FROM reservations ORDER BY rowid ASC`

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read reservations: %w", err)
	}
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			db.logger.Warn().Err(err).Msg("dropping malformed reservation row")
			continue
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reservations: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanReservation decodes one row and fails closed: a missing required
// field, a malformed date, or an unknown status is an error, so the
// caller can drop the document instead of crashing on it.
func scanReservation(row rowScanner) (*models.Reservation, error) {
	var res models.Reservation
	var dateStr string

	err := row.Scan(
		&res.ID,
		&dateStr,
		&res.ClientName,
		&res.ClientPhone,
		&res.Notes,
		&res.NumberOfCars,
		&res.CarType,
		&res.Status,
		&res.Done,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.Date, err = time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return nil, fmt.Errorf("malformed reservation date %q: %w", dateStr, err)
	}

	if res.ClientName == "" || res.ClientPhone == "" {
		return nil, fmt.Errorf("reservation %s is missing required client fields", res.ID)
	}
	if !models.IsValidStatus(res.Status) {
		return nil, fmt.Errorf("reservation %s has unknown status %q: %w", res.ID, res.Status, ErrInvalidStatus)
	}
	if res.NumberOfCars < 1 {
		res.NumberOfCars = 1
	}

	return &res, nil
}
