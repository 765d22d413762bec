package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"washbook/internal/events"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("invalid reservation status")

	// ErrNotFound is returned when no document matches the id.
	ErrNotFound = errors.New("reservation not found")
)

// DB is the reservations collection: the single source of truth.
// It publishes a change event on the bus after every committed write,
// which drives the repository's snapshot listener.
type DB struct {
	db     *sql.DB
	bus    *events.EventBus
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{db: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS reservations (
            id TEXT PRIMARY KEY,
            date DATETIME NOT NULL,
            client_name TEXT NOT NULL,
            client_phone TEXT NOT NULL,
            notes TEXT,
            number_of_cars INTEGER NOT NULL DEFAULT 1,
            car_type TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            done BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations(date)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_done ON reservations(done)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// SetEventBus attaches the change-notification bus. Writes committed
// before the bus is attached are not announced.
func (db *DB) SetEventBus(bus *events.EventBus) {
	db.bus = bus
}

func (db *DB) PingContext(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) publish(eventType, id, status string, done bool) {
	if db.bus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: id,
		Status:        status,
		Done:          done,
	}
	if err := db.bus.PublishJSON(eventType, payload); err != nil {
		db.logger.Error().Err(err).Str("event_type", eventType).Msg("publish change event")
	}
}
