package models

import (
	"strconv"
	"strings"
	"time"
)

// Reservation is a single car-wash reservation as stored in the
// reservations collection. ID is assigned by the store on first persist
// and stays empty on a draft.
type Reservation struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	ClientName   string    `json:"client_name"`
	ClientPhone  string    `json:"client_phone"`
	Notes        string    `json:"notes,omitempty"`
	NumberOfCars int       `json:"number_of_cars"`
	CarType      string    `json:"car_type,omitempty"`
	Status       string    `json:"status"` // pending, accepted, declined
	Done         bool      `json:"done"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Draft carries guest-supplied fields for a new reservation. Status and
// done are not part of a draft; the store forces them on insert.
type Draft struct {
	Date         time.Time `json:"date"`
	ClientName   string    `json:"client_name"`
	ClientPhone  string    `json:"client_phone"`
	Notes        string    `json:"notes"`
	NumberOfCars string    `json:"number_of_cars"`
	CarType      string    `json:"car_type"`
}

// CarCount parses the guest-supplied number of cars. Anything that does
// not parse to a positive integer coerces to 1.
func (d Draft) CarCount() int {
	n, err := strconv.Atoi(strings.TrimSpace(d.NumberOfCars))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// LocalDate truncates the reservation timestamp to a calendar date in
// the given zone. Comparisons always go through this, never through raw
// instants.
func (r Reservation) LocalDate(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := r.Date.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// IsValidStatus reports whether s is one of the three known statuses.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined:
		return true
	}
	return false
}
