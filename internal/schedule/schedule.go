// Package schedule holds the filtering and aggregation engine: pure,
// stateless functions over an in-memory reservation snapshot. Nothing
// here performs I/O; results are fully determined by the snapshot and
// the reference day passed in.
package schedule

import (
	"math"
	"time"

	"washbook/internal/models"
)

// Cell is one slot of the fixed 42-cell month grid. Empty cells pad the
// grid before the 1st and after the last day of the month.
type Cell struct {
	Date  time.Time `json:"date,omitempty"`
	Empty bool      `json:"empty"`
}

// DayGroup is one day of the week view with its reservations.
type DayGroup struct {
	Date         time.Time            `json:"date"`
	Reservations []models.Reservation `json:"reservations"`
}

// Summary is the statistics block derived from a snapshot.
type Summary struct {
	Total               int     `json:"total"`
	Accepted            int     `json:"accepted"`
	Declined            int     `json:"declined"`
	Pending             int     `json:"pending"`
	DoneCount           int     `json:"done_count"`
	SuccessRatioPercent float64 `json:"success_ratio_percent"`
	TotalEarnings       float64 `json:"total_earnings"`
}

// PendingQueue returns the reservations still awaiting an admin
// decision, preserving snapshot order.
func PendingQueue(snapshot []models.Reservation) []models.Reservation {
	var pending []models.Reservation
	for _, r := range snapshot {
		if r.Status == models.StatusPending {
			pending = append(pending, r)
		}
	}
	return pending
}

// OnDate returns the reservations whose stored instant falls on the
// given calendar day in loc. The comparison always goes through local
// day truncation, never raw instants.
func OnDate(snapshot []models.Reservation, day time.Time, loc *time.Location) []models.Reservation {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := day.In(loc).Date()
	want := time.Date(y, m, d, 0, 0, 0, 0, loc)

	var out []models.Reservation
	for _, r := range snapshot {
		if r.LocalDate(loc).Equal(want) {
			out = append(out, r)
		}
	}
	return out
}

// WeekView returns 7 consecutive calendar days starting at start.
func WeekView(start time.Time) []time.Time {
	days := make([]time.Time, 0, models.WeekViewDays)
	y, m, d := start.Date()
	first := time.Date(y, m, d, 0, 0, 0, 0, start.Location())
	for i := 0; i < models.WeekViewDays; i++ {
		days = append(days, first.AddDate(0, 0, i))
	}
	return days
}

// WeekSchedule groups the snapshot into the 7-day week view.
func WeekSchedule(snapshot []models.Reservation, start time.Time, loc *time.Location) []DayGroup {
	groups := make([]DayGroup, 0, models.WeekViewDays)
	for _, day := range WeekView(start) {
		groups = append(groups, DayGroup{
			Date:         day,
			Reservations: OnDate(snapshot, day, loc),
		})
	}
	return groups
}

// MonthGrid returns the fixed 42-cell grid for a month: 6 rows of 7
// days, week starting Monday. Cells before the 1st and after the last
// day are empty; trailing rows may be entirely empty.
func MonthGrid(year int, month time.Month) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysBefore := (int(first.Weekday()) + 6) % 7 // Monday = 0
	daysInMonth := first.AddDate(0, 1, -1).Day()

	cells := make([]Cell, 0, models.MonthGridCells)
	for i := 0; i < daysBefore; i++ {
		cells = append(cells, Cell{Empty: true})
	}
	for d := 1; d <= daysInMonth; d++ {
		cells = append(cells, Cell{Date: time.Date(year, month, d, 0, 0, 0, 0, time.UTC)})
	}
	for len(cells) < models.MonthGridCells {
		cells = append(cells, Cell{Empty: true})
	}
	return cells
}

// Summarize computes the statistics block. The success ratio is kept to
// one decimal place, earnings to two. Earnings are a flat rate per
// completed job; numberOfCars is deliberately not factored in.
func Summarize(snapshot []models.Reservation) Summary {
	s := Summary{Total: len(snapshot)}
	for _, r := range snapshot {
		switch r.Status {
		case models.StatusAccepted:
			s.Accepted++
		case models.StatusDeclined:
			s.Declined++
		case models.StatusPending:
			s.Pending++
		}
		if r.Done {
			s.DoneCount++
		}
	}

	if s.Total > 0 {
		ratio := float64(s.Accepted) / float64(s.Total) * 100
		s.SuccessRatioPercent = math.Round(ratio*10) / 10
	}

	s.TotalEarnings = math.Round(float64(s.DoneCount)*models.UnitRate*100) / 100
	return s
}
