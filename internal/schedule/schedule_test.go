package schedule

import (
	"testing"
	"time"

	"washbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func res(id, status string, done bool, date time.Time) models.Reservation {
	return models.Reservation{
		ID:           id,
		Date:         date,
		ClientName:   "Klijent " + id,
		ClientPhone:  "555-" + id,
		NumberOfCars: 1,
		Status:       status,
		Done:         done,
	}
}

func TestPendingQueue_PreservesSnapshotOrder(t *testing.T) {
	day := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	snapshot := []models.Reservation{
		res("a", models.StatusPending, false, day),
		res("b", models.StatusAccepted, false, day),
		res("c", models.StatusPending, true, day),
		res("d", models.StatusDeclined, false, day),
		res("e", models.StatusPending, false, day),
	}

	pending := PendingQueue(snapshot)
	require.Len(t, pending, 3)
	assert.Equal(t, "a", pending[0].ID)
	assert.Equal(t, "c", pending[1].ID)
	assert.Equal(t, "e", pending[2].ID)
	assert.LessOrEqual(t, len(pending), len(snapshot))
}

func TestPendingQueue_Empty(t *testing.T) {
	assert.Empty(t, PendingQueue(nil))
	assert.Empty(t, PendingQueue([]models.Reservation{
		res("x", models.StatusAccepted, false, time.Now()),
	}))
}

func TestOnDate_IgnoresTimeOfDay(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	snapshot := []models.Reservation{
		res("morning", models.StatusPending, false, time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC)),
		res("evening", models.StatusPending, false, time.Date(2024, 6, 15, 23, 59, 59, 0, time.UTC)),
		res("nextday", models.StatusPending, false, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)),
	}

	got := OnDate(snapshot, day, time.UTC)
	require.Len(t, got, 2)
	assert.Equal(t, "morning", got[0].ID)
	assert.Equal(t, "evening", got[1].ID)
}

func TestOnDate_LocalZoneTruncation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 23:30 UTC on June 1st is June 2nd in Berlin.
	snapshot := []models.Reservation{
		res("late", models.StatusPending, false, time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)),
	}

	assert.Empty(t, OnDate(snapshot, time.Date(2024, 6, 1, 0, 0, 0, 0, berlin), berlin))
	assert.Len(t, OnDate(snapshot, time.Date(2024, 6, 2, 0, 0, 0, 0, berlin), berlin), 1)

	// In UTC the same instant still belongs to June 1st.
	assert.Len(t, OnDate(snapshot, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.UTC), 1)
}

func TestWeekView(t *testing.T) {
	start := time.Date(2024, 6, 28, 14, 45, 0, 0, time.UTC)
	days := WeekView(start)

	require.Len(t, days, 7)
	assert.Equal(t, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC), days[0])
	// Crosses the month boundary.
	assert.Equal(t, time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), days[6])
	for i := 1; i < 7; i++ {
		assert.Equal(t, days[i-1].AddDate(0, 0, 1), days[i])
	}
}

func TestWeekSchedule(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	snapshot := []models.Reservation{
		res("d1", models.StatusPending, false, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)),
		res("d3", models.StatusAccepted, false, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)),
		res("out", models.StatusPending, false, time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)),
	}

	groups := WeekSchedule(snapshot, start, time.UTC)
	require.Len(t, groups, 7)
	assert.Len(t, groups[0].Reservations, 1)
	assert.Empty(t, groups[1].Reservations)
	assert.Len(t, groups[2].Reservations, 1)
	for i := 3; i < 7; i++ {
		assert.Empty(t, groups[i].Reservations)
	}
}

func TestMonthGrid_Always42Cells(t *testing.T) {
	for year := 2023; year <= 2026; year++ {
		for month := time.January; month <= time.December; month++ {
			cells := MonthGrid(year, month)
			assert.Len(t, cells, 42, "%d-%s", year, month)
		}
	}
}

func TestMonthGrid_June2024(t *testing.T) {
	// June 2024 starts on a Saturday: 5 leading empty cells.
	cells := MonthGrid(2024, time.June)
	require.Len(t, cells, 42)

	for i := 0; i < 5; i++ {
		assert.True(t, cells[i].Empty, "cell %d", i)
	}
	assert.False(t, cells[5].Empty)
	assert.Equal(t, 1, cells[5].Date.Day())
	assert.Equal(t, 30, cells[34].Date.Day())
	for i := 35; i < 42; i++ {
		assert.True(t, cells[i].Empty, "cell %d", i)
	}
}

func TestMonthGrid_MondayStart(t *testing.T) {
	// July 2024 starts on a Monday: no leading empties.
	cells := MonthGrid(2024, time.July)
	assert.False(t, cells[0].Empty)
	assert.Equal(t, 1, cells[0].Date.Day())

	// September 2024 starts on a Sunday: 6 leading empties.
	cells = MonthGrid(2024, time.September)
	for i := 0; i < 6; i++ {
		assert.True(t, cells[i].Empty)
	}
	assert.Equal(t, 1, cells[6].Date.Day())
}

func TestMonthGrid_DatesAscending(t *testing.T) {
	cells := MonthGrid(2024, time.February) // leap year, 29 days
	var dates []time.Time
	for _, c := range cells {
		if !c.Empty {
			dates = append(dates, c.Date)
		}
	}
	require.Len(t, dates, 29)
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i].After(dates[i-1]))
	}
}

func TestSummarize(t *testing.T) {
	day := time.Now()
	snapshot := []models.Reservation{
		res("1", models.StatusAccepted, true, day),
		res("2", models.StatusAccepted, false, day),
		res("3", models.StatusDeclined, false, day),
		res("4", models.StatusPending, false, day),
		res("5", models.StatusPending, true, day),
		res("6", models.StatusAccepted, true, day),
	}

	s := Summarize(snapshot)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 3, s.Accepted)
	assert.Equal(t, 1, s.Declined)
	assert.Equal(t, 2, s.Pending)
	assert.Equal(t, 3, s.DoneCount)
	assert.Equal(t, s.Total, s.Accepted+s.Declined+s.Pending)

	// 3/6 = 50.0%, one decimal place.
	assert.Equal(t, 50.0, s.SuccessRatioPercent)
	// 3 completed jobs at the flat rate, fleet size not factored in.
	assert.Equal(t, 120.0, s.TotalEarnings)
}

func TestSummarize_RatioRounding(t *testing.T) {
	day := time.Now()
	snapshot := []models.Reservation{
		res("1", models.StatusAccepted, false, day),
		res("2", models.StatusPending, false, day),
		res("3", models.StatusPending, false, day),
	}

	s := Summarize(snapshot)
	// 1/3 = 33.333...% rounds to 33.3.
	assert.Equal(t, 33.3, s.SuccessRatioPercent)
}

func TestSummarize_EmptySnapshot(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.SuccessRatioPercent)
	assert.Equal(t, 0.0, s.TotalEarnings)
}

func TestSummarize_Idempotent(t *testing.T) {
	snapshot := []models.Reservation{
		res("1", models.StatusAccepted, true, time.Now()),
		res("2", models.StatusPending, false, time.Now()),
	}

	first := Summarize(snapshot)
	second := Summarize(snapshot)
	assert.Equal(t, first, second)
}

func TestSummarize_EarningsIgnoreFleetSize(t *testing.T) {
	big := res("1", models.StatusAccepted, true, time.Now())
	big.NumberOfCars = 12

	s := Summarize([]models.Reservation{big})
	assert.Equal(t, models.UnitRate, s.TotalEarnings)
}
