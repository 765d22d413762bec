package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"washbook/internal/models"
	"washbook/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	scheduleSheet = "Schedule"
	summarySheet  = "Summary"
)

// ExcelExporter writes reservation schedule reports as XLSX files.
type ExcelExporter struct {
	dir    string
	loc    *time.Location
	logger *zerolog.Logger
}

func NewExcelExporter(dir string, loc *time.Location, logger *zerolog.Logger) *ExcelExporter {
	if loc == nil {
		loc = time.Local
	}
	return &ExcelExporter{dir: dir, loc: loc, logger: logger}
}

// WriteReport renders the full reservation list plus a summary sheet and
// returns the path of the written file.
func (e *ExcelExporter) WriteReport(reservations []models.Reservation) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(scheduleSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	sorted := make([]models.Reservation, len(reservations))
	copy(sorted, reservations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	e.writeHeader(f)
	e.writeRows(f, sorted)
	e.writeSummary(f, reservations)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("schedule_%s.xlsx", time.Now().In(e.loc).Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	if e.logger != nil {
		e.logger.Info().Str("file_path", filePath).Int("reservations", len(reservations)).Msg("Excel report created")
	}
	return filePath, nil
}

func (e *ExcelExporter) writeHeader(f *excelize.File) {
	headers := []string{"Date", "Client", "Phone", "Cars", "Car type", "Status", "Done", "Notes"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(scheduleSheet, cell, header)
	}

	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(scheduleSheet, "A1", "H1", style)

	_ = f.SetColWidth(scheduleSheet, "A", "A", 18)
	_ = f.SetColWidth(scheduleSheet, "B", "C", 20)
	_ = f.SetColWidth(scheduleSheet, "F", "F", 12)
	_ = f.SetColWidth(scheduleSheet, "H", "H", 30)
}

func (e *ExcelExporter) writeRows(f *excelize.File, reservations []models.Reservation) {
	for i, res := range reservations {
		row := i + 2
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("A%d", row), res.Date.In(e.loc).Format("02.01.2006 15:04"))
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("B%d", row), res.ClientName)
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("C%d", row), res.ClientPhone)
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("D%d", row), res.NumberOfCars)
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("E%d", row), res.CarType)
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("F%d", row), res.Status)
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("G%d", row), boolToYesNo(res.Done))
		_ = f.SetCellValue(scheduleSheet, fmt.Sprintf("H%d", row), res.Notes)

		if styleID, err := e.statusStyle(f, res.Status); err == nil {
			start := fmt.Sprintf("F%d", row)
			_ = f.SetCellStyle(scheduleSheet, start, start, styleID)
		}
	}
}

func (e *ExcelExporter) statusStyle(f *excelize.File, status string) (int, error) {
	color := "#FFFFFF"
	switch status {
	case models.StatusAccepted:
		color = "#C6EFCE"
	case models.StatusDeclined:
		color = "#FFC7CE"
	case models.StatusPending:
		color = "#FFEB9C"
	}
	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func (e *ExcelExporter) writeSummary(f *excelize.File, reservations []models.Reservation) {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return
	}

	stats := schedule.Summarize(reservations)
	rows := []struct {
		label string
		value interface{}
	}{
		{"Total reservations", stats.Total},
		{"Accepted", stats.Accepted},
		{"Declined", stats.Declined},
		{"Pending", stats.Pending},
		{"Completed washes", stats.DoneCount},
		{"Success ratio, %", stats.SuccessRatioPercent},
		{"Earnings", stats.TotalEarnings},
	}
	for i, r := range rows {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), r.label)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), r.value)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 25)
}

func boolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
