package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"washbook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

type fakeSource struct {
	reservations []models.Reservation
}

func (f *fakeSource) Snapshot() []models.Reservation {
	return f.reservations
}

type fakeWriter struct {
	err   error
	calls int
	got   []models.Reservation
}

func (f *fakeWriter) WriteReport(reservations []models.Reservation) (string, error) {
	f.calls++
	f.got = reservations
	return "/tmp/report.xlsx", f.err
}

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func TestEnqueueExport_LocalQueue(t *testing.T) {
	source := &fakeSource{}
	w := NewExportWorker(source, &fakeWriter{}, nil, RetryPolicy{}, testLogger())

	if err := w.EnqueueExport(context.Background()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := w.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	if task.ID == "" {
		t.Fatalf("expected task id to be set")
	}
	if task.Retries != 0 {
		t.Fatalf("expected fresh task, got retries=%d", task.Retries)
	}
}

func TestEnqueueExport_RedisQueue(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	w := NewExportWorker(&fakeSource{}, &fakeWriter{}, client, RetryPolicy{}, testLogger())
	if err := w.EnqueueExport(context.Background()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	raw, err := mr.Lpop("exports:queue")
	if err != nil {
		t.Fatalf("expected task in redis queue: %v", err)
	}
	var task ExportTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if task.ID == "" {
		t.Fatalf("expected task id to be set")
	}
}

func TestProcessTask_Success(t *testing.T) {
	source := &fakeSource{reservations: []models.Reservation{
		{ID: "r1", ClientName: "Ana", Date: time.Now()},
	}}
	writer := &fakeWriter{}
	w := NewExportWorker(source, writer, nil, RetryPolicy{}, testLogger())

	w.processTask(context.Background(), ExportTask{ID: "t1", RequestedAt: time.Now()})

	if writer.calls != 1 {
		t.Fatalf("expected 1 write call, got %d", writer.calls)
	}
	if len(writer.got) != 1 || writer.got[0].ID != "r1" {
		t.Fatalf("unexpected report snapshot: %+v", writer.got)
	}
}

func TestProcessTask_FailureGoesToDeadLetter(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	writer := &fakeWriter{err: errors.New("disk full")}
	w := NewExportWorker(&fakeSource{}, writer, client, RetryPolicy{MaxRetries: 1}, testLogger())

	w.processTask(context.Background(), ExportTask{ID: "t1", RequestedAt: time.Now()})

	raw, err := mr.Lpop("exports:deadletter")
	if err != nil {
		t.Fatalf("expected deadletter entry: %v", err)
	}
	var task ExportTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		t.Fatalf("decode deadletter: %v", err)
	}
	if task.ID != "t1" {
		t.Fatalf("expected task t1 in deadletter, got %s", task.ID)
	}
}

func TestProcessTask_FailureSchedulesRetry(t *testing.T) {
	writer := &fakeWriter{err: errors.New("transient")}
	w := NewExportWorker(&fakeSource{}, writer, nil, RetryPolicy{MaxRetries: 3, InitialDelay: 10 * time.Millisecond}, testLogger())

	w.processTask(context.Background(), ExportTask{ID: "t1", RequestedAt: time.Now()})

	deadline := time.After(time.Second)
	for {
		if task, ok := w.tryLocalQueue(); ok {
			if task.Retries != 1 {
				t.Fatalf("expected retries=1, got %d", task.Retries)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("expected retry task to be requeued")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRetryPolicy_NextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	if d := policy.NextDelay(1); d != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d)
	}
	if d := policy.NextDelay(2); d != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d)
	}
	if d := policy.NextDelay(5); d != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d)
	}
}

func TestExcelExporter_WriteReport(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExcelExporter(dir, time.UTC, testLogger())

	reservations := []models.Reservation{
		{ID: "r2", ClientName: "Marko", ClientPhone: "555-2", NumberOfCars: 3, Status: models.StatusAccepted, Done: true, Date: time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)},
		{ID: "r1", ClientName: "Ana", ClientPhone: "555-1", NumberOfCars: 1, Status: models.StatusPending, Date: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)},
	}

	path, err := exporter.WriteReport(reservations)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("report written outside export dir: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat report: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	// Rows are sorted by date, earliest first.
	name, err := f.GetCellValue(scheduleSheet, "B2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if name != "Ana" {
		t.Fatalf("expected Ana in first data row, got %q", name)
	}

	done, _ := f.GetCellValue(scheduleSheet, "G3")
	if done != "yes" {
		t.Fatalf("expected done=yes for Marko, got %q", done)
	}

	total, _ := f.GetCellValue(summarySheet, "B1")
	if total != "2" {
		t.Fatalf("expected total=2 in summary, got %q", total)
	}
}

func TestExcelExporter_EmptySnapshot(t *testing.T) {
	exporter := NewExcelExporter(t.TempDir(), time.UTC, testLogger())

	path, err := exporter.WriteReport(nil)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat report: %v", err)
	}
}
