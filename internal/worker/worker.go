package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"washbook/internal/metrics"
	"washbook/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SnapshotSource supplies the current reservation list for a report.
type SnapshotSource interface {
	Snapshot() []models.Reservation
}

// ReportWriter renders a reservation list to a file.
type ReportWriter interface {
	WriteReport(reservations []models.Reservation) (string, error)
}

// ExportTask is a queued request for a schedule report.
type ExportTask struct {
	ID          string    `json:"id"`
	RequestedAt time.Time `json:"requested_at"`
	Retries     int       `json:"retries"`
}

// ExportWorker consumes export tasks and writes XLSX reports. Tasks go
// through Redis when it is available and fall back to an in-memory queue.
type ExportWorker struct {
	source        SnapshotSource
	writer        ReportWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan ExportTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	logger        *zerolog.Logger
}

func NewExportWorker(source SnapshotSource, writer ReportWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ExportWorker{
		source:        source,
		writer:        writer,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan ExportTask, models.WorkerQueueSize),
		redisQueueKey: "exports:queue",
		deadLetterKey: "exports:deadletter",
		pollInterval:  2 * time.Second,
		logger:        logger,
	}
}

// EnqueueExport schedules a new report, via redis when possible.
func (w *ExportWorker) EnqueueExport(ctx context.Context) error {
	task := ExportTask{
		ID:          uuid.NewString(),
		RequestedAt: time.Now(),
	}
	w.requeue(ctx, task)
	return nil
}

func (w *ExportWorker) requeue(ctx context.Context, task ExportTask) {
	if w.redis != nil {
		err := w.pushRedis(ctx, task)
		if err == nil {
			return
		}
		w.logger.Warn().Err(err).Str("task_id", task.ID).Msg("Redis push failed, falling back to memory queue")
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Error().Str("task_id", task.ID).Msg("Export queue full, task dropped")
	}
}

// Start launches the main loop; stops when ctx is done.
func (w *ExportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Export worker started")
	defer w.logger.Info().Msg("Export worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, t)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.pollInterval):
		}
	}
}

func (w *ExportWorker) tryLocalQueue() (ExportTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return ExportTask{}, false
	}
}

func (w *ExportWorker) tryRedis(ctx context.Context) (ExportTask, bool) {
	if w.redis == nil {
		return ExportTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return ExportTask{}, false
		}
		w.logger.Warn().Err(err).Msg("Redis BRPOP error")
		return ExportTask{}, false
	}
	if len(res) != 2 {
		return ExportTask{}, false
	}
	var task ExportTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("Failed to decode export task")
		return ExportTask{}, false
	}
	return task, true
}

func (w *ExportWorker) processTask(ctx context.Context, task ExportTask) {
	path, err := w.writer.WriteReport(w.source.Snapshot())
	if err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}
	w.logger.Info().Str("task_id", task.ID).Str("file_path", path).Msg("Export task completed")
}

func (w *ExportWorker) retryOrFail(ctx context.Context, task ExportTask, cause error) {
	attempt := task.Retries + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.logger.Error().Err(cause).Str("task_id", task.ID).Int("retries", task.Retries).Msg("Export task failed permanently")
		metrics.IncWriteFailure("export")
		w.pushDeadLetter(ctx, task)
		return
	}

	task.Retries = attempt
	delay := w.retryPolicy.NextDelay(attempt)
	w.logger.Warn().Err(cause).Str("task_id", task.ID).Dur("retry_in", delay).Msg("Export task failed, will retry")

	time.AfterFunc(delay, func() {
		w.requeue(context.Background(), task)
	})
}

func (w *ExportWorker) pushRedis(ctx context.Context, task ExportTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *ExportWorker) pushDeadLetter(ctx context.Context, task ExportTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to encode deadletter task")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("Deadletter push failed")
	}
}
