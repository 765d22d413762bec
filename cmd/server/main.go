package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"washbook/internal/api"
	"washbook/internal/config"
	"washbook/internal/database"
	"washbook/internal/domain"
	"washbook/internal/events"
	"washbook/internal/logging"
	"washbook/internal/metrics"
	"washbook/internal/models"
	"washbook/internal/repository"
	"washbook/internal/service"
	"washbook/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, carTypes, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Database init failed")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewEventBus()
	db.SetEventBus(eventBus)

	redisClient, cache := initSnapshotCache(ctx, cfg, &logger)

	repo := repository.NewReservationRepository(db, cache, eventBus, &logger)

	var exporter domain.Exporter
	if cfg.Exports.Enabled {
		excel := worker.NewExcelExporter(cfg.Exports.Path, cfg.Location(), &logger)
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		exportWorker := worker.NewExportWorker(repo, excel, redisClient, retryPolicy, &logger)
		go exportWorker.Start(ctx)
		exporter = exportWorker
	}

	svc := service.NewReservationService(repo, exporter, cfg.Location(), &logger)

	svc.Subscribe(ctx, func(snapshot []models.Reservation) {
		logger.Debug().Int("reservations", len(snapshot)).Msg("Snapshot delivered")
	})
	go drainNotices(ctx, svc, &logger)

	startMetrics(ctx, cfg, &logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	if !cfg.API.Enabled {
		logger.Info().Msg("API disabled, running in worker-only mode")
		<-ctx.Done()
		return nil
	}

	apiServer := api.NewHTTPServer(cfg.API, svc, db, carTypes, &logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("API shutdown error")
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, []models.CarTypeInfo, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	carTypesPath := os.Getenv("CARTYPES_PATH")
	if carTypesPath == "" {
		carTypesPath = "configs/cartypes.yaml"
	}
	carTypes, err := loadCarTypes(carTypesPath)
	if err != nil {
		logger.Error().Err(err).Str("path", carTypesPath).Msg("Car type catalog load failed")
		return nil, nil, zerolog.Logger{}, closer, err
	}

	return cfg, carTypes, logger, closer, nil
}

func loadCarTypes(path string) ([]models.CarTypeInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// The catalog is optional.
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var catalog struct {
		CarTypes []models.CarTypeInfo `yaml:"car_types"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	if err := config.ValidateCarTypes(catalog.CarTypes); err != nil {
		return nil, err
	}
	return catalog.CarTypes, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Database directory create failed")
		return err
	}
	if cfg.Exports.Enabled {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("Export directory create failed")
			return err
		}
	}
	return nil
}

func initSnapshotCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.SnapshotCache) {
	memory := repository.NewMemorySnapshotCache()
	if cfg.Redis.Address == "" {
		return nil, memory
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, snapshot cache starts on memory")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("Redis connected")
	}

	primary := repository.NewRedisSnapshotCache(redisClient, time.Duration(models.DefaultRedisTTL)*time.Second)
	return redisClient, repository.NewFailoverSnapshotCache(primary, memory, logger)
}

func drainNotices(ctx context.Context, svc *service.ReservationService, logger *zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-svc.Notices():
			ev := logger.Info()
			if n.Kind == repository.NoticeWriteError {
				ev = logger.Warn()
			}
			ev.Str("kind", n.Kind).
				Str("reservation_id", n.ReservationID).
				Str("message", n.Message).
				Msg("Write outcome")
		}
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("Metrics server error")
	}
}
