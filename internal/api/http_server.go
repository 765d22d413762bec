package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"washbook/internal/config"
	"washbook/internal/models"
	"washbook/internal/schedule"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReservationAPI is the slice of the service layer the HTTP handlers use.
type ReservationAPI interface {
	Submit(ctx context.Context, draft models.Draft) error
	Decide(ctx context.Context, id, status string) error
	SetDone(ctx context.Context, id string, done bool)
	Snapshot() []models.Reservation
	PendingQueue() []models.Reservation
	OnDate(day time.Time) []models.Reservation
	Week(start time.Time) []schedule.DayGroup
	MonthGrid(year int, month time.Month) []schedule.Cell
	Stats() schedule.Summary
	Location() *time.Location
}

// Pinger reports storage health for the healthz endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HTTPServer exposes the reservation book over a small JSON API.
type HTTPServer struct {
	cfg      config.APIConfig
	svc      ReservationAPI
	pinger   Pinger
	carTypes []models.CarTypeInfo
	server   *http.Server
	auth     *HTTPAuth
	logger   *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc ReservationAPI, pinger Pinger, carTypes []models.CarTypeInfo, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, svc: svc, pinger: pinger, carTypes: carTypes, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/reservations", srv.handleReservations)
	mux.HandleFunc("/api/v1/reservations/", srv.handleReservationAction)
	mux.HandleFunc("/api/v1/calendar/day", srv.handleDay)
	mux.HandleFunc("/api/v1/calendar/week", srv.handleWeek)
	mux.HandleFunc("/api/v1/calendar/month", srv.handleMonth)
	mux.HandleFunc("/api/v1/cartypes", srv.handleCarTypes)
	mux.HandleFunc("/api/v1/stats", srv.handleStats)
	mux.HandleFunc("/healthz", srv.handleHealthz)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the configured root handler, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
