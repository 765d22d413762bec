package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"washbook/internal/metrics"
	"washbook/internal/models"
	"washbook/internal/service"
)

const dateLayout = "2006-01-02"

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		metrics.IncHTTP("reservations_list")
		writeJSON(w, http.StatusOK, map[string]any{"reservations": s.svc.Snapshot()})
	case http.MethodPost:
		s.handleSubmit(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations_submit")

	// Extra fields such as status or done are ignored rather than
	// rejected: the store forces both on insert regardless.
	var draft models.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.svc.Submit(r.Context(), draft); err != nil {
		if errors.Is(err, service.ErrMissingClient) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to submit reservation")
		return
	}

	// The write itself is asynchronous; acceptance here only means the
	// draft passed validation and was handed to the store.
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// handleReservationAction routes /api/v1/reservations/{id}/status,
// /api/v1/reservations/{id}/done and /api/v1/reservations/pending.
func (s *HTTPServer) handleReservationAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/reservations/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	if len(parts) == 1 && parts[0] == "pending" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		metrics.IncHTTP("reservations_pending")
		writeJSON(w, http.StatusOK, map[string]any{"reservations": s.svc.PendingQueue()})
		return
	}

	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimSpace(parts[0])

	switch parts[1] {
	case "status":
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		metrics.IncHTTP("reservations_status")
		if err := s.svc.Decide(r.Context(), id, body.Status); err != nil {
			if errors.Is(err, service.ErrUnknownStatus) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to update status")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	case "done":
		var body struct {
			Done bool `json:"done"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		metrics.IncHTTP("reservations_done")
		s.svc.SetDone(r.Context(), id, body.Done)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("calendar_day")

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	// Parsed in the service zone: midnight UTC lands on the previous
	// calendar day anywhere west of Greenwich.
	day, err := time.ParseInLocation(dateLayout, dateStr, s.svc.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":         dateStr,
		"reservations": s.svc.OnDate(day),
	})
}

func (s *HTTPServer) handleWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("calendar_week")

	start := time.Now()
	if raw := strings.TrimSpace(r.URL.Query().Get("start")); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, s.svc.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start format; expected YYYY-MM-DD")
			return
		}
		start = parsed
	}

	writeJSON(w, http.StatusOK, map[string]any{"days": s.svc.Week(start)})
}

func (s *HTTPServer) handleMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("calendar_month")

	now := time.Now()
	year, month := now.Year(), now.Month()

	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			writeError(w, http.StatusBadRequest, "invalid month; expected 1-12")
			return
		}
		month = time.Month(parsed)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": int(month),
		"cells": s.svc.MonthGrid(year, month),
	})
}

func (s *HTTPServer) handleCarTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("cartypes")

	types := make([]models.CarTypeInfo, len(s.carTypes))
	copy(types, s.carTypes)
	sort.Slice(types, func(i, j int) bool {
		if types[i].SortOrder == types[j].SortOrder {
			return types[i].Name < types[j].Name
		}
		return types[i].SortOrder < types[j].SortOrder
	})

	writeJSON(w, http.StatusOK, map[string]any{"car_types": types})
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("stats")
	writeJSON(w, http.StatusOK, s.svc.Stats())
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.pinger != nil {
		if err := s.pinger.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
