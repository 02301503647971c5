package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clinicops/leadwatch/internal/dashboard"
	"github.com/clinicops/leadwatch/pkg/logging"
)

// WatchHandler exposes the watcher's in-memory view as a small local console
// API: a filtered snapshot and status updates proxied through the optimistic
// controller.
type WatchHandler struct {
	watcher *dashboard.Watcher
	logger  *logging.Logger
}

// NewWatchHandler creates a watch handler.
func NewWatchHandler(watcher *dashboard.Watcher, logger *logging.Logger) *WatchHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WatchHandler{watcher: watcher, logger: logger}
}

// SnapshotResponse is the console view of the watcher state.
type SnapshotResponse struct {
	Stats        dashboard.Stats         `json:"stats"`
	Appointments []dashboard.Appointment `json:"appointments"`
	HasNewLeads  bool                    `json:"hasNewLeads"`
	UpdatingID   string                  `json:"updatingId,omitempty"`
}

// Snapshot returns the filtered appointment list.
// GET /api/watch/appointments
// Query params status, search, date and service are applied for this request.
func (h *WatchHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	ctrl := h.watcher.Controller()

	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		ctrl.SetStatusFilter(status)
	}
	ctrl.SetSearchTerm(q.Get("search"))
	ctrl.SetDateFilter(q.Get("date"))
	ctrl.SetServiceFilter(q.Get("service"))

	resp := SnapshotResponse{
		Stats:        ctrl.Stats(),
		Appointments: ctrl.Filtered(),
		HasNewLeads:  h.watcher.HasNewLeads(),
		UpdatingID:   ctrl.UpdatingID(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClearFilters resets every filter.
// DELETE /api/watch/filters
func (h *WatchHandler) ClearFilters(w http.ResponseWriter, _ *http.Request) {
	h.watcher.Controller().ClearFilters()
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus applies an optimistic status change.
// PATCH /api/watch/appointments/{id}
func (h *WatchHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		jsonError(w, "missing appointment id", http.StatusBadRequest)
		return
	}

	var payload struct {
		Status dashboard.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		jsonError(w, "invalid body", http.StatusBadRequest)
		return
	}

	err := h.watcher.Controller().UpdateStatus(r.Context(), id, payload.Status)
	switch err {
	case nil:
		w.WriteHeader(http.StatusNoContent)
	case dashboard.ErrInvalidStatus:
		jsonError(w, "invalid status", http.StatusBadRequest)
	case dashboard.ErrAppointmentNotFound:
		jsonError(w, "appointment not found", http.StatusNotFound)
	default:
		// Optimistic value already applied locally; surface the sync failure.
		h.logger.Error("status update sync failed", "id", id, "error", err)
		jsonError(w, "update not persisted", http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
