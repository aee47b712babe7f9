package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/secunit404/railpulse/internal/api/models"
	"github.com/secunit404/railpulse/internal/api/response"
	"github.com/secunit404/railpulse/internal/monitor"
)

// RunTrigger queues an on-demand run of a monitor.
type RunTrigger interface {
	TriggerRun(ctx context.Context, userID, monitorID string) error
}

// MonitorHandler handles monitor CRUD and run endpoints.
type MonitorHandler struct {
	monitorService *monitor.Service
	runTrigger     RunTrigger
}

// NewMonitorHandler creates a new MonitorHandler. runTrigger may be nil when
// the API runs without a worker; the run endpoint then reports unavailable.
func NewMonitorHandler(monitorService *monitor.Service, runTrigger RunTrigger) *MonitorHandler {
	return &MonitorHandler{
		monitorService: monitorService,
		runTrigger:     runTrigger,
	}
}

// ListMonitors handles GET /v1/monitors - list the user's monitors.
func (h *MonitorHandler) ListMonitors(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	list, err := h.monitorService.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w, r, "listing monitors failed")
		return
	}

	response.JSON(w, r, http.StatusOK, list)
}

// CreateMonitor handles POST /v1/monitors - create a monitor.
func (h *MonitorHandler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	var input models.MonitorCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.monitorService.Create(r.Context(), userID, &input)
	if err != nil {
		var verr *monitor.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(w, r, "validation error", verr.Errors)
			return
		}
		response.InternalError(w, r, "creating monitor failed")
		return
	}

	location := fmt.Sprintf("/v1/monitors/%s", created.ID)
	response.Created(w, r, location, created)
}

// GetMonitor handles GET /v1/monitors/{monitorId}.
func (h *MonitorHandler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	monitorID := chi.URLParam(r, "monitorId")
	m, err := h.monitorService.Get(r.Context(), userID, monitorID)
	if err != nil {
		if errors.Is(err, monitor.ErrMonitorNotFound) {
			response.NotFound(w, r, "monitor not found")
			return
		}
		response.InternalError(w, r, "fetching monitor failed")
		return
	}

	response.JSON(w, r, http.StatusOK, m)
}

// UpdateMonitor handles PUT /v1/monitors/{monitorId}.
func (h *MonitorHandler) UpdateMonitor(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	monitorID := chi.URLParam(r, "monitorId")

	var input models.MonitorUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.monitorService.Update(r.Context(), userID, monitorID, &input)
	if err != nil {
		var verr *monitor.ValidationError
		switch {
		case errors.As(err, &verr):
			response.BadRequest(w, r, "validation error", verr.Errors)
		case errors.Is(err, monitor.ErrMonitorNotFound):
			response.NotFound(w, r, "monitor not found")
		default:
			response.InternalError(w, r, "updating monitor failed")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, updated)
}

// DeleteMonitor handles DELETE /v1/monitors/{monitorId}.
func (h *MonitorHandler) DeleteMonitor(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	monitorID := chi.URLParam(r, "monitorId")
	if err := h.monitorService.Delete(r.Context(), userID, monitorID); err != nil {
		if errors.Is(err, monitor.ErrMonitorNotFound) {
			response.NotFound(w, r, "monitor not found")
			return
		}
		response.InternalError(w, r, "deleting monitor failed")
		return
	}

	response.NoContent(w, r)
}

// RunMonitor handles POST /v1/monitors/{monitorId}/run - queue an on-demand
// run regardless of the monitor's schedule.
func (h *MonitorHandler) RunMonitor(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	monitorID := chi.URLParam(r, "monitorId")

	// Ownership check before queueing.
	if _, err := h.monitorService.Get(r.Context(), userID, monitorID); err != nil {
		if errors.Is(err, monitor.ErrMonitorNotFound) {
			response.NotFound(w, r, "monitor not found")
			return
		}
		response.InternalError(w, r, "fetching monitor failed")
		return
	}

	if h.runTrigger == nil {
		response.ServiceUnavailable(w, r, "monitor runs are not available")
		return
	}

	if err := h.runTrigger.TriggerRun(r.Context(), userID, monitorID); err != nil {
		response.InternalError(w, r, "queueing monitor run failed")
		return
	}

	response.Accepted(w, r, "", models.MonitorRunResponse{
		MonitorID: monitorID,
		Status:    "queued",
	})
}
