package handler

import (
	"net/http"
	"strconv"

	"github.com/secunit404/railpulse/internal/api/models"
	"github.com/secunit404/railpulse/internal/api/response"
	"github.com/secunit404/railpulse/internal/history"
)

// HistoryHandler handles search history endpoints.
type HistoryHandler struct {
	historyService *history.Service
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService *history.Service) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// ListHistory handles GET /v1/history - list the user's recent searches.
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(w, r, "limit must be a positive integer", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer", Code: "OUT_OF_RANGE"},
			})
			return
		}
		limit = parsed
	}

	list, err := h.historyService.List(r.Context(), userID, limit)
	if err != nil {
		response.InternalError(w, r, "listing search history failed")
		return
	}

	response.JSON(w, r, http.StatusOK, list)
}

// ClearHistory handles DELETE /v1/history - delete all of the user's
// recorded searches.
func (h *HistoryHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	if err := h.historyService.Clear(r.Context(), userID); err != nil {
		response.InternalError(w, r, "clearing search history failed")
		return
	}

	response.NoContent(w, r)
}
