package handler

import (
	"net/http"
	"strconv"

	"github.com/secunit404/railpulse/internal/api/models"
	"github.com/secunit404/railpulse/internal/api/response"
	"github.com/secunit404/railpulse/internal/station"
)

// DefaultStationSearchLimit caps station search results when the client
// does not ask for a limit.
const DefaultStationSearchLimit = 20

// StationHandler handles station directory endpoints.
type StationHandler struct {
	stations *station.Service
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stations *station.Service) *StationHandler {
	return &StationHandler{stations: stations}
}

// SearchStations handles GET /v1/stations?q= - search the station directory
// by signature or name.
func (h *StationHandler) SearchStations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, r, "q is required", []models.FieldError{
			{Field: "q", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	limit := DefaultStationSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			response.BadRequest(w, r, "limit must be between 1 and 100", []models.FieldError{
				{Field: "limit", Message: "must be between 1 and 100", Code: "OUT_OF_RANGE"},
			})
			return
		}
		limit = parsed
	}

	if err := h.stations.EnsureFresh(r.Context()); err != nil {
		response.ServiceUnavailable(w, r, "station directory is unavailable")
		return
	}

	matches := h.stations.Search(query, limit)
	items := make([]models.Station, len(matches))
	for i, s := range matches {
		items[i] = models.Station{
			Signature: s.Signature,
			Name:      s.AdvertisedName,
			ShortName: s.ShortName,
		}
	}

	response.JSON(w, r, http.StatusOK, models.StationList{Items: items})
}
