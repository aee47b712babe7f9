package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/secunit404/railpulse/internal/api/models"
	"github.com/secunit404/railpulse/internal/api/response"
	"github.com/secunit404/railpulse/internal/delay"
	"github.com/secunit404/railpulse/internal/delay/trafikverket"
	"github.com/secunit404/railpulse/internal/history"
	"github.com/secunit404/railpulse/internal/monitor"
	"github.com/secunit404/railpulse/internal/reasoncode"
	"github.com/secunit404/railpulse/internal/station"
)

// AnnouncementSource fetches train announcements for a search window.
type AnnouncementSource interface {
	GetAnnouncements(ctx context.Context, query trafikverket.AnnouncementQuery) ([]delay.Announcement, error)
}

// DelayHandler handles delay search endpoints.
type DelayHandler struct {
	source      AnnouncementSource
	stations    *station.Service
	reasonCodes *reasoncode.Service
	history     *history.Service
}

// NewDelayHandler creates a new DelayHandler.
func NewDelayHandler(source AnnouncementSource, stations *station.Service, reasonCodes *reasoncode.Service, historyService *history.Service) *DelayHandler {
	return &DelayHandler{
		source:      source,
		stations:    stations,
		reasonCodes: reasonCodes,
		history:     historyService,
	}
}

// Search handles POST /v1/delays/search - compute delayed trains at a
// station or over a route for one service day.
func (h *DelayHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	var req models.DelaySearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if errs := validateSearchRequest(&req); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}
	if req.MinDelayMinutes == 0 {
		req.MinDelayMinutes = monitor.DefaultDelayThreshold
	}

	if err := h.stations.EnsureFresh(r.Context()); err != nil {
		response.ServiceUnavailable(w, r, "station directory is unavailable")
		return
	}

	stationName, ok := h.stations.LookupName(req.StationSignature)
	if !ok {
		response.BadRequest(w, r, "unknown station signature", []models.FieldError{
			{Field: "stationSignature", Message: "is not a known station", Code: "UNKNOWN"},
		})
		return
	}

	var destinationName string
	if req.DestinationSignature != "" {
		destinationName, ok = h.stations.LookupName(req.DestinationSignature)
		if !ok {
			response.BadRequest(w, r, "unknown station signature", []models.FieldError{
				{Field: "destinationSignature", Message: "is not a known station", Code: "UNKNOWN"},
			})
			return
		}
	}

	from, to, date, err := searchWindow(req.Date)
	if err != nil {
		response.BadRequest(w, r, "invalid date", []models.FieldError{
			{Field: "date", Message: "must be formatted as YYYY-MM-DD", Code: "INVALID"},
		})
		return
	}

	signatures := []string{req.StationSignature}
	if req.DestinationSignature != "" {
		signatures = append(signatures, req.DestinationSignature)
	}

	announcements, err := h.source.GetAnnouncements(r.Context(), trafikverket.AnnouncementQuery{
		LocationSignatures: signatures,
		From:               from,
		To:                 to,
	})
	if err != nil {
		response.ServiceUnavailable(w, r, "train announcement data is unavailable")
		return
	}

	calc := delay.NewCalculator(h.stations.LookupName, h.reasonCodes.Snapshot(r.Context()))

	var delays []delay.StationDelay
	searchType := "station"
	if req.DestinationSignature != "" {
		searchType = "route"
		delays = calc.RouteDelays(req.StationSignature, req.DestinationSignature, req.MinDelayMinutes, announcements)
	} else {
		delays = calc.StationDelays(req.StationSignature, req.MinDelayMinutes, announcements)
	}

	if req.HideBusReplacements {
		delays = delay.WithoutBusReplacements(delays)
	}

	h.history.Record(r.Context(), userID, history.RecordedSearch{
		StationSignature:     req.StationSignature,
		StationName:          stationName,
		DestinationSignature: req.DestinationSignature,
		DestinationName:      destinationName,
		MinDelayMinutes:      req.MinDelayMinutes,
		ResultCount:          len(delays),
	})

	response.JSON(w, r, http.StatusOK, models.DelaySearchResponse{
		SearchType:           searchType,
		StationSignature:     req.StationSignature,
		StationName:          stationName,
		DestinationSignature: req.DestinationSignature,
		DestinationName:      destinationName,
		Date:                 date,
		MinDelayMinutes:      req.MinDelayMinutes,
		Count:                len(delays),
		Delays:               toTrainDelays(delays),
	})
}

func validateSearchRequest(req *models.DelaySearchRequest) []models.FieldError {
	var errs []models.FieldError

	if req.StationSignature == "" {
		errs = append(errs, models.FieldError{Field: "stationSignature", Message: "is required", Code: "REQUIRED"})
	}
	if req.DestinationSignature != "" && req.DestinationSignature == req.StationSignature {
		errs = append(errs, models.FieldError{Field: "destinationSignature", Message: "must differ from stationSignature", Code: "INVALID"})
	}
	if req.MinDelayMinutes < 0 || req.MinDelayMinutes > monitor.MaxDelayThreshold {
		errs = append(errs, models.FieldError{Field: "minDelayMinutes", Message: "is out of range", Code: "OUT_OF_RANGE"})
	}

	return errs
}

// searchWindow resolves the requested service date to day bounds in the
// Swedish rail network's timezone. An empty date means today.
func searchWindow(date string) (from, to time.Time, resolved string, err error) {
	loc, err := time.LoadLocation(monitor.DefaultTimezone)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}

	var day time.Time
	if date == "" {
		day = time.Now().In(loc)
	} else {
		day, err = time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, "", err
		}
	}

	from = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	to = time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, loc)
	return from, to, day.Format("2006-01-02"), nil
}

func toTrainDelays(delays []delay.StationDelay) []models.TrainDelay {
	out := make([]models.TrainDelay, len(delays))
	for i, d := range delays {
		out[i] = models.TrainDelay{
			TrainNumber:      d.TrainNumber,
			TrainCompany:     d.TrainCompany,
			Journey:          d.Journey,
			DelayMinutes:     d.DelayMinutes,
			DeparturePlanned: d.DeparturePlanned,
			DepartureActual:  d.DepartureActual,
			ArrivalPlanned:   d.ArrivalPlanned,
			ArrivalActual:    d.ArrivalActual,
			DelayReason:      d.DelayReason,
			AlternativeInfo:  d.AlternativeInfo,
		}
	}
	return out
}
