package trafikverket

import (
	"time"

	"github.com/secunit404/railpulse/internal/delay"
)

// Wire structures for the Trafikverket open API. Responses wrap every query
// in RESPONSE/RESULT envelopes; a RESULT may be split across several entries
// with INFO.LASTRESULT signalling whether the final page was included.

type apiEnvelope struct {
	Response apiResponse `json:"RESPONSE"`
}

type apiResponse struct {
	Results []apiResult `json:"RESULT"`
}

type apiResult struct {
	TrainAnnouncements []wireAnnouncement `json:"TrainAnnouncement"`
	TrainStations      []wireStation      `json:"TrainStation"`
	ReasonCodes        []wireReasonCode   `json:"ReasonCode"`
	Info               *apiResultInfo     `json:"INFO"`
}

type apiResultInfo struct {
	LastResult string `json:"LASTRESULT"`
}

type wireAnnouncement struct {
	AdvertisedTrainIdent    string           `json:"AdvertisedTrainIdent"`
	OperationalTrainNumber  string           `json:"OperationalTrainNumber"`
	ActivityType            string           `json:"ActivityType"`
	AdvertisedTimeAtLocation string          `json:"AdvertisedTimeAtLocation"`
	TimeAtLocation          string           `json:"TimeAtLocation"`
	EstimatedTimeAtLocation string           `json:"EstimatedTimeAtLocation"`
	LocationSignature       string           `json:"LocationSignature"`
	Canceled                bool             `json:"Canceled"`
	Deviation               []wireAnnotation `json:"Deviation"`
	OtherInformation        []wireAnnotation `json:"OtherInformation"`
	FromLocation            []wireLocation   `json:"FromLocation"`
	ToLocation              []wireLocation   `json:"ToLocation"`
	ProductInformation      []wireAnnotation `json:"ProductInformation"`
}

type wireAnnotation struct {
	Code        string `json:"Code"`
	Description string `json:"Description"`
}

type wireLocation struct {
	LocationName string `json:"LocationName"`
	Priority     int    `json:"Priority"`
}

type wireStation struct {
	LocationSignature          string `json:"LocationSignature"`
	AdvertisedLocationName     string `json:"AdvertisedLocationName"`
	AdvertisedShortLocationName string `json:"AdvertisedShortLocationName"`
}

type wireReasonCode struct {
	Code              string `json:"Code"`
	Level1Description string `json:"Level1Description"`
	Level2Description string `json:"Level2Description"`
	Level3Description string `json:"Level3Description"`
}

// toAnnouncement converts a wire record to the domain model. It reports
// ok=false when the advertised time does not parse; such records carry no
// usable schedule position and are dropped by the caller.
func toAnnouncement(w *wireAnnouncement) (delay.Announcement, bool) {
	advertised, err := time.Parse(time.RFC3339, w.AdvertisedTimeAtLocation)
	if err != nil {
		return delay.Announcement{}, false
	}

	ann := delay.Announcement{
		TrainIdent:        w.AdvertisedTrainIdent,
		OperationalNumber: w.OperationalTrainNumber,
		Activity:          delay.ActivityType(w.ActivityType),
		AdvertisedTime:    advertised,
		LocationSignature: w.LocationSignature,
		Canceled:          w.Canceled,
	}

	if ts, err := time.Parse(time.RFC3339, w.TimeAtLocation); err == nil && w.TimeAtLocation != "" {
		ann.ActualTime = ts
	}
	if ts, err := time.Parse(time.RFC3339, w.EstimatedTimeAtLocation); err == nil && w.EstimatedTimeAtLocation != "" {
		ann.EstimatedTime = ts
	}

	for _, d := range w.Deviation {
		ann.Deviations = append(ann.Deviations, delay.Annotation{Code: d.Code, Description: d.Description})
	}
	for _, o := range w.OtherInformation {
		ann.OtherInformation = append(ann.OtherInformation, delay.Annotation{Code: o.Code, Description: o.Description})
	}
	for _, p := range w.ProductInformation {
		ann.Products = append(ann.Products, delay.Annotation{Code: p.Code, Description: p.Description})
	}
	for _, l := range w.FromLocation {
		ann.FromLocations = append(ann.FromLocations, delay.LocationRef{Name: l.LocationName, Priority: l.Priority})
	}
	for _, l := range w.ToLocation {
		ann.ToLocations = append(ann.ToLocations, delay.LocationRef{Name: l.LocationName, Priority: l.Priority})
	}

	return ann, true
}
