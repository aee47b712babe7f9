package models

// DelaySearchRequest is the body of a delay search. A search with only a
// station signature inspects departures from that station; adding a
// destination signature inspects effective delays over the route.
type DelaySearchRequest struct {
	StationSignature     string `json:"stationSignature"`
	DestinationSignature string `json:"destinationSignature,omitempty"`

	// Date is the service date to search, YYYY-MM-DD. Empty means today.
	Date string `json:"date,omitempty"`

	// MinDelayMinutes filters out trains delayed less than this. Zero uses
	// the server default.
	MinDelayMinutes int `json:"minDelayMinutes,omitempty"`

	// HideBusReplacements drops trains substituted by replacement buses.
	HideBusReplacements bool `json:"hideBusReplacements,omitempty"`
}

// TrainDelay is one delayed train in a search result.
type TrainDelay struct {
	TrainNumber      string `json:"trainNumber"`
	TrainCompany     string `json:"trainCompany,omitempty"`
	Journey          string `json:"journey"`
	DelayMinutes     int    `json:"delayMinutes"`
	DeparturePlanned string `json:"departurePlanned"`
	DepartureActual  string `json:"departureActual"`
	ArrivalPlanned   string `json:"arrivalPlanned"`
	ArrivalActual    string `json:"arrivalActual"`
	DelayReason      string `json:"delayReason"`
	AlternativeInfo  string `json:"alternativeInfo,omitempty"`
}

// DelaySearchResponse is the result of a delay search.
type DelaySearchResponse struct {
	SearchType           string       `json:"searchType"`
	StationSignature     string       `json:"stationSignature"`
	StationName          string       `json:"stationName"`
	DestinationSignature string       `json:"destinationSignature,omitempty"`
	DestinationName      string       `json:"destinationName,omitempty"`
	Date                 string       `json:"date"`
	MinDelayMinutes      int          `json:"minDelayMinutes"`
	Count                int          `json:"count"`
	Delays               []TrainDelay `json:"delays"`
}
