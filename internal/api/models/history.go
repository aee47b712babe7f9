package models

// SearchHistoryEntry represents one recorded delay search.
type SearchHistoryEntry struct {
	ID                   string    `json:"id"`
	Type                 string    `json:"type"`
	StationSignature     string    `json:"stationSignature"`
	StationName          string    `json:"stationName"`
	DestinationSignature *string   `json:"destinationSignature,omitempty"`
	DestinationName      *string   `json:"destinationName,omitempty"`
	MinDelayMinutes      int       `json:"minDelayMinutes"`
	ResultCount          int       `json:"resultCount"`
	SearchedAt           Timestamp `json:"searchedAt"`
}

// SearchHistoryList wraps a list of search history entries.
type SearchHistoryList struct {
	Items []SearchHistoryEntry `json:"items"`
}
