package models

// Station is one station directory entry.
type Station struct {
	Signature string `json:"signature"`
	Name      string `json:"name"`
	ShortName string `json:"shortName,omitempty"`
}

// StationList is the result of a station directory search.
type StationList struct {
	Items []Station `json:"items"`
}
