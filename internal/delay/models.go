// Package delay implements the delay inference engine: it turns a raw list
// of train location announcements into a ranked list of delayed journeys,
// including effective-delay computation for origin-to-destination queries where
// a rider can fall back to a later train.
//
// The package performs no I/O. Callers fetch announcements, a station name
// lookup, and a reason-priority snapshot up front and hand them to a
// Calculator; every computation is a pure function over those inputs.
package delay

import "time"

// ActivityType distinguishes departure and arrival announcements.
// The values match the Trafikverket TrainAnnouncement ActivityType field.
type ActivityType string

const (
	// ActivityDeparture marks a departure announcement ("Avgang").
	ActivityDeparture ActivityType = "Avgang"

	// ActivityArrival marks an arrival announcement ("Ankomst").
	ActivityArrival ActivityType = "Ankomst"
)

// UnknownReason is the sentinel reason reported when a delayed train carries
// no deviation or informational annotations at all.
const UnknownReason = "Unknown reason"

// unknownOperationalNumber is the grouping placeholder for announcements
// without an operational train number.
const unknownOperationalNumber = "unknown"

// Annotation is a coded free-text note attached to an announcement.
// Deviations carry a reason code; informational notes and product
// descriptions usually have only text.
type Annotation struct {
	Code        string
	Description string
}

// LocationRef is a from/to location hint on an announcement. The name may be
// a station signature or an already-friendly name depending on which API
// schema version produced it; Priority 1 marks the primary endpoint.
type LocationRef struct {
	Name     string
	Priority int
}

// Announcement is one train-at-location-at-activity record as reported by
// the upstream traffic API. It is immutable input to the engine.
type Announcement struct {
	// TrainIdent is the advertised train identifier, e.g. "3425".
	TrainIdent string

	// OperationalNumber is the operational train number, empty if unreported.
	OperationalNumber string

	// Activity says whether this record is a departure or an arrival.
	Activity ActivityType

	// AdvertisedTime is the planned time at the location.
	AdvertisedTime time.Time

	// ActualTime is the recorded time at the location, zero if not yet known.
	ActualTime time.Time

	// EstimatedTime is the forecast time at the location, zero if absent.
	EstimatedTime time.Time

	// LocationSignature identifies the station this record belongs to.
	LocationSignature string

	// Canceled is set when the activity has been withdrawn.
	Canceled bool

	// Deviations are disruption annotations (coded).
	Deviations []Annotation

	// OtherInformation are informational annotations (rarely coded).
	OtherInformation []Annotation

	// FromLocations and ToLocations are journey endpoint hints.
	FromLocations []LocationRef
	ToLocations   []LocationRef

	// Products describe the product/operator, e.g. "Västtågen".
	Products []Annotation
}

// BestKnownTime returns the actual time if recorded, else the estimate.
// The zero time means neither is available.
func (a *Announcement) BestKnownTime() time.Time {
	if !a.ActualTime.IsZero() {
		return a.ActualTime
	}
	return a.EstimatedTime
}

// InstanceKey identifies one train's single run on one service day. It is a
// value type compared field by field, so separator characters inside train
// identifiers cannot collide two distinct runs.
type InstanceKey struct {
	TrainIdent        string
	OperationalNumber string
	ServiceDate       string // calendar date of the advertised time, YYYY-MM-DD
}

// TrainServiceInstance is the set of announcements sharing one InstanceKey,
// split by activity kind. Instances lacking either a departure or an arrival
// never leave the grouper.
type TrainServiceInstance struct {
	Key        InstanceKey
	Departures []Announcement
	Arrivals   []Announcement
}

// Announcements returns every announcement in the instance, departures first.
func (t *TrainServiceInstance) Announcements() []Announcement {
	all := make([]Announcement, 0, len(t.Departures)+len(t.Arrivals))
	all = append(all, t.Departures...)
	all = append(all, t.Arrivals...)
	return all
}

// StationDelay is one qualifying delayed train in a query result. Timestamps
// are ISO 8601 strings; DelayMinutes is truncated to whole minutes.
type StationDelay struct {
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

// ReasonCode is one entry of the upstream reason-code catalog. The three
// description levels go from general to specific; the most specific
// non-empty one is used for classification and display.
type ReasonCode struct {
	Code              string
	Level1Description string
	Level2Description string
	Level3Description string
}

// Description returns the most specific non-empty description level.
func (rc ReasonCode) Description() string {
	switch {
	case rc.Level3Description != "":
		return rc.Level3Description
	case rc.Level2Description != "":
		return rc.Level2Description
	case rc.Level1Description != "":
		return rc.Level1Description
	default:
		return "Unknown"
	}
}

// NameLookup resolves a station signature to its advertised name. A miss
// reports ok=false and callers fall back to the raw value.
type NameLookup func(signature string) (name string, ok bool)

// wholeMinutes returns the difference to - from truncated to whole minutes,
// matching how riders read a departure board.
func wholeMinutes(from, to time.Time) int {
	return int(to.Sub(from).Minutes())
}

// isoTime formats a timestamp for API output.
func isoTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
