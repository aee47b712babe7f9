package delay_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/secunit404/railpulse/internal/delay"
)

// at parses a HH:MM clock time on a fixed service day.
func at(t *testing.T, clock string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, "2026-03-14T"+clock+":00+01:00")
	require.NoError(t, err)
	return ts
}

// announcement builds a minimal announcement for tests; options mutate it.
func announcement(train string, activity delay.ActivityType, station string, advertised time.Time, opts ...func(*delay.Announcement)) delay.Announcement {
	ann := delay.Announcement{
		TrainIdent:        train,
		Activity:          activity,
		AdvertisedTime:    advertised,
		LocationSignature: station,
	}
	for _, opt := range opts {
		opt(&ann)
	}
	return ann
}

func withActual(ts time.Time) func(*delay.Announcement) {
	return func(a *delay.Announcement) { a.ActualTime = ts }
}

func withEstimated(ts time.Time) func(*delay.Announcement) {
	return func(a *delay.Announcement) { a.EstimatedTime = ts }
}

func withCanceled() func(*delay.Announcement) {
	return func(a *delay.Announcement) { a.Canceled = true }
}

func withDeviation(code, description string) func(*delay.Announcement) {
	return func(a *delay.Announcement) {
		a.Deviations = append(a.Deviations, delay.Annotation{Code: code, Description: description})
	}
}

func withInformation(description string) func(*delay.Announcement) {
	return func(a *delay.Announcement) {
		a.OtherInformation = append(a.OtherInformation, delay.Annotation{Description: description})
	}
}

func withFrom(name string, priority int) func(*delay.Announcement) {
	return func(a *delay.Announcement) {
		a.FromLocations = append(a.FromLocations, delay.LocationRef{Name: name, Priority: priority})
	}
}

func withTo(name string, priority int) func(*delay.Announcement) {
	return func(a *delay.Announcement) {
		a.ToLocations = append(a.ToLocations, delay.LocationRef{Name: name, Priority: priority})
	}
}

func withProduct(description string) func(*delay.Announcement) {
	return func(a *delay.Announcement) {
		a.Products = append(a.Products, delay.Annotation{Description: description})
	}
}

func withOperationalNumber(n string) func(*delay.Announcement) {
	return func(a *delay.Announcement) { a.OperationalNumber = n }
}

// directory returns a NameLookup over a fixed signature-to-name map.
func directory(entries map[string]string) delay.NameLookup {
	return func(signature string) (string, bool) {
		name, ok := entries[signature]
		return name, ok
	}
}
