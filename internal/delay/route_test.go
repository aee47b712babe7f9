package delay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secunit404/railpulse/internal/delay"
)

// journeyAnns builds the announcement pair for one train running from A to B.
func journeyAnns(t *testing.T, train, depPlanned, arrPlanned string, depOpts, arrOpts []func(*delay.Announcement)) []delay.Announcement {
	t.Helper()
	dep := announcement(train, delay.ActivityDeparture, "A", at(t, depPlanned), depOpts...)
	arr := announcement(train, delay.ActivityArrival, "B", at(t, arrPlanned), arrOpts...)
	return []delay.Announcement{dep, arr}
}

func TestRouteDelays_CancelledTrainWithSubstitute(t *testing.T) {
	calc := delay.NewCalculator(nil, nil)

	var anns []delay.Announcement
	// T1 planned arrival 09:00, cancelled, no arrival data.
	anns = append(anns, journeyAnns(t, "T1", "08:30", "09:00",
		nil,
		[]func(*delay.Announcement){withCanceled()})...)
	// T2 departs later and actually arrives 09:35.
	anns = append(anns, journeyAnns(t, "T2", "09:10", "09:30",
		nil,
		[]func(*delay.Announcement){withActual(at(t, "09:35"))})...)

	delays := calc.RouteDelays("A", "B", 20, anns)

	require.Len(t, delays, 1)
	assert.Equal(t, "T1", delays[0].TrainNumber)
	assert.Equal(t, 35, delays[0].DelayMinutes)
	assert.Equal(t, "Train T1 cancelled - took T2 instead", delays[0].AlternativeInfo)
	assert.Equal(t, "2026-03-14T09:00:00+01:00", delays[0].ArrivalPlanned)
	assert.Equal(t, "2026-03-14T09:35:00+01:00", delays[0].ArrivalActual)
}

func TestRouteDelays_DelayedTrainRiddenToTheEnd(t *testing.T) {
	calc := delay.NewCalculator(nil, nil)

	anns := journeyAnns(t, "T1", "08:30", "09:00",
		[]func(*delay.Announcement){withActual(at(t, "08:50"))},
		[]func(*delay.Announcement){withActual(at(t, "09:40"))})

	delays := calc.RouteDelays("A", "B", 20, anns)

	require.Len(t, delays, 1)
	assert.Equal(t, 40, delays[0].DelayMinutes)
	// Riding the scheduled train itself reports no alternative.
	assert.Empty(t, delays[0].AlternativeInfo)
	assert.Equal(t, "2026-03-14T08:50:00+01:00", delays[0].DepartureActual)
}

func TestRouteDelays_DelayedTrainOvertakenByLaterOne(t *testing.T) {
	calc := delay.NewCalculator(nil, nil)

	var anns []delay.Announcement
	// T1 is badly delayed: planned arrival 09:00, actual 10:30.
	anns = append(anns, journeyAnns(t, "T1", "08:30", "09:00",
		nil,
		[]func(*delay.Announcement){withActual(at(t, "10:30"))})...)
	// T2 departs later but arrives 09:45, before T1.
	anns = append(anns, journeyAnns(t, "T2", "09:10", "09:40",
		nil,
		[]func(*delay.Announcement){withActual(at(t, "09:45"))})...)

	delays := calc.RouteDelays("A", "B", 20, anns)

	require.Len(t, delays, 1)
	assert.Equal(t, "T1", delays[0].TrainNumber)
	assert.Equal(t, 45, delays[0].DelayMinutes)
	assert.Equal(t, "Train T1 delayed - took T2 instead", delays[0].AlternativeInfo)
}

func TestRouteDelays_GreedyScanStopsAtGoodEnoughArrival(t *testing.T) {
	calc := delay.NewCalculator(nil, nil)

	var anns []delay.Announcement
	// T1 cancelled.
	anns = append(anns, journeyAnns(t, "T1", "08:30", "09:00",
		nil,
		[]func(*delay.Announcement){withCanceled()})...)
	// T2 arrives 09:10, within the 20 minute threshold of T1's planned 09:00.
	anns = append(anns, journeyAnns(t, "T2", "09:05", "09:08",
		nil,
		[]func(*delay.Announcement){withActual(at(t, "09:10"))})...)
	// T3 would be even earlier, but the scan has already stopped.
	anns = append(anns, journeyAnns(t, "T3", "09:06", "09:07",
		nil,
		[]func(*delay.Announcement){withActual(at(t, "09:05"))})...)

	delays := calc.RouteDelays("A", "B", 20, anns)

	// T1's effective delay against T2 is 10 minutes, below threshold: no row.
	assert.Empty(t, delays)
}

func TestRouteDelays_CancelledWithNoSubstituteDataExcluded(t *testing.T) {
	calc := delay.NewCalculator(nil, nil)

	var anns []delay.Announcement
	anns = append(anns, journeyAnns(t, "T1", "08:30", "09:00",
		nil,
		[]func(*delay.Announcement){withCanceled()})...)
	// The only later train is also cancelled, with no data.
	anns = append(anns, journeyAnns(t, "T2", "09:10", "09:40",
		nil,
		[]func(*delay.Announcement){withCanceled()})...)

	assert.Empty(t, calc.RouteDelays("A", "B", 20, anns))
}

func TestRouteDelays_TrainNotServingBothStationsDropped(t *testing.T) {
	calc := delay.NewCalculator(nil, nil)

	anns := []delay.Announcement{
		announcement("T1", delay.ActivityDeparture, "A", at(t, "08:30")),
		announcement("T1", delay.ActivityArrival, "C", at(t, "09:00"), withActual(at(t, "10:00"))),
	}

	assert.Empty(t, calc.RouteDelays("A", "B", 20, anns))
}

func TestRouteDelays_ArrivalBeforeDepartureDropped(t *testing.T) {
	calc := delay.NewCalculator(nil, nil)

	// Inconsistent upstream data: the recorded B arrival precedes the A departure.
	anns := []delay.Announcement{
		announcement("T1", delay.ActivityDeparture, "A", at(t, "09:00")),
		announcement("T1", delay.ActivityArrival, "B", at(t, "08:30"), withActual(at(t, "10:30"))),
	}

	assert.Empty(t, calc.RouteDelays("A", "B", 20, anns))
}

func TestRouteDelays_FastTrainExcluded(t *testing.T) {
	calc := delay.NewCalculator(nil, nil)

	anns := journeyAnns(t, "99x", "08:30", "09:00",
		nil,
		[]func(*delay.Announcement){withActual(at(t, "11:00"))})

	assert.Empty(t, calc.RouteDelays("A", "B", 20, anns))
}

func TestRouteDelays_SubstituteReasonFallback(t *testing.T) {
	priorities := delay.BuildPriorities([]delay.ReasonCode{
		{Code: "CANCEL", Level3Description: "Inställt"},
	})
	calc := delay.NewCalculator(nil, priorities)

	var anns []delay.Announcement
	// T1 cancelled without any annotations of its own, but with an
	// informational note.
	anns = append(anns, journeyAnns(t, "T1", "08:30", "09:00",
		[]func(*delay.Announcement){withInformation("Se nästa avgång")},
		[]func(*delay.Announcement){withCanceled()})...)
	// The substitute carries the deviation.
	anns = append(anns, journeyAnns(t, "T2", "09:10", "09:30",
		[]func(*delay.Announcement){withDeviation("CANCEL", "Inställt tåg på sträckan")},
		[]func(*delay.Announcement){withActual(at(t, "09:45"))})...)

	delays := calc.RouteDelays("A", "B", 20, anns)

	require.Len(t, delays, 1)
	assert.Equal(t, "Inställt tåg på sträckan; Se nästa avgång", delays[0].DelayReason)
}

func TestRouteDelays_OwnReasonPreferredOverSubstitute(t *testing.T) {
	calc := delay.NewCalculator(nil, nil)

	var anns []delay.Announcement
	anns = append(anns, journeyAnns(t, "T1", "08:30", "09:00",
		[]func(*delay.Announcement){withDeviation("", "Fordonsfel på T1")},
		[]func(*delay.Announcement){withCanceled()})...)
	anns = append(anns, journeyAnns(t, "T2", "09:10", "09:30",
		[]func(*delay.Announcement){withDeviation("", "Eget fel på T2")},
		[]func(*delay.Announcement){withActual(at(t, "09:45"))})...)

	delays := calc.RouteDelays("A", "B", 20, anns)

	require.Len(t, delays, 1)
	assert.Equal(t, "Fordonsfel på T1", delays[0].DelayReason)
}

func TestRouteDelays_JourneyUsesDirectoryNames(t *testing.T) {
	lookup := directory(map[string]string{"A": "Alingsås", "B": "Borås C"})
	calc := delay.NewCalculator(lookup, nil)

	anns := journeyAnns(t, "T1", "08:30", "09:00",
		[]func(*delay.Announcement){withProduct("SJ Regional")},
		[]func(*delay.Announcement){withActual(at(t, "09:40"))})

	delays := calc.RouteDelays("A", "B", 20, anns)

	require.Len(t, delays, 1)
	assert.Equal(t, "Alingsås → Borås C", delays[0].Journey)
	assert.Equal(t, "SJ Regional", delays[0].TrainCompany)
}

func TestRouteDelays_SortedDescending(t *testing.T) {
	calc := delay.NewCalculator(nil, nil)

	var anns []delay.Announcement
	anns = append(anns, journeyAnns(t, "T1", "07:00", "07:30",
		nil, []func(*delay.Announcement){withActual(at(t, "07:55"))})...) // 25
	anns = append(anns, journeyAnns(t, "T2", "08:00", "08:30",
		nil, []func(*delay.Announcement){withActual(at(t, "09:40"))})...) // 70
	anns = append(anns, journeyAnns(t, "T3", "10:00", "10:30",
		nil, []func(*delay.Announcement){withActual(at(t, "11:10"))})...) // 40

	delays := calc.RouteDelays("A", "B", 20, anns)

	require.Len(t, delays, 3)
	assert.Equal(t, []string{"T2", "T3", "T1"}, []string{
		delays[0].TrainNumber, delays[1].TrainNumber, delays[2].TrainNumber,
	})
}

func TestRouteDelays_EmptyInput(t *testing.T) {
	calc := delay.NewCalculator(nil, nil)

	delays := calc.RouteDelays("A", "B", 20, nil)

	assert.NotNil(t, delays)
	assert.Empty(t, delays)
}
