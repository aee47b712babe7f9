package delay

import (
	"sort"
	"time"
)

// routeTiming is one candidate journey between the queried origin and
// destination, reduced to the fields the effective-delay scan needs.
type routeTiming struct {
	key              InstanceKey
	trainNumber      string
	plannedDeparture time.Time
	actualDeparture  time.Time // zero when unreported
	plannedArrival   time.Time
	actualArrival    time.Time // zero when unreported
	canceled         bool
	instance         *TrainServiceInstance
	originDeparture  *Announcement
}

// RouteDelays computes effective delays for an origin-to-destination query.
// The effective delay models rider behavior: when the scheduled train is
// late or cancelled the rider boards the next train that still reaches the
// destination, so the delay is measured against the best available arrival
// rather than the original train's own.
//
// Results are sorted by effective delay descending; ties keep candidate
// order. An instance that is cancelled with no usable substitute anywhere
// later produces no output.
func (c *Calculator) RouteDelays(originSignature, destSignature string, minDelayMinutes int, announcements []Announcement) []StationDelay {
	var relevant []Announcement
	for _, ann := range announcements {
		if ann.LocationSignature == originSignature || ann.LocationSignature == destSignature {
			relevant = append(relevant, ann)
		}
	}

	timings := c.buildRouteTimings(originSignature, destSignature, relevant)

	// Candidate search order: planned origin departure ascending.
	sort.SliceStable(timings, func(i, j int) bool {
		return timings[i].plannedDeparture.Before(timings[j].plannedDeparture)
	})

	originName := c.stationName(originSignature)
	destName := c.stationName(destSignature)
	journey := journeyLabel(originName, destName)

	delays := []StationDelay{}
	for i := range timings {
		train := &timings[i]

		// Without arrival data there is nothing to measure, unless the train
		// was cancelled, in which case a substitute may still produce a row.
		if train.actualArrival.IsZero() && !train.canceled {
			continue
		}

		bestArrival, bestTrain := c.scanForBestArrival(timings, i, train, minDelayMinutes)
		if bestTrain == nil {
			continue
		}

		effectiveDelay := wholeMinutes(train.plannedArrival, bestArrival)
		if effectiveDelay < minDelayMinutes {
			continue
		}

		substituted := bestTrain.key != train.key

		reason := c.resolveRouteReason(train, bestTrain, substituted)

		var alternativeInfo string
		if substituted {
			if train.canceled {
				alternativeInfo = "Train " + train.trainNumber + " cancelled - took " + bestTrain.trainNumber + " instead"
			} else {
				alternativeInfo = "Train " + train.trainNumber + " delayed - took " + bestTrain.trainNumber + " instead"
			}
		}

		// Actual fields reflect the train the rider actually took.
		actualDeparture := bestTrain.actualDeparture
		if actualDeparture.IsZero() {
			actualDeparture = bestTrain.plannedDeparture
		}

		delays = append(delays, StationDelay{
			TrainNumber:      train.trainNumber,
			TrainCompany:     operatorName(train.originDeparture.Products),
			Journey:          journey,
			DelayMinutes:     effectiveDelay,
			DeparturePlanned: isoTime(train.plannedDeparture),
			DepartureActual:  isoTime(actualDeparture),
			ArrivalPlanned:   isoTime(train.plannedArrival),
			ArrivalActual:    isoTime(bestArrival),
			DelayReason:      reason,
			AlternativeInfo:  alternativeInfo,
		})
	}

	sort.SliceStable(delays, func(i, j int) bool {
		return delays[i].DelayMinutes > delays[j].DelayMinutes
	})
	return delays
}

// buildRouteTimings groups the announcements and keeps instances that stop
// at both endpoints in a consistent order: origin departure before
// destination arrival, and not a fast train.
func (c *Calculator) buildRouteTimings(originSignature, destSignature string, announcements []Announcement) []routeTiming {
	var timings []routeTiming

	for _, inst := range groupAnnouncements(announcements) {
		var originDepartures, destArrivals []Announcement
		for _, dep := range inst.Departures {
			if dep.LocationSignature == originSignature {
				originDepartures = append(originDepartures, dep)
			}
		}
		for _, arr := range inst.Arrivals {
			if arr.LocationSignature == destSignature {
				destArrivals = append(destArrivals, arr)
			}
		}
		if len(originDepartures) == 0 || len(destArrivals) == 0 {
			continue
		}

		departure := earliestDeparture(originDepartures)
		arrival := latestArrival(destArrivals)

		// Out-of-sequence data: the recorded arrival belongs to an earlier
		// leg than the recorded departure.
		if arrival.AdvertisedTime.Before(departure.AdvertisedTime) {
			continue
		}

		if isFastTrain(departure.TrainIdent) {
			continue
		}

		timings = append(timings, routeTiming{
			key:              inst.Key,
			trainNumber:      departure.TrainIdent,
			plannedDeparture: departure.AdvertisedTime,
			actualDeparture:  departure.BestKnownTime(),
			plannedArrival:   arrival.AdvertisedTime,
			actualArrival:    arrival.BestKnownTime(),
			canceled:         arrival.Canceled,
			instance:         inst,
			originDeparture:  departure,
		})
	}

	return timings
}

// scanForBestArrival walks forward from the train itself through later
// candidates, tracking the earliest actual arrival seen. The scan stops
// early once a candidate arrives within minDelayMinutes of the train's
// planned arrival: good enough for the rider, no need to search further.
// That greedy cut-off can in theory miss an even earlier arrival past the
// stop point, which is accepted behavior.
func (c *Calculator) scanForBestArrival(timings []routeTiming, start int, train *routeTiming, minDelayMinutes int) (time.Time, *routeTiming) {
	var bestArrival time.Time
	var bestTrain *routeTiming

	for j := start; j < len(timings); j++ {
		candidate := &timings[j]

		if candidate.canceled {
			continue
		}
		if candidate.actualArrival.IsZero() {
			continue
		}
		if candidate.plannedDeparture.Before(train.plannedDeparture) {
			continue
		}

		if bestTrain == nil || candidate.actualArrival.Before(bestArrival) {
			bestArrival = candidate.actualArrival
			bestTrain = candidate
		}

		if wholeMinutes(train.plannedArrival, candidate.actualArrival) < minDelayMinutes {
			break
		}
	}

	return bestArrival, bestTrain
}

// resolveRouteReason prefers the original train's own deviations. When they
// say nothing and a different train was substituted, the substitute's
// deviations explain what the rider experienced. Informational notes always
// come from the original train.
func (c *Calculator) resolveRouteReason(train, bestTrain *routeTiming, substituted bool) string {
	var deviations, information []Annotation
	for _, ann := range train.instance.Announcements() {
		deviations = append(deviations, ann.Deviations...)
		information = append(information, ann.OtherInformation...)
	}

	primary := resolveDeviations(deviations, c.priorities)
	if primary == "" && substituted {
		var substituteDeviations []Annotation
		for _, ann := range bestTrain.instance.Announcements() {
			substituteDeviations = append(substituteDeviations, ann.Deviations...)
		}
		primary = resolveDeviations(substituteDeviations, c.priorities)
	}

	return appendInformation(primary, information)
}
