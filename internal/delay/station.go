package delay

import "sort"

// StationDelays computes arrival delays for trains calling at one station.
// Only announcements at stationSignature participate. A train qualifies when
// its resolved arrival is not cancelled, it has actual or estimated arrival
// data, it is not a fast train, and the truncated delay reaches
// minDelayMinutes. The result is sorted by delay descending; ties keep input
// order. An empty result is a valid outcome, not an error.
func (c *Calculator) StationDelays(stationSignature string, minDelayMinutes int, announcements []Announcement) []StationDelay {
	var local []Announcement
	for _, ann := range announcements {
		if ann.LocationSignature == stationSignature {
			local = append(local, ann)
		}
	}

	delays := []StationDelay{}
	for _, inst := range groupAnnouncements(local) {
		departure := earliestDeparture(inst.Departures)
		arrival := latestArrival(inst.Arrivals)

		if isFastTrain(departure.TrainIdent) {
			continue
		}
		if arrival.Canceled {
			continue
		}

		actualArrival := arrival.BestKnownTime()
		if actualArrival.IsZero() {
			continue
		}

		delayMinutes := wholeMinutes(arrival.AdvertisedTime, actualArrival)
		if delayMinutes < minDelayMinutes {
			continue
		}

		var deviations, information []Annotation
		for _, ann := range inst.Announcements() {
			deviations = append(deviations, ann.Deviations...)
			information = append(information, ann.OtherInformation...)
		}
		reason := ResolveReason(deviations, information, c.priorities)

		from := c.resolveEndpoint(departure.FromLocations)
		to := c.resolveEndpoint(arrival.ToLocations)

		actualDeparture := departure.BestKnownTime()
		if actualDeparture.IsZero() {
			actualDeparture = departure.AdvertisedTime
		}

		delays = append(delays, StationDelay{
			TrainNumber:      departure.TrainIdent,
			TrainCompany:     operatorName(departure.Products),
			Journey:          journeyLabel(from, to),
			DelayMinutes:     delayMinutes,
			DeparturePlanned: isoTime(departure.AdvertisedTime),
			DepartureActual:  isoTime(actualDeparture),
			ArrivalPlanned:   isoTime(arrival.AdvertisedTime),
			ArrivalActual:    isoTime(actualArrival),
			DelayReason:      reason,
		})
	}

	sort.SliceStable(delays, func(i, j int) bool {
		return delays[i].DelayMinutes > delays[j].DelayMinutes
	})
	return delays
}
