package delay

// groupAnnouncements partitions announcements into per-train-per-service-day
// instances. The result order follows first appearance in the input, which
// keeps downstream tie-breaking stable across identical calls.
//
// Instances without at least one departure and one arrival are dropped: an
// incomplete journey has no delay to compute.
func groupAnnouncements(announcements []Announcement) []*TrainServiceInstance {
	instances := make(map[InstanceKey]*TrainServiceInstance)
	var order []InstanceKey

	for _, ann := range announcements {
		key := instanceKeyFor(ann)
		inst, ok := instances[key]
		if !ok {
			inst = &TrainServiceInstance{Key: key}
			instances[key] = inst
			order = append(order, key)
		}

		switch ann.Activity {
		case ActivityDeparture:
			inst.Departures = append(inst.Departures, ann)
		case ActivityArrival:
			inst.Arrivals = append(inst.Arrivals, ann)
		}
	}

	complete := make([]*TrainServiceInstance, 0, len(order))
	for _, key := range order {
		inst := instances[key]
		if len(inst.Departures) == 0 || len(inst.Arrivals) == 0 {
			continue
		}
		complete = append(complete, inst)
	}
	return complete
}

// instanceKeyFor derives the grouping key for an announcement. The service
// date is the calendar date of the advertised time in its own location.
func instanceKeyFor(ann Announcement) InstanceKey {
	opNumber := ann.OperationalNumber
	if opNumber == "" {
		opNumber = unknownOperationalNumber
	}
	return InstanceKey{
		TrainIdent:        ann.TrainIdent,
		OperationalNumber: opNumber,
		ServiceDate:       ann.AdvertisedTime.Format("2006-01-02"),
	}
}

// earliestDeparture picks the departure with the earliest advertised time.
// Duplicate or updated records can leave several departures in one instance;
// the earliest one marks the start of the journey span.
func earliestDeparture(departures []Announcement) *Announcement {
	var best *Announcement
	for i := range departures {
		if best == nil || departures[i].AdvertisedTime.Before(best.AdvertisedTime) {
			best = &departures[i]
		}
	}
	return best
}

// latestArrival picks the arrival with the latest advertised time, the most
// downstream stop recorded for the instance. Together with earliestDeparture
// this approximates the full journey span even for turnback services that
// depart the same station more than once.
func latestArrival(arrivals []Announcement) *Announcement {
	var best *Announcement
	for i := range arrivals {
		if best == nil || arrivals[i].AdvertisedTime.After(best.AdvertisedTime) {
			best = &arrivals[i]
		}
	}
	return best
}
