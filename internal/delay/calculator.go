package delay

import "strings"

// fastTrainSuffix marks a service class outside this deployment's rider
// population; matching train identifiers are excluded from all output.
const fastTrainSuffix = "x"

// Calculator computes delay lists from announcement batches. It holds only
// immutable per-query state: a station name lookup and a reason-priority
// snapshot. A Calculator is safe for concurrent use as long as both stay
// unchanged for the lifetime of each call, which is the caller's contract.
type Calculator struct {
	lookupName NameLookup
	priorities Priorities
}

// NewCalculator creates a Calculator. A nil lookup never resolves a name and
// a nil priorities snapshot classifies every code as TierUnclassified; both
// degrade output quality without failing.
func NewCalculator(lookup NameLookup, priorities Priorities) *Calculator {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	return &Calculator{lookupName: lookup, priorities: priorities}
}

// isFastTrain reports whether the train identifier carries the excluded
// service-class suffix, case-insensitively.
func isFastTrain(trainIdent string) bool {
	return strings.HasSuffix(strings.ToLower(trainIdent), fastTrainSuffix)
}

// resolveEndpoint turns a from/to location hint list into a display name.
// The priority-1 hint is the primary endpoint. Its value is looked up in the
// station directory first; on a miss the raw value is the best available,
// it is usually already a friendly name when longer than a signature.
func (c *Calculator) resolveEndpoint(refs []LocationRef) string {
	for _, ref := range refs {
		if ref.Priority != 1 || ref.Name == "" {
			continue
		}
		if name, ok := c.lookupName(ref.Name); ok {
			return name
		}
		return ref.Name
	}
	return "Unknown"
}

// stationName resolves a signature through the directory, falling back to
// the signature itself.
func (c *Calculator) stationName(signature string) string {
	if name, ok := c.lookupName(signature); ok {
		return name
	}
	return signature
}

// operatorName extracts the operator from product descriptions; the first
// entry carries the company name.
func operatorName(products []Annotation) string {
	if len(products) == 0 {
		return ""
	}
	return products[0].Description
}

// journeyLabel renders the "Origin → Destination" display string.
func journeyLabel(from, to string) string {
	return from + " → " + to
}
