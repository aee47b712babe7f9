package delay

import "strings"

// busReplacementMarker appears in deviation texts when a train is replaced
// by a bus, e.g. "Buss ersätter tåg".
const busReplacementMarker = "buss ersätter"

// IsBusReplacement reports whether the delay's reason or alternative info
// mentions a replacement bus.
func IsBusReplacement(d StationDelay) bool {
	if strings.Contains(strings.ToLower(d.DelayReason), busReplacementMarker) {
		return true
	}
	return strings.Contains(strings.ToLower(d.AlternativeInfo), busReplacementMarker)
}

// WithoutBusReplacements filters out trains substituted by replacement buses.
// The input order is preserved.
func WithoutBusReplacements(delays []StationDelay) []StationDelay {
	kept := make([]StationDelay, 0, len(delays))
	for _, d := range delays {
		if !IsBusReplacement(d) {
			kept = append(kept, d)
		}
	}
	return kept
}
