package delay

import "strings"

// Severity tiers for disruption reason codes, highest wins when a journey
// reports several causes.
const (
	// TierUnclassified is the default for codes the keyword heuristics
	// cannot place, and for annotations without a code.
	TierUnclassified = 1

	// TierInformational covers advisory notes: next departure, short train,
	// extra train and the like.
	TierInformational = 2

	// TierServiceChange covers platform/track changes, rerouting and bus
	// substitution.
	TierServiceChange = 3

	// TierDisruption covers delays and faults: vehicle, signal, switch,
	// power, track, illness, obstruction.
	TierDisruption = 4

	// TierCancellation covers withdrawn services.
	TierCancellation = 5
)

// tierKeywords maps each tier to the (lowercased) substrings that place a
// reason description in it. Checked from the most severe tier down; the
// first tier with a match wins. Keywords are Swedish as published by the
// catalog, with English fallbacks for the handful of bilingual entries.
var tierKeywords = []struct {
	tier  int
	words []string
}{
	{TierCancellation, []string{
		"inställt", "cancelled", "ställs in", "framställt",
	}},
	{TierDisruption, []string{
		"försenat", "delayed", "tågkö", "fordonsfel", "obeh", "sjukdom",
		"växelfel", "signalfel", "elfel", "brofel", "spårfel", "urspårat",
	}},
	{TierServiceChange, []string{
		"spårändrat", "plattform", "buss ersätter", "buss", "ändrad väg", "extrabuss",
	}},
	{TierInformational, []string{
		"nästa avgång", "kort tåg", "direkttåg", "extratåg", "dubbeltåg", "prel",
	}},
}

// Priority is the classification of one reason code.
type Priority struct {
	Tier        int
	Description string
}

// Priorities is an immutable code to classification snapshot built once per
// catalog refresh. Computations hold the snapshot they started with, so a
// concurrent rebuild never changes results mid-flight.
type Priorities map[string]Priority

// TierFor returns the severity tier for a code, TierUnclassified for codes
// missing from the snapshot or when the snapshot is nil.
func (p Priorities) TierFor(code string) int {
	if pr, ok := p[code]; ok {
		return pr.Tier
	}
	return TierUnclassified
}

// BuildPriorities classifies a reason-code catalog into severity tiers by
// keyword matching on the most specific description. An empty or nil catalog
// yields an empty snapshot; every lookup then degrades to TierUnclassified.
func BuildPriorities(catalog []ReasonCode) Priorities {
	priorities := make(Priorities, len(catalog))
	for _, rc := range catalog {
		desc := strings.ToLower(rc.Description())

		tier := TierUnclassified
		for _, tk := range tierKeywords {
			if containsAny(desc, tk.words) {
				tier = tk.tier
				break
			}
		}

		priorities[rc.Code] = Priority{
			Tier:        tier,
			Description: rc.Description(),
		}
	}
	return priorities
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ResolveReason builds the display reason for a train instance from its
// deviation and informational annotations, using the priority snapshot to
// keep only the most severe causes. It returns UnknownReason when there is
// nothing to report at all.
func ResolveReason(deviations, information []Annotation, priorities Priorities) string {
	reason := resolveDeviations(deviations, priorities)
	return appendInformation(reason, information)
}

// resolveDeviations deduplicates deviation descriptions (first occurrence
// wins) and keeps only those at the highest severity tier present. When
// nothing is classified above TierUnclassified the ranking adds no value, so
// every deduplicated description is kept instead. Returns "" when no
// deviation carries a description.
func resolveDeviations(deviations []Annotation, priorities Priorities) string {
	type ranked struct {
		description string
		tier        int
	}

	seen := make(map[string]struct{})
	var items []ranked
	maxTier := TierUnclassified

	for _, dev := range deviations {
		desc := strings.TrimSpace(dev.Description)
		if desc == "" {
			continue
		}
		if _, dup := seen[desc]; dup {
			continue
		}
		seen[desc] = struct{}{}

		tier := TierUnclassified
		if dev.Code != "" {
			tier = priorities.TierFor(dev.Code)
		}
		if tier > maxTier {
			maxTier = tier
		}
		items = append(items, ranked{description: desc, tier: tier})
	}

	if len(items) == 0 {
		return ""
	}

	var descriptions []string
	for _, it := range items {
		if maxTier == TierUnclassified || it.tier == maxTier {
			descriptions = append(descriptions, it.description)
		}
	}
	return strings.Join(descriptions, "; ")
}

// appendInformation appends deduplicated informational descriptions after
// the primary reason. Informational notes are never filtered by tier, only
// appended. An empty primary with no information yields UnknownReason.
func appendInformation(primary string, information []Annotation) string {
	seen := make(map[string]struct{})
	var notes []string
	for _, info := range information {
		desc := strings.TrimSpace(info.Description)
		if desc == "" {
			continue
		}
		if _, dup := seen[desc]; dup {
			continue
		}
		seen[desc] = struct{}{}
		notes = append(notes, desc)
	}

	switch {
	case primary == "" && len(notes) == 0:
		return UnknownReason
	case primary == "":
		return strings.Join(notes, "; ")
	case len(notes) == 0:
		return primary
	default:
		return primary + "; " + strings.Join(notes, "; ")
	}
}
