package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/secunit404/railpulse/internal/delay"
)

// Report describes one monitor run to be delivered as a webhook message.
type Report struct {
	// MonitorName titles the message.
	MonitorName string

	// Subject describes what was watched, e.g. "Göteborg C" or
	// "Göteborg C → Stockholm Central".
	Subject string

	// Threshold is the minimum delay in whole minutes the run reported.
	Threshold int

	// Delays are the reported trains, already sorted by severity.
	Delays []delay.StationDelay

	// RanAt is when the run happened.
	RanAt time.Time
}

// BuildMessage renders a report as a webhook message. Trains are laid out
// one embed field each, split across embeds at Discord's field limit; trains
// that would overflow the embed limit are summarized in the footer.
func BuildMessage(report Report) Message {
	title := fmt.Sprintf("%s: %d delayed train(s) at %s", report.MonitorName, len(report.Delays), report.Subject)

	fields := make([]EmbedField, 0, len(report.Delays))
	for _, d := range report.Delays {
		fields = append(fields, EmbedField{
			Name:  fmt.Sprintf("Train %s · +%d min", d.TrainNumber, d.DelayMinutes),
			Value: truncateValue(formatDelay(d)),
		})
	}

	color := severityColor(report.Delays)
	description := fmt.Sprintf("Delays of %d minutes or more on %s", report.Threshold, report.RanAt.Format("2006-01-02"))

	var embeds []Embed
	for len(fields) > 0 && len(embeds) < MaxEmbedsPerMessage {
		n := len(fields)
		if n > MaxFieldsPerEmbed {
			n = MaxFieldsPerEmbed
		}
		embed := Embed{
			Color:     color,
			Fields:    fields[:n],
			Timestamp: report.RanAt.UTC().Format(time.RFC3339),
		}
		if len(embeds) == 0 {
			embed.Title = title
			embed.Description = description
		}
		embeds = append(embeds, embed)
		fields = fields[n:]
	}

	if len(fields) > 0 {
		last := &embeds[len(embeds)-1]
		last.Footer = &EmbedFooter{Text: fmt.Sprintf("and %d more delayed train(s)", len(fields))}
	}

	return Message{Username: "RailPulse", Embeds: embeds}
}

// formatDelay renders one delayed train as an embed field value.
func formatDelay(d delay.StationDelay) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", d.Journey)
	if d.TrainCompany != "" {
		fmt.Fprintf(&b, "Operator: %s\n", d.TrainCompany)
	}
	fmt.Fprintf(&b, "Departure: %s", clockOf(d.DeparturePlanned))
	if d.DepartureActual != "" && d.DepartureActual != d.DeparturePlanned {
		fmt.Fprintf(&b, " → %s", clockOf(d.DepartureActual))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Arrival: %s", clockOf(d.ArrivalPlanned))
	if d.ArrivalActual != "" && d.ArrivalActual != d.ArrivalPlanned {
		fmt.Fprintf(&b, " → %s", clockOf(d.ArrivalActual))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Reason: %s", d.DelayReason)
	if d.AlternativeInfo != "" {
		fmt.Fprintf(&b, "\n%s", d.AlternativeInfo)
	}

	return b.String()
}

// clockOf extracts HH:MM from an RFC3339 timestamp, falling back to the raw
// value when it does not parse.
func clockOf(value string) string {
	if value == "" {
		return "-"
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.Format("15:04")
	}
	return value
}

// truncateValue caps a field value at Discord's limit.
func truncateValue(value string) string {
	if len(value) <= MaxFieldValueLength {
		return value
	}
	return value[:MaxFieldValueLength-3] + "..."
}

// severityColor grades the report by its worst delay.
func severityColor(delays []delay.StationDelay) int {
	worst := 0
	for _, d := range delays {
		if d.DelayMinutes > worst {
			worst = d.DelayMinutes
		}
	}
	switch {
	case worst >= 60:
		return colorRed
	case worst >= 30:
		return colorOrange
	default:
		return colorYellow
	}
}
