package discord_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secunit404/railpulse/internal/delay"
	"github.com/secunit404/railpulse/internal/notify/discord"
)

func sampleDelay(train string, minutes int) delay.StationDelay {
	return delay.StationDelay{
		TrainNumber:      train,
		TrainCompany:     "SJ Regional",
		Journey:          "Göteborg C → Stockholm Central",
		DelayMinutes:     minutes,
		DeparturePlanned: "2026-03-14T08:00:00+01:00",
		DepartureActual:  "2026-03-14T08:20:00+01:00",
		ArrivalPlanned:   "2026-03-14T11:00:00+01:00",
		ArrivalActual:    "2026-03-14T11:25:00+01:00",
		DelayReason:      "Signalfel",
	}
}

func sampleReport(delays ...delay.StationDelay) discord.Report {
	return discord.Report{
		MonitorName: "Morning commute",
		Subject:     "Göteborg C",
		Threshold:   10,
		Delays:      delays,
		RanAt:       time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC),
	}
}

func TestBuildMessage(t *testing.T) {
	msg := discord.BuildMessage(sampleReport(sampleDelay("429", 25)))

	require.Len(t, msg.Embeds, 1)
	embed := msg.Embeds[0]
	assert.Equal(t, "Morning commute: 1 delayed train(s) at Göteborg C", embed.Title)
	assert.Contains(t, embed.Description, "10 minutes or more")
	assert.Contains(t, embed.Description, "2026-03-14")

	require.Len(t, embed.Fields, 1)
	field := embed.Fields[0]
	assert.Equal(t, "Train 429 · +25 min", field.Name)
	assert.Contains(t, field.Value, "Göteborg C → Stockholm Central")
	assert.Contains(t, field.Value, "Operator: SJ Regional")
	assert.Contains(t, field.Value, "Departure: 08:00 → 08:20")
	assert.Contains(t, field.Value, "Arrival: 11:00 → 11:25")
	assert.Contains(t, field.Value, "Reason: Signalfel")
}

func TestBuildMessage_AlternativeInfo(t *testing.T) {
	d := sampleDelay("429", 35)
	d.AlternativeInfo = "Train 429 cancelled - took 433 instead"

	msg := discord.BuildMessage(sampleReport(d))

	require.Len(t, msg.Embeds, 1)
	assert.Contains(t, msg.Embeds[0].Fields[0].Value, "Train 429 cancelled - took 433 instead")
}

func TestBuildMessage_SeverityColors(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		color   int
	}{
		{"minor delay", 15, 0xFFC107},
		{"major delay", 45, 0xFF9800},
		{"severe delay", 90, 0xF44336},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := discord.BuildMessage(sampleReport(sampleDelay("429", tt.minutes)))
			require.Len(t, msg.Embeds, 1)
			assert.Equal(t, tt.color, msg.Embeds[0].Color)
		})
	}
}

func TestBuildMessage_TruncatesLongFieldValues(t *testing.T) {
	d := sampleDelay("429", 25)
	d.DelayReason = strings.Repeat("Mycket långt orsaksmeddelande. ", 80)

	msg := discord.BuildMessage(sampleReport(d))

	require.Len(t, msg.Embeds, 1)
	value := msg.Embeds[0].Fields[0].Value
	assert.LessOrEqual(t, len(value), discord.MaxFieldValueLength)
	assert.True(t, strings.HasSuffix(value, "..."))
}

func TestBuildMessage_SplitsAcrossEmbeds(t *testing.T) {
	var delays []delay.StationDelay
	for i := 0; i < discord.MaxFieldsPerEmbed+3; i++ {
		delays = append(delays, sampleDelay(fmt.Sprintf("%d", 400+i), 15))
	}

	msg := discord.BuildMessage(sampleReport(delays...))

	require.Len(t, msg.Embeds, 2)
	assert.Len(t, msg.Embeds[0].Fields, discord.MaxFieldsPerEmbed)
	assert.Len(t, msg.Embeds[1].Fields, 3)
	// Only the first embed carries the title.
	assert.NotEmpty(t, msg.Embeds[0].Title)
	assert.Empty(t, msg.Embeds[1].Title)
}

func TestBuildMessage_OverflowSummarizedInFooter(t *testing.T) {
	var delays []delay.StationDelay
	total := discord.MaxFieldsPerEmbed*discord.MaxEmbedsPerMessage + 7
	for i := 0; i < total; i++ {
		delays = append(delays, sampleDelay(fmt.Sprintf("%d", i), 15))
	}

	msg := discord.BuildMessage(sampleReport(delays...))

	require.Len(t, msg.Embeds, discord.MaxEmbedsPerMessage)
	last := msg.Embeds[len(msg.Embeds)-1]
	require.NotNil(t, last.Footer)
	assert.Equal(t, "and 7 more delayed train(s)", last.Footer.Text)
}
