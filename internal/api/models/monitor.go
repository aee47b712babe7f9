package models

// MonitorRunMode selects how a monitor is scheduled.
type MonitorRunMode string

const (
	// RunModeDaily runs the monitor every day at its scheduled time.
	RunModeDaily MonitorRunMode = "daily"

	// RunModeOneTime runs the monitor once for a fixed date range, then
	// deactivates it.
	RunModeOneTime MonitorRunMode = "one-time"
)

// Monitor represents a configured delay monitor.
type Monitor struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	StationSignature     string         `json:"stationSignature"`
	StationName          string         `json:"stationName"`
	DestinationSignature *string        `json:"destinationSignature,omitempty"`
	DestinationName      *string        `json:"destinationName,omitempty"`
	RunMode              MonitorRunMode `json:"runMode"`
	ScheduleTime         string         `json:"scheduleTime,omitempty"`
	ScheduleDate         *Timestamp     `json:"scheduleDate,omitempty"`
	EndDate              *Timestamp     `json:"endDate,omitempty"`
	Timezone             string         `json:"timezone"`
	DelayThreshold       int            `json:"delayThreshold"`
	HideBusReplacements  bool           `json:"hideBusReplacements"`
	DiscordWebhookURL    string         `json:"discordWebhookUrl"`
	Active               bool           `json:"active"`
	LastRunAt            *Timestamp     `json:"lastRunAt,omitempty"`
	LastRunStatus        string         `json:"lastRunStatus,omitempty"`
	LastRunDelayCount    *int           `json:"lastRunDelayCount,omitempty"`
	CreatedAt            Timestamp      `json:"createdAt"`
	UpdatedAt            Timestamp      `json:"updatedAt"`
}

// MonitorCreateRequest is the payload for creating a monitor.
type MonitorCreateRequest struct {
	Name                 string         `json:"name"`
	StationSignature     string         `json:"stationSignature"`
	DestinationSignature *string        `json:"destinationSignature,omitempty"`
	RunMode              MonitorRunMode `json:"runMode"`
	ScheduleTime         string         `json:"scheduleTime,omitempty"`
	ScheduleDate         *Timestamp     `json:"scheduleDate,omitempty"`
	EndDate              *Timestamp     `json:"endDate,omitempty"`
	Timezone             string         `json:"timezone,omitempty"`
	DelayThreshold       *int           `json:"delayThreshold,omitempty"`
	HideBusReplacements  *bool          `json:"hideBusReplacements,omitempty"`
	DiscordWebhookURL    string         `json:"discordWebhookUrl"`
}

// MonitorUpdateRequest is the payload for updating a monitor. All fields are
// optional; absent fields keep their current value.
type MonitorUpdateRequest struct {
	Name                 *string         `json:"name,omitempty"`
	StationSignature     *string         `json:"stationSignature,omitempty"`
	DestinationSignature *string         `json:"destinationSignature,omitempty"`
	RunMode              *MonitorRunMode `json:"runMode,omitempty"`
	ScheduleTime         *string         `json:"scheduleTime,omitempty"`
	ScheduleDate         *Timestamp      `json:"scheduleDate,omitempty"`
	EndDate              *Timestamp      `json:"endDate,omitempty"`
	Timezone             *string         `json:"timezone,omitempty"`
	DelayThreshold       *int            `json:"delayThreshold,omitempty"`
	HideBusReplacements  *bool           `json:"hideBusReplacements,omitempty"`
	DiscordWebhookURL    *string         `json:"discordWebhookUrl,omitempty"`
	Active               *bool           `json:"active,omitempty"`
}

// MonitorList wraps a list of monitors.
type MonitorList struct {
	Items []Monitor `json:"items"`
}

// MonitorRunResponse acknowledges an on-demand monitor run request.
type MonitorRunResponse struct {
	MonitorID string `json:"monitorId"`
	Status    string `json:"status"`
}
