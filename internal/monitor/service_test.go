package monitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secunit404/railpulse/internal/api/models"
	"github.com/secunit404/railpulse/internal/monitor"
)

// stubDirectory is a fixed station directory for testing.
type stubDirectory struct {
	names map[string]string
}

func (d *stubDirectory) EnsureFresh(context.Context) error { return nil }

func (d *stubDirectory) LookupName(signature string) (string, bool) {
	name, ok := d.names[signature]
	return name, ok
}

func newTestService() (*monitor.Service, *monitor.InMemoryRepository) {
	repo := monitor.NewInMemoryRepository()
	directory := &stubDirectory{names: map[string]string{
		"G":   "Göteborg C",
		"Cst": "Stockholm Central",
	}}
	return monitor.NewService(repo, directory), repo
}

func validCreateRequest() *models.MonitorCreateRequest {
	return &models.MonitorCreateRequest{
		Name:              "Morning commute",
		StationSignature:  "G",
		RunMode:           models.RunModeDaily,
		ScheduleTime:      "07:30",
		DiscordWebhookURL: "https://discord.com/api/webhooks/123/abc",
	}
}

func TestService_CreateDailyMonitor(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), "usr_1", validCreateRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Morning commute", created.Name)
	assert.Equal(t, "G", created.StationSignature)
	assert.Equal(t, "Göteborg C", created.StationName)
	assert.Nil(t, created.DestinationSignature)
	assert.Equal(t, models.RunModeDaily, created.RunMode)
	assert.Equal(t, "07:30", created.ScheduleTime)
	assert.Equal(t, monitor.DefaultTimezone, created.Timezone)
	assert.Equal(t, monitor.DefaultDelayThreshold, created.DelayThreshold)
	assert.False(t, created.HideBusReplacements)
	assert.True(t, created.Active)
}

func TestService_CreateRouteMonitor(t *testing.T) {
	svc, _ := newTestService()

	req := validCreateRequest()
	dest := "Cst"
	req.DestinationSignature = &dest
	threshold := 30
	req.DelayThreshold = &threshold
	hide := true
	req.HideBusReplacements = &hide

	created, err := svc.Create(context.Background(), "usr_1", req)
	require.NoError(t, err)

	require.NotNil(t, created.DestinationSignature)
	assert.Equal(t, "Cst", *created.DestinationSignature)
	require.NotNil(t, created.DestinationName)
	assert.Equal(t, "Stockholm Central", *created.DestinationName)
	assert.Equal(t, 30, created.DelayThreshold)
	assert.True(t, created.HideBusReplacements)
}

func TestService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.MonitorCreateRequest)
		field  string
	}{
		{"missing name", func(r *models.MonitorCreateRequest) { r.Name = "" }, "name"},
		{"missing station", func(r *models.MonitorCreateRequest) { r.StationSignature = "" }, "stationSignature"},
		{"bad run mode", func(r *models.MonitorCreateRequest) { r.RunMode = "hourly" }, "runMode"},
		{"missing schedule time", func(r *models.MonitorCreateRequest) { r.ScheduleTime = "" }, "scheduleTime"},
		{"bad schedule time", func(r *models.MonitorCreateRequest) { r.ScheduleTime = "25:99" }, "scheduleTime"},
		{"bad timezone", func(r *models.MonitorCreateRequest) { r.Timezone = "Mars/Olympus" }, "timezone"},
		{"zero threshold", func(r *models.MonitorCreateRequest) {
			zero := 0
			r.DelayThreshold = &zero
		}, "delayThreshold"},
		{"missing webhook", func(r *models.MonitorCreateRequest) { r.DiscordWebhookURL = "" }, "discordWebhookUrl"},
		{"plain http webhook", func(r *models.MonitorCreateRequest) {
			r.DiscordWebhookURL = "http://discord.com/api/webhooks/1/a"
		}, "discordWebhookUrl"},
		{"non-discord webhook", func(r *models.MonitorCreateRequest) {
			r.DiscordWebhookURL = "https://example.com/api/webhooks/1/a"
		}, "discordWebhookUrl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			req := validCreateRequest()
			tt.mutate(req)

			_, err := svc.Create(context.Background(), "usr_1", req)
			require.Error(t, err)

			var vErr *monitor.ValidationError
			require.ErrorAs(t, err, &vErr)

			fields := make([]string, 0, len(vErr.Errors))
			for _, fe := range vErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestService_CreateUnknownStation(t *testing.T) {
	svc, _ := newTestService()

	req := validCreateRequest()
	req.StationSignature = "XYZ"

	_, err := svc.Create(context.Background(), "usr_1", req)

	var vErr *monitor.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "stationSignature", vErr.Errors[0].Field)
}

func TestService_CreateDestinationEqualsOrigin(t *testing.T) {
	svc, _ := newTestService()

	req := validCreateRequest()
	dest := "G"
	req.DestinationSignature = &dest

	_, err := svc.Create(context.Background(), "usr_1", req)

	var vErr *monitor.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "destinationSignature", vErr.Errors[0].Field)
}

func TestService_CreateOneTimeMonitor(t *testing.T) {
	svc, _ := newTestService()

	req := validCreateRequest()
	req.RunMode = models.RunModeOneTime
	req.ScheduleTime = ""
	start := models.Timestamp(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	end := models.Timestamp(time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC))
	req.ScheduleDate = &start
	req.EndDate = &end

	created, err := svc.Create(context.Background(), "usr_1", req)
	require.NoError(t, err)

	assert.Equal(t, models.RunModeOneTime, created.RunMode)
	require.NotNil(t, created.ScheduleDate)
	require.NotNil(t, created.EndDate)
}

func TestService_CreateOneTimeRequiresScheduleDate(t *testing.T) {
	svc, _ := newTestService()

	req := validCreateRequest()
	req.RunMode = models.RunModeOneTime
	req.ScheduleTime = ""

	_, err := svc.Create(context.Background(), "usr_1", req)

	var vErr *monitor.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "scheduleDate", vErr.Errors[0].Field)
}

func TestService_CreateOneTimeEndBeforeStart(t *testing.T) {
	svc, _ := newTestService()

	req := validCreateRequest()
	req.RunMode = models.RunModeOneTime
	req.ScheduleTime = ""
	start := models.Timestamp(time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC))
	end := models.Timestamp(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	req.ScheduleDate = &start
	req.EndDate = &end

	_, err := svc.Create(context.Background(), "usr_1", req)

	var vErr *monitor.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "endDate", vErr.Errors[0].Field)
}

func TestService_UpdateAppliesPartialChanges(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), "usr_1", validCreateRequest())
	require.NoError(t, err)

	name := "Evening commute"
	threshold := 20
	active := false
	updated, err := svc.Update(context.Background(), "usr_1", created.ID, &models.MonitorUpdateRequest{
		Name:           &name,
		DelayThreshold: &threshold,
		Active:         &active,
	})
	require.NoError(t, err)

	assert.Equal(t, "Evening commute", updated.Name)
	assert.Equal(t, 20, updated.DelayThreshold)
	assert.False(t, updated.Active)
	// Untouched fields survive.
	assert.Equal(t, "G", updated.StationSignature)
	assert.Equal(t, "07:30", updated.ScheduleTime)
}

func TestService_UpdateStationResolvesName(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), "usr_1", validCreateRequest())
	require.NoError(t, err)

	sig := "Cst"
	updated, err := svc.Update(context.Background(), "usr_1", created.ID, &models.MonitorUpdateRequest{
		StationSignature: &sig,
	})
	require.NoError(t, err)

	assert.Equal(t, "Cst", updated.StationSignature)
	assert.Equal(t, "Stockholm Central", updated.StationName)
}

func TestService_UpdateModeSwitchNeedsSchedule(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), "usr_1", validCreateRequest())
	require.NoError(t, err)

	mode := models.RunModeOneTime
	_, err = svc.Update(context.Background(), "usr_1", created.ID, &models.MonitorUpdateRequest{
		RunMode: &mode,
	})

	var vErr *monitor.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "scheduleDate", vErr.Errors[0].Field)
}

func TestService_GetScopedToUser(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), "usr_1", validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "usr_2", created.ID)
	assert.ErrorIs(t, err, monitor.ErrMonitorNotFound)

	got, err := svc.Get(context.Background(), "usr_1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestService_DeleteScopedToUser(t *testing.T) {
	svc, repo := newTestService()

	created, err := svc.Create(context.Background(), "usr_1", validCreateRequest())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "usr_2", created.ID)
	assert.ErrorIs(t, err, monitor.ErrMonitorNotFound)

	require.NoError(t, svc.Delete(context.Background(), "usr_1", created.ID))

	_, err = repo.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, monitor.ErrMonitorNotFound)
}

func TestService_ListReturnsOwnMonitorsOnly(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), "usr_1", validCreateRequest())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "usr_2", validCreateRequest())
	require.NoError(t, err)

	list, err := svc.List(context.Background(), "usr_1")
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}
