package monitor

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/secunit404/railpulse/internal/api/models"
)

// Service errors.
var (
	ErrNotAuthorized = errors.New("not authorized to access this monitor")
)

// Validation constants.
const (
	MaxNameLength = 120

	// DefaultDelayThreshold is the minimum delay in whole minutes a monitor
	// reports when the request does not set one.
	DefaultDelayThreshold = 10

	MaxDelayThreshold = 24 * 60
)

// timeHHMMRegex validates HH:mm format.
var timeHHMMRegex = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// StationDirectory resolves station signatures to advertised names. The
// station cache service satisfies this.
type StationDirectory interface {
	EnsureFresh(ctx context.Context) error
	LookupName(signature string) (string, bool)
}

// Service provides monitor operations.
type Service struct {
	repo     Repository
	stations StationDirectory
}

// NewService creates a new monitor service.
func NewService(repo Repository, stations StationDirectory) *Service {
	return &Service{repo: repo, stations: stations}
}

// List retrieves all monitors for a user.
func (s *Service) List(ctx context.Context, userID string) (*models.MonitorList, error) {
	monitors, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.Monitor, 0, len(monitors))
	for _, m := range monitors {
		items = append(items, s.toAPIMonitor(m))
	}
	return &models.MonitorList{Items: items}, nil
}

// Get retrieves a monitor by ID for a user.
func (s *Service) Get(ctx context.Context, userID, monitorID string) (*models.Monitor, error) {
	m, err := s.repo.GetByUserAndID(ctx, userID, monitorID)
	if err != nil {
		return nil, err
	}

	result := s.toAPIMonitor(m)
	return &result, nil
}

// Create creates a new monitor for a user.
func (s *Service) Create(ctx context.Context, userID string, input *models.MonitorCreateRequest) (*models.Monitor, error) {
	if err := s.stations.EnsureFresh(ctx); err != nil {
		return nil, err
	}

	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	m := &Monitor{
		ID:                  "mon_" + uuid.New().String()[:22],
		UserID:              userID,
		Name:                input.Name,
		StationSignature:    input.StationSignature,
		RunMode:             RunMode(input.RunMode),
		ScheduleTime:        input.ScheduleTime,
		Timezone:            DefaultTimezone,
		DelayThreshold:      DefaultDelayThreshold,
		DiscordWebhookURL:   input.DiscordWebhookURL,
		Active:              true,
		HideBusReplacements: false,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if input.Timezone != "" {
		m.Timezone = input.Timezone
	}
	if input.DelayThreshold != nil {
		m.DelayThreshold = *input.DelayThreshold
	}
	if input.HideBusReplacements != nil {
		m.HideBusReplacements = *input.HideBusReplacements
	}
	if input.ScheduleDate != nil {
		d := input.ScheduleDate.Time()
		m.ScheduleDate = &d
	}
	if input.EndDate != nil {
		d := input.EndDate.Time()
		m.EndDate = &d
	}

	fieldErrors := s.resolveStations(m, input.StationSignature, input.DestinationSignature)
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	result := s.toAPIMonitor(m)
	return &result, nil
}

// Update updates an existing monitor for a user.
func (s *Service) Update(ctx context.Context, userID, monitorID string, input *models.MonitorUpdateRequest) (*models.Monitor, error) {
	m, err := s.repo.GetByUserAndID(ctx, userID, monitorID)
	if err != nil {
		return nil, err
	}

	if fieldErrors := s.validateUpdateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if input.Name != nil {
		m.Name = *input.Name
	}
	if input.RunMode != nil {
		m.RunMode = RunMode(*input.RunMode)
	}
	if input.ScheduleTime != nil {
		m.ScheduleTime = *input.ScheduleTime
	}
	if input.ScheduleDate != nil {
		d := input.ScheduleDate.Time()
		m.ScheduleDate = &d
	}
	if input.EndDate != nil {
		d := input.EndDate.Time()
		m.EndDate = &d
	}
	if input.Timezone != nil {
		m.Timezone = *input.Timezone
	}
	if input.DelayThreshold != nil {
		m.DelayThreshold = *input.DelayThreshold
	}
	if input.HideBusReplacements != nil {
		m.HideBusReplacements = *input.HideBusReplacements
	}
	if input.DiscordWebhookURL != nil {
		m.DiscordWebhookURL = *input.DiscordWebhookURL
	}
	if input.Active != nil {
		m.Active = *input.Active
	}

	if input.StationSignature != nil || input.DestinationSignature != nil {
		if err := s.stations.EnsureFresh(ctx); err != nil {
			return nil, err
		}
		origin := m.StationSignature
		if input.StationSignature != nil {
			origin = *input.StationSignature
		}
		dest := m.DestinationSignature
		if input.DestinationSignature != nil {
			dest = input.DestinationSignature
		}
		if fieldErrors := s.resolveStations(m, origin, dest); len(fieldErrors) > 0 {
			return nil, &ValidationError{Errors: fieldErrors}
		}
	}

	if fieldErrors := s.validateSchedule(m); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	m.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	result := s.toAPIMonitor(m)
	return &result, nil
}

// Delete deletes a monitor for a user.
func (s *Service) Delete(ctx context.Context, userID, monitorID string) error {
	if _, err := s.repo.GetByUserAndID(ctx, userID, monitorID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, monitorID)
}

// resolveStations validates the origin and optional destination signatures
// against the station directory and stores the resolved names.
func (s *Service) resolveStations(m *Monitor, origin string, dest *string) []models.FieldError {
	var errs []models.FieldError

	name, ok := s.stations.LookupName(origin)
	if !ok {
		errs = append(errs, models.FieldError{Field: "stationSignature", Message: "unknown station signature"})
	} else {
		m.StationSignature = origin
		m.StationName = name
	}

	if dest == nil || *dest == "" {
		m.DestinationSignature = nil
		m.DestinationName = nil
		return errs
	}

	if *dest == origin {
		errs = append(errs, models.FieldError{Field: "destinationSignature", Message: "must differ from stationSignature"})
		return errs
	}

	destName, ok := s.stations.LookupName(*dest)
	if !ok {
		errs = append(errs, models.FieldError{Field: "destinationSignature", Message: "unknown station signature"})
		return errs
	}

	destSig := *dest
	m.DestinationSignature = &destSig
	m.DestinationName = &destName
	return errs
}

// validateCreateInput validates the create monitor input.
func (s *Service) validateCreateInput(input *models.MonitorCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if len(input.Name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 120 characters"})
	}

	if input.StationSignature == "" {
		errs = append(errs, models.FieldError{Field: "stationSignature", Message: "is required"})
	}

	switch RunMode(input.RunMode) {
	case RunModeDaily:
		if input.ScheduleTime == "" {
			errs = append(errs, models.FieldError{Field: "scheduleTime", Message: "is required for daily monitors"})
		} else if !timeHHMMRegex.MatchString(input.ScheduleTime) {
			errs = append(errs, models.FieldError{Field: "scheduleTime", Message: "must be in HH:mm format"})
		}
	case RunModeOneTime:
		if input.ScheduleDate == nil {
			errs = append(errs, models.FieldError{Field: "scheduleDate", Message: "is required for one-time monitors"})
		} else if input.EndDate != nil && input.EndDate.Time().Before(input.ScheduleDate.Time()) {
			errs = append(errs, models.FieldError{Field: "endDate", Message: "must not be before scheduleDate"})
		}
	default:
		errs = append(errs, models.FieldError{Field: "runMode", Message: "must be daily or one-time"})
	}

	if input.Timezone != "" {
		errs = append(errs, validateTimezone(input.Timezone)...)
	}

	if input.DelayThreshold != nil {
		errs = append(errs, validateThreshold(*input.DelayThreshold)...)
	}

	errs = append(errs, validateWebhookURL(input.DiscordWebhookURL, true)...)

	return errs
}

// validateUpdateInput validates the update monitor input.
func (s *Service) validateUpdateInput(input *models.MonitorUpdateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name != nil {
		if *input.Name == "" {
			errs = append(errs, models.FieldError{Field: "name", Message: "cannot be empty"})
		} else if len(*input.Name) > MaxNameLength {
			errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 120 characters"})
		}
	}

	if input.RunMode != nil {
		mode := RunMode(*input.RunMode)
		if mode != RunModeDaily && mode != RunModeOneTime {
			errs = append(errs, models.FieldError{Field: "runMode", Message: "must be daily or one-time"})
		}
	}

	if input.ScheduleTime != nil && !timeHHMMRegex.MatchString(*input.ScheduleTime) {
		errs = append(errs, models.FieldError{Field: "scheduleTime", Message: "must be in HH:mm format"})
	}

	if input.Timezone != nil {
		errs = append(errs, validateTimezone(*input.Timezone)...)
	}

	if input.DelayThreshold != nil {
		errs = append(errs, validateThreshold(*input.DelayThreshold)...)
	}

	if input.DiscordWebhookURL != nil {
		errs = append(errs, validateWebhookURL(*input.DiscordWebhookURL, false)...)
	}

	return errs
}

// validateSchedule checks cross-field schedule consistency after updates
// have been applied.
func (s *Service) validateSchedule(m *Monitor) []models.FieldError {
	var errs []models.FieldError

	switch m.RunMode {
	case RunModeDaily:
		if m.ScheduleTime == "" {
			errs = append(errs, models.FieldError{Field: "scheduleTime", Message: "is required for daily monitors"})
		}
	case RunModeOneTime:
		if m.ScheduleDate == nil {
			errs = append(errs, models.FieldError{Field: "scheduleDate", Message: "is required for one-time monitors"})
		} else if m.EndDate != nil && m.EndDate.Before(*m.ScheduleDate) {
			errs = append(errs, models.FieldError{Field: "endDate", Message: "must not be before scheduleDate"})
		}
	}

	return errs
}

func validateTimezone(name string) []models.FieldError {
	if _, err := time.LoadLocation(name); err != nil {
		return []models.FieldError{{Field: "timezone", Message: "unknown IANA timezone"}}
	}
	return nil
}

func validateThreshold(minutes int) []models.FieldError {
	if minutes < 1 || minutes > MaxDelayThreshold {
		return []models.FieldError{{Field: "delayThreshold", Message: "must be between 1 and 1440"}}
	}
	return nil
}

func validateWebhookURL(raw string, required bool) []models.FieldError {
	if raw == "" {
		if required {
			return []models.FieldError{{Field: "discordWebhookUrl", Message: "is required"}}
		}
		return []models.FieldError{{Field: "discordWebhookUrl", Message: "cannot be empty"}}
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return []models.FieldError{{Field: "discordWebhookUrl", Message: "must be an https URL"}}
	}
	if !strings.Contains(parsed.Host, "discord") || !strings.Contains(parsed.Path, "/webhooks/") {
		return []models.FieldError{{Field: "discordWebhookUrl", Message: "must be a Discord webhook URL"}}
	}
	return nil
}

// toAPIMonitor converts a domain Monitor to an API Monitor.
func (s *Service) toAPIMonitor(m *Monitor) models.Monitor {
	out := models.Monitor{
		ID:                   m.ID,
		Name:                 m.Name,
		StationSignature:     m.StationSignature,
		StationName:          m.StationName,
		DestinationSignature: m.DestinationSignature,
		DestinationName:      m.DestinationName,
		RunMode:              models.MonitorRunMode(m.RunMode),
		ScheduleTime:         m.ScheduleTime,
		Timezone:             m.Timezone,
		DelayThreshold:       m.DelayThreshold,
		HideBusReplacements:  m.HideBusReplacements,
		DiscordWebhookURL:    m.DiscordWebhookURL,
		Active:               m.Active,
		LastRunStatus:        m.LastRunStatus,
		LastRunDelayCount:    m.LastRunDelayCount,
		CreatedAt:            models.Timestamp(m.CreatedAt),
		UpdatedAt:            models.Timestamp(m.UpdatedAt),
	}

	if m.ScheduleDate != nil {
		ts := models.Timestamp(*m.ScheduleDate)
		out.ScheduleDate = &ts
	}
	if m.EndDate != nil {
		ts := models.Timestamp(*m.EndDate)
		out.EndDate = &ts
	}
	if m.LastRunAt != nil {
		ts := models.Timestamp(*m.LastRunAt)
		out.LastRunAt = &ts
	}

	return out
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
