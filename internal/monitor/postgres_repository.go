package monitor

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const monitorColumns = `
	id, user_id, name,
	station_signature, station_name,
	destination_signature, destination_name,
	run_mode, schedule_time, schedule_date, end_date, timezone,
	delay_threshold, hide_bus_replacements, discord_webhook_url,
	active, last_run_at, last_run_status, last_run_delay_count,
	created_at, updated_at
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL monitor repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a monitor by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Monitor, error) {
	query := `SELECT ` + monitorColumns + ` FROM monitors WHERE id = $1`
	return r.scanMonitor(r.pool.QueryRow(ctx, query, id))
}

// GetByUserAndID retrieves a monitor by user ID and monitor ID.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, monitorID string) (*Monitor, error) {
	query := `SELECT ` + monitorColumns + ` FROM monitors WHERE id = $1 AND user_id = $2`
	return r.scanMonitor(r.pool.QueryRow(ctx, query, monitorID, userID))
}

// List retrieves all monitors for a user, newest first.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*Monitor, error) {
	query := `SELECT ` + monitorColumns + ` FROM monitors WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collectMonitors(rows)
}

// ListActive retrieves every active monitor across all users.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*Monitor, error) {
	query := `SELECT ` + monitorColumns + ` FROM monitors WHERE active ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collectMonitors(rows)
}

// Create creates a new monitor.
func (r *PostgresRepository) Create(ctx context.Context, m *Monitor) error {
	query := `
		INSERT INTO monitors (
			id, user_id, name,
			station_signature, station_name,
			destination_signature, destination_name,
			run_mode, schedule_time, schedule_date, end_date, timezone,
			delay_threshold, hide_bus_replacements, discord_webhook_url,
			active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.pool.Exec(ctx, query,
		m.ID,
		m.UserID,
		m.Name,
		m.StationSignature,
		m.StationName,
		m.DestinationSignature,
		m.DestinationName,
		string(m.RunMode),
		m.ScheduleTime,
		m.ScheduleDate,
		m.EndDate,
		m.Timezone,
		m.DelayThreshold,
		m.HideBusReplacements,
		m.DiscordWebhookURL,
		m.Active,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

// Update updates an existing monitor.
func (r *PostgresRepository) Update(ctx context.Context, m *Monitor) error {
	query := `
		UPDATE monitors SET
			name = $2,
			station_signature = $3,
			station_name = $4,
			destination_signature = $5,
			destination_name = $6,
			run_mode = $7,
			schedule_time = $8,
			schedule_date = $9,
			end_date = $10,
			timezone = $11,
			delay_threshold = $12,
			hide_bus_replacements = $13,
			discord_webhook_url = $14,
			active = $15,
			updated_at = $16
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		m.ID,
		m.Name,
		m.StationSignature,
		m.StationName,
		m.DestinationSignature,
		m.DestinationName,
		string(m.RunMode),
		m.ScheduleTime,
		m.ScheduleDate,
		m.EndDate,
		m.Timezone,
		m.DelayThreshold,
		m.HideBusReplacements,
		m.DiscordWebhookURL,
		m.Active,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrMonitorNotFound
	}
	return nil
}

// Delete deletes a monitor by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM monitors WHERE id = $1`, id)
	return err
}

// RecordRun stores the outcome of a run and optionally deactivates the
// monitor.
func (r *PostgresRepository) RecordRun(ctx context.Context, id string, result RunResult) error {
	query := `
		UPDATE monitors SET
			last_run_at = $2,
			last_run_status = $3,
			last_run_delay_count = $4,
			active = active AND NOT $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, result.RanAt, result.Status, result.DelayCount, result.Deactivate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMonitorNotFound
	}
	return nil
}

func (r *PostgresRepository) scanMonitor(row pgx.Row) (*Monitor, error) {
	var m Monitor
	var runMode string

	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.StationSignature,
		&m.StationName,
		&m.DestinationSignature,
		&m.DestinationName,
		&runMode,
		&m.ScheduleTime,
		&m.ScheduleDate,
		&m.EndDate,
		&m.Timezone,
		&m.DelayThreshold,
		&m.HideBusReplacements,
		&m.DiscordWebhookURL,
		&m.Active,
		&m.LastRunAt,
		&m.LastRunStatus,
		&m.LastRunDelayCount,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMonitorNotFound
		}
		return nil, err
	}

	m.RunMode = RunMode(runMode)
	return &m, nil
}

func (r *PostgresRepository) collectMonitors(rows pgx.Rows) ([]*Monitor, error) {
	var monitors []*Monitor
	for rows.Next() {
		m, err := r.scanMonitor(rows)
		if err != nil {
			return nil, err
		}
		monitors = append(monitors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return monitors, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
