package station

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL station repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetAll returns every cached station.
func (r *PostgresRepository) GetAll(ctx context.Context) ([]Station, error) {
	query := `
		SELECT signature, advertised_name, COALESCE(short_name, ''), cached_at
		FROM stations
		ORDER BY signature
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []Station
	for rows.Next() {
		var s Station
		if err := rows.Scan(&s.Signature, &s.AdvertisedName, &s.ShortName, &s.CachedAt); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// ReplaceAll swaps the cached directory inside one transaction so readers
// never observe a half-written catalog.
func (r *PostgresRepository) ReplaceAll(ctx context.Context, stations []Station) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `DELETE FROM stations`); err != nil {
		return err
	}

	now := time.Now()
	for _, s := range stations {
		cachedAt := s.CachedAt
		if cachedAt.IsZero() {
			cachedAt = now
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO stations (signature, advertised_name, short_name, cached_at)
			VALUES ($1, $2, NULLIF($3, ''), $4)
		`, s.Signature, s.AdvertisedName, s.ShortName, cachedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// NewestCachedAt returns the most recent cache timestamp.
func (r *PostgresRepository) NewestCachedAt(ctx context.Context) (time.Time, error) {
	var cachedAt time.Time
	err := r.pool.QueryRow(ctx, `SELECT cached_at FROM stations ORDER BY cached_at DESC LIMIT 1`).Scan(&cachedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return cachedAt, nil
}
