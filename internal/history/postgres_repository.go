package history

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL search history repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Add stores a search entry.
func (r *PostgresRepository) Add(ctx context.Context, entry *SearchEntry) error {
	query := `
		INSERT INTO search_history (
			id, user_id, search_type,
			station_signature, station_name,
			destination_signature, destination_name,
			min_delay_minutes, result_count, searched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		string(entry.Type),
		entry.StationSignature,
		entry.StationName,
		entry.DestinationSignature,
		entry.DestinationName,
		entry.MinDelayMinutes,
		entry.ResultCount,
		entry.SearchedAt,
	)
	return err
}

// ListByUser retrieves a user's entries, most recent first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*SearchEntry, error) {
	query := `
		SELECT
			id, user_id, search_type,
			station_signature, station_name,
			destination_signature, destination_name,
			min_delay_minutes, result_count, searched_at
		FROM search_history
		WHERE user_id = $1
		ORDER BY searched_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*SearchEntry
	for rows.Next() {
		var entry SearchEntry
		var searchType string
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&searchType,
			&entry.StationSignature,
			&entry.StationName,
			&entry.DestinationSignature,
			&entry.DestinationName,
			&entry.MinDelayMinutes,
			&entry.ResultCount,
			&entry.SearchedAt,
		)
		if err != nil {
			return nil, err
		}
		entry.Type = SearchType(searchType)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteByUser removes all entries for a user.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM search_history WHERE user_id = $1`, userID)
	return err
}

// DeleteOlderThan removes entries searched before the cutoff.
func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM search_history WHERE searched_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
