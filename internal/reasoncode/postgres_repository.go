package reasoncode

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/secunit404/railpulse/internal/delay"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL reason-code repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetAll returns every cached reason code.
func (r *PostgresRepository) GetAll(ctx context.Context) ([]delay.ReasonCode, error) {
	query := `
		SELECT code,
		       COALESCE(level1_description, ''),
		       COALESCE(level2_description, ''),
		       COALESCE(level3_description, '')
		FROM reason_codes
		ORDER BY code
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []delay.ReasonCode
	for rows.Next() {
		var rc delay.ReasonCode
		if err := rows.Scan(&rc.Code, &rc.Level1Description, &rc.Level2Description, &rc.Level3Description); err != nil {
			return nil, err
		}
		codes = append(codes, rc)
	}
	return codes, rows.Err()
}

// ReplaceAll swaps the cached catalog inside one transaction.
func (r *PostgresRepository) ReplaceAll(ctx context.Context, codes []delay.ReasonCode) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `DELETE FROM reason_codes`); err != nil {
		return err
	}

	now := time.Now()
	for _, rc := range codes {
		_, err := tx.Exec(ctx, `
			INSERT INTO reason_codes (code, level1_description, level2_description, level3_description, cached_at)
			VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5)
		`, rc.Code, rc.Level1Description, rc.Level2Description, rc.Level3Description, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// NewestCachedAt returns the most recent cache timestamp.
func (r *PostgresRepository) NewestCachedAt(ctx context.Context) (time.Time, error) {
	var cachedAt time.Time
	err := r.pool.QueryRow(ctx, `SELECT cached_at FROM reason_codes ORDER BY cached_at DESC LIMIT 1`).Scan(&cachedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return cachedAt, nil
}
