package history

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"github.com/rshade/footprint-estimator/internal/carbon"
)

// connectRetries is how often a failed initial connection is retried.
const connectRetries = 5

const schema = `
CREATE TABLE IF NOT EXISTS carbon_logs (
	id           UUID PRIMARY KEY,
	user_id      TEXT NOT NULL,
	log_type     TEXT NOT NULL CHECK (log_type IN ('Quick', 'Detailed')),
	input_data   JSONB NOT NULL,
	total_carbon DOUBLE PRECISION NOT NULL,
	breakdown    JSONB NOT NULL,
	suggestions  TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS carbon_logs_user_created_idx ON carbon_logs (user_id, created_at DESC);
`

const insertRecord = `
INSERT INTO carbon_logs (id, user_id, log_type, input_data, total_carbon, breakdown, suggestions, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const selectByUser = `
SELECT id, user_id, log_type, input_data, total_carbon, breakdown, suggestions, created_at
FROM carbon_logs
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT NULLIF($2::bigint, 0)`

// PostgresRepository stores records in the carbon_logs table.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresRepository connects to databaseURL, retrying with exponential
// backoff, and creates the carbon_logs table when missing.
func NewPostgresRepository(ctx context.Context, databaseURL string, logger zerolog.Logger) (*PostgresRepository, error) {
	logger = logger.With().Str("component", "history_postgres").Logger()

	var pool *pgxpool.Pool
	err := backoff.RetryNotify(func() error {
		var err error
		pool, err = pgxpool.Connect(ctx, databaseURL)
		if err != nil {
			return err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectRetries), ctx),
		func(err error, d time.Duration) {
			logger.Warn().Err(err).Dur("retry_in", d).Msg("database not ready, retrying")
		})
	if err != nil {
		return nil, fmt.Errorf("connecting to history database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating carbon_logs table: %w", err)
	}

	logger.Info().Msg("history database ready")
	return &PostgresRepository{pool: pool, logger: logger}, nil
}

// Save implements Repository.
func (p *PostgresRepository) Save(ctx context.Context, r Record) error {
	_, err := p.pool.Exec(ctx, insertRecord,
		r.ID.String(),
		r.UserID,
		string(r.LogType),
		string(r.InputData),
		r.Total,
		string(r.Breakdown),
		r.Suggestion,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting history record: %w", err)
	}
	return nil
}

// ListByUser implements Repository.
func (p *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit < 0 {
		limit = 0
	}

	rows, err := p.pool.Query(ctx, selectByUser, userID, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			r         Record
			id        string
			logType   string
			input     []byte
			breakdown []byte
		)
		if err := rows.Scan(&id, &r.UserID, &logType, &input, &r.Total, &breakdown, &r.Suggestion, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing record id %q: %w", id, err)
		}
		r.LogType = carbon.Mode(logType)
		r.InputData = input
		r.Breakdown = breakdown
		r.CreatedAt = r.CreatedAt.UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history rows: %w", err)
	}
	return records, nil
}

// Close implements Repository.
func (p *PostgresRepository) Close() error {
	p.pool.Close()
	return nil
}
