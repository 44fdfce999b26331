package series

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/hedgevol/internal/contracts"
)

// Schema creates the price table read by PostgresRepository
const Schema = `
	CREATE SCHEMA IF NOT EXISTS data;
	CREATE TABLE IF NOT EXISTS data.daily_prices (
		stock_code  TEXT             NOT NULL,
		trade_date  DATE             NOT NULL,
		close_price DOUBLE PRECISION NOT NULL CHECK (close_price > 0),
		PRIMARY KEY (stock_code, trade_date)
	);
`

// farFuture bounds open-ended queries
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// PostgresRepository implements contracts.SeriesRepository
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new price repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the price table if needed
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Load retrieves closing prices for symbol within [from, to], oldest first.
// A zero `to` means no upper bound.
func (r *PostgresRepository) Load(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Sample, error) {
	if to.IsZero() {
		to = farFuture
	}

	query := `
		SELECT trade_date, close_price
		FROM data.daily_prices
		WHERE stock_code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var samples []contracts.Sample
	for rows.Next() {
		var s contracts.Sample
		if err := rows.Scan(&s.Date, &s.Price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// SaveBatch upserts raw price rows in a single round trip
func (r *PostgresRepository) SaveBatch(ctx context.Context, symbol string, samples []contracts.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.daily_prices (stock_code, trade_date, close_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			close_price = EXCLUDED.close_price
	`

	batch := &pgx.Batch{}
	for _, s := range samples {
		batch.Queue(query, symbol, s.Date, s.Price)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range samples {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert row %d (%s): %w", i, samples[i].Date.Format(DateLayout), err)
		}
	}
	return nil
}
