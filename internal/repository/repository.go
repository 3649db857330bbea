package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/newsviews/internal/viewconfig"
)

// schema holds the lookup tables the pipeline reads.
// No sentiment history is stored.
const schema = `
CREATE TABLE IF NOT EXISTS source_credibility (
	domain     TEXT PRIMARY KEY,
	weight     DOUBLE PRECISION NOT NULL CHECK (weight > 0 AND weight <= 1),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS instruments (
	ticker     TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	market_cap DOUBLE PRECISION,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Repository reads credibility overrides and market caps from Postgres
// ⭐ SSOT: DB 조회는 여기서만
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Migrate creates the lookup tables if missing
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// LoadCredibility implements contracts.CredibilitySource.
// Domains are normalized the same way as the YAML table.
func (r *Repository) LoadCredibility(ctx context.Context) (map[string]float64, error) {
	rows, err := r.db.Query(ctx, `SELECT domain, weight FROM source_credibility`)
	if err != nil {
		return nil, fmt.Errorf("query credibility: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var domain string
		var weight float64
		if err := rows.Scan(&domain, &weight); err != nil {
			return nil, fmt.Errorf("scan credibility: %w", err)
		}
		if domain = viewconfig.NormalizeSource(domain); domain != "" {
			out[domain] = weight
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credibility: %w", err)
	}

	return out, nil
}

// SaveCredibility upserts credibility overrides in one batch
func (r *Repository) SaveCredibility(ctx context.Context, weights map[string]float64) error {
	batch := &pgx.Batch{}
	for domain, w := range weights {
		batch.Queue(`
			INSERT INTO source_credibility (domain, weight, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (domain) DO UPDATE SET
				weight = EXCLUDED.weight,
				updated_at = NOW()
		`, viewconfig.NormalizeSource(domain), w)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert credibility: %w", err)
	}
	return nil
}

// GetMarketCaps implements contracts.MarketCapProvider.
// Unknown tickers and NULL caps are absent from the result.
func (r *Repository) GetMarketCaps(ctx context.Context, tickers []string) (map[string]float64, error) {
	out := make(map[string]float64, len(tickers))
	if len(tickers) == 0 {
		return out, nil
	}

	upper := make([]string, len(tickers))
	for i, t := range tickers {
		upper[i] = strings.ToUpper(strings.TrimSpace(t))
	}

	rows, err := r.db.Query(ctx, `
		SELECT ticker, market_cap
		FROM instruments
		WHERE ticker = ANY($1) AND market_cap IS NOT NULL
	`, upper)
	if err != nil {
		return nil, fmt.Errorf("query market caps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ticker string
		var marketCap float64
		if err := rows.Scan(&ticker, &marketCap); err != nil {
			return nil, fmt.Errorf("scan market cap: %w", err)
		}
		out[ticker] = marketCap
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market caps: %w", err)
	}

	return out, nil
}

// SaveInstrument upserts an instrument's market cap
func (r *Repository) SaveInstrument(ctx context.Context, ticker, name string, marketCap float64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO instruments (ticker, name, market_cap, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			market_cap = EXCLUDED.market_cap,
			updated_at = NOW()
	`, strings.ToUpper(strings.TrimSpace(ticker)), name, marketCap)
	if err != nil {
		return fmt.Errorf("upsert instrument: %w", err)
	}
	return nil
}
