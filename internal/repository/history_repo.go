package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"marketgateway/internal/quote"
)

// HistoryEntry is one persisted quote observation.
type HistoryEntry struct {
	ID            string
	AssetClass    string
	Symbol        string
	Price         float64
	Change        float64
	ChangePercent float64
	High          *float64
	Low           *float64
	Volume        *float64
	MarketCap     *float64
	Source        string
	FetchedAt     time.Time
	RecordedAt    time.Time
}

// HistoryRepository defines DB operations for quote history.
type HistoryRepository interface {
	Insert(ctx context.Context, q *quote.Quote) error
	ListBySymbol(ctx context.Context, class quote.AssetClass, symbol string, limit int) ([]HistoryEntry, error)
}

// PostgresHistoryRepository is an implementation of HistoryRepository using PostgreSQL.
type PostgresHistoryRepository struct {
	db *sql.DB
}

// NewPostgresHistoryRepository creates a new PostgresHistoryRepository.
func NewPostgresHistoryRepository(db *sql.DB) HistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

// Insert records one successfully fetched quote.
func (r *PostgresHistoryRepository) Insert(ctx context.Context, q *quote.Quote) error {
	query := `INSERT INTO quote_history
				(id, asset_class, symbol, price, change, change_percent,
				 high, low, volume, market_cap, source, fetched_at)
			  VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(), string(q.AssetClass), q.Symbol,
		q.Price, q.Change, q.ChangePercent,
		q.High, q.Low, q.Volume, q.MarketCap,
		q.Source, q.FetchedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quote history: %w", err)
	}
	return nil
}

// ListBySymbol returns the most recent history entries for one symbol,
// newest first.
func (r *PostgresHistoryRepository) ListBySymbol(ctx context.Context, class quote.AssetClass, symbol string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT id::text, asset_class, symbol, price, change, change_percent,
				     high, low, volume, market_cap, source, fetched_at, recorded_at
			  FROM quote_history
			  WHERE asset_class=$1 AND symbol=$2
			  ORDER BY fetched_at DESC
			  LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, string(class), symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // best-effort close

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var high, low, volume, marketCap sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.AssetClass, &e.Symbol, &e.Price, &e.Change, &e.ChangePercent,
			&high, &low, &volume, &marketCap, &e.Source, &e.FetchedAt, &e.RecordedAt); err != nil {
			return nil, err
		}
		if high.Valid {
			e.High = &high.Float64
		}
		if low.Valid {
			e.Low = &low.Float64
		}
		if volume.Valid {
			e.Volume = &volume.Float64
		}
		if marketCap.Valid {
			e.MarketCap = &marketCap.Float64
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
