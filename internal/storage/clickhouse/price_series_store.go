package clickhouse

import (
	"context"
	"fmt"

	"tickerlab/internal/domain"
	"tickerlab/internal/storage"
)

// PriceSeriesStore implements storage.PriceSeriesStore using ClickHouse.
type PriceSeriesStore struct {
	conn *Conn
}

// NewPriceSeriesStore creates a new PriceSeriesStore.
func NewPriceSeriesStore(conn *Conn) *PriceSeriesStore {
	return &PriceSeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceSeriesStore = (*PriceSeriesStore)(nil)

// InsertBulk appends observations in one batch. Re-inserting an existing
// (ticker, ts) is not an error; ReplacingMergeTree deduplicates on merge.
func (s *PriceSeriesStore) InsertBulk(ctx context.Context, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO stock_price_observations (
			ticker, company_id, ts, value, interval_seconds, value_unit
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.Ticker, p.CompanyID, p.TS,
			p.Value, p.Interval, p.ValueUnit,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTicker retrieves observations for a ticker, ordered by ts ASC.
// FINAL collapses not-yet-merged duplicates.
func (s *PriceSeriesStore) GetByTicker(ctx context.Context, ticker string) ([]domain.PricePoint, error) {
	query := `
		SELECT ticker, company_id, ts, value, interval_seconds, value_unit
		FROM stock_price_observations FINAL
		WHERE ticker = ?
		ORDER BY ts ASC
	`

	rows, err := s.conn.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query by ticker: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Ticker, &p.CompanyID, &p.TS, &p.Value, &p.Interval, &p.ValueUnit); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return points, nil
}
