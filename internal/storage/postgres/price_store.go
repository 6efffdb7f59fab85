package postgres

import (
	"context"
	"fmt"

	"tickerlab/internal/domain"
	"tickerlab/internal/storage"
)

// PriceStore implements storage.PriceStore using PostgreSQL.
type PriceStore struct {
	pool *Pool
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(pool *Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

// ReplaceForCompany atomically replaces the whole series of a company:
// delete plus bulk insert in one transaction.
func (s *PriceStore) ReplaceForCompany(ctx context.Context, companyID int64, points []domain.PricePoint) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM stock_price_insights WHERE company_id = $1`, companyID); err != nil {
		return fmt.Errorf("clear price series: %w", err)
	}

	query := `
		INSERT INTO stock_price_insights (
			company_id, ticker, ts, value, interval_seconds, value_unit
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, p := range points {
		_, err := tx.Exec(ctx, query,
			companyID,
			p.Ticker,
			p.TS,
			p.Value,
			p.Interval,
			p.ValueUnit,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert price point: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByCompanyID retrieves the series of a company, ordered by ts ASC.
func (s *PriceStore) GetByCompanyID(ctx context.Context, companyID int64) ([]domain.PricePoint, error) {
	query := `
		SELECT company_id, ticker, ts, value, interval_seconds, value_unit
		FROM stock_price_insights
		WHERE company_id = $1
		ORDER BY ts ASC
	`

	rows, err := s.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("get price series: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.CompanyID, &p.Ticker, &p.TS, &p.Value, &p.Interval, &p.ValueUnit); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price points: %w", err)
	}
	return points, nil
}
