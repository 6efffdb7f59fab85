package storage

import (
	"context"

	"tickerlab/internal/domain"
)

// CompanyStore provides access to company_details storage.
type CompanyStore interface {
	// Upsert inserts or fully replaces the company row keyed by id.
	Upsert(ctx context.Context, c *domain.FlatCompany) error

	// GetByTicker retrieves a company by ticker. Returns ErrNotFound if not
	// exists.
	GetByTicker(ctx context.Context, ticker string) (*domain.FlatCompany, error)
}

// PriceStore provides access to stock_price_insights storage.
type PriceStore interface {
	// ReplaceForCompany atomically replaces the whole series of a company.
	ReplaceForCompany(ctx context.Context, companyID int64, points []domain.PricePoint) error

	// GetByCompanyID retrieves the series of a company, ordered by ts ASC.
	GetByCompanyID(ctx context.Context, companyID int64) ([]domain.PricePoint, error)
}

// PriceSeriesStore provides access to the analytical observation store.
// Re-inserting the same (ticker, ts) is not an error there; the engine
// deduplicates on merge.
type PriceSeriesStore interface {
	// InsertBulk appends observations in one batch.
	InsertBulk(ctx context.Context, points []domain.PricePoint) error

	// GetByTicker retrieves observations for a ticker, ordered by ts ASC.
	GetByTicker(ctx context.Context, ticker string) ([]domain.PricePoint, error)
}
