package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"tickerlab/internal/domain"
	"tickerlab/internal/storage"
)

// CompanyStore implements storage.CompanyStore using PostgreSQL.
type CompanyStore struct {
	pool *Pool
}

// NewCompanyStore creates a new CompanyStore.
func NewCompanyStore(pool *Pool) *CompanyStore {
	return &CompanyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CompanyStore = (*CompanyStore)(nil)

// Upsert inserts or fully replaces the company row keyed by id.
func (s *CompanyStore) Upsert(ctx context.Context, c *domain.FlatCompany) error {
	if c == nil || c.Ticker == "" {
		return storage.ErrInvalidInput
	}

	extra := c.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("encode extra fields: %w", err)
	}

	query := `
		INSERT INTO company_details (
			id, ticker, name, sector, industry, description, extra, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			ticker = EXCLUDED.ticker,
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			description = EXCLUDED.description,
			extra = EXCLUDED.extra,
			updated_at = now()
	`

	_, err = s.pool.Exec(ctx, query,
		c.ID,
		c.Ticker,
		c.Name,
		c.Sector,
		c.Industry,
		c.Description,
		string(extraJSON),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			// The id conflict is resolved above; this is the ticker unique
			// constraint firing for a different id.
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("upsert company: %w", err)
	}
	return nil
}

// GetByTicker retrieves a company by ticker. Returns ErrNotFound if not
// exists.
func (s *CompanyStore) GetByTicker(ctx context.Context, ticker string) (*domain.FlatCompany, error) {
	query := `
		SELECT id, ticker, name, sector, industry, description, extra
		FROM company_details
		WHERE ticker = $1
	`

	var (
		c         domain.FlatCompany
		extraJSON []byte
	)
	err := s.pool.QueryRow(ctx, query, ticker).Scan(
		&c.ID, &c.Ticker, &c.Name, &c.Sector, &c.Industry, &c.Description, &extraJSON,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get company by ticker: %w", err)
	}

	if len(extraJSON) > 0 {
		if err := json.Unmarshal(extraJSON, &c.Extra); err != nil {
			return nil, fmt.Errorf("decode extra fields: %w", err)
		}
	}
	return &c, nil
}
