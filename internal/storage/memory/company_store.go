// Package memory provides in-memory store implementations for tests and
// dry runs.
package memory

import (
	"context"
	"sync"

	"tickerlab/internal/domain"
	"tickerlab/internal/storage"
)

// CompanyStore implements storage.CompanyStore in memory.
type CompanyStore struct {
	mu        sync.RWMutex
	companies map[int64]*domain.FlatCompany
}

// NewCompanyStore creates a new in-memory CompanyStore.
func NewCompanyStore() *CompanyStore {
	return &CompanyStore{companies: make(map[int64]*domain.FlatCompany)}
}

// Compile-time interface check.
var _ storage.CompanyStore = (*CompanyStore)(nil)

func (s *CompanyStore) Upsert(_ context.Context, c *domain.FlatCompany) error {
	if c == nil || c.Ticker == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.companies {
		if existing.Ticker == c.Ticker && id != c.ID {
			return storage.ErrDuplicateKey
		}
	}

	clone := *c
	s.companies[c.ID] = &clone
	return nil
}

func (s *CompanyStore) GetByTicker(_ context.Context, ticker string) (*domain.FlatCompany, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.companies {
		if c.Ticker == ticker {
			clone := *c
			return &clone, nil
		}
	}
	return nil, storage.ErrNotFound
}
