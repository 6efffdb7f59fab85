package memory

import (
	"context"
	"sort"
	"sync"

	"tickerlab/internal/domain"
	"tickerlab/internal/storage"
)

// PriceStore implements storage.PriceStore in memory.
type PriceStore struct {
	mu     sync.RWMutex
	series map[int64][]domain.PricePoint
}

// NewPriceStore creates a new in-memory PriceStore.
func NewPriceStore() *PriceStore {
	return &PriceStore{series: make(map[int64][]domain.PricePoint)}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

func (s *PriceStore) ReplaceForCompany(_ context.Context, companyID int64, points []domain.PricePoint) error {
	seen := make(map[int64]struct{}, len(points))
	for _, p := range points {
		if _, dup := seen[p.TS]; dup {
			return storage.ErrDuplicateKey
		}
		seen[p.TS] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.series[companyID] = append([]domain.PricePoint(nil), points...)
	return nil
}

func (s *PriceStore) GetByCompanyID(_ context.Context, companyID int64) ([]domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := append([]domain.PricePoint(nil), s.series[companyID]...)
	sort.Slice(points, func(i, j int) bool { return points[i].TS < points[j].TS })
	return points, nil
}
