package memory

import (
	"context"
	"sort"
	"sync"

	"tickerlab/internal/domain"
	"tickerlab/internal/storage"
)

type seriesKey struct {
	ticker string
	ts     int64
}

// PriceSeriesStore implements storage.PriceSeriesStore in memory, with the
// last write per (ticker, ts) winning like the merge-time deduplication of
// the real store.
type PriceSeriesStore struct {
	mu     sync.RWMutex
	points map[seriesKey]domain.PricePoint
}

// NewPriceSeriesStore creates a new in-memory PriceSeriesStore.
func NewPriceSeriesStore() *PriceSeriesStore {
	return &PriceSeriesStore{points: make(map[seriesKey]domain.PricePoint)}
}

// Compile-time interface check.
var _ storage.PriceSeriesStore = (*PriceSeriesStore)(nil)

func (s *PriceSeriesStore) InsertBulk(_ context.Context, points []domain.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		s.points[seriesKey{p.Ticker, p.TS}] = p
	}
	return nil
}

func (s *PriceSeriesStore) GetByTicker(_ context.Context, ticker string) ([]domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var points []domain.PricePoint
	for k, p := range s.points {
		if k.ticker == ticker {
			points = append(points, p)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].TS < points[j].TS })
	return points, nil
}
