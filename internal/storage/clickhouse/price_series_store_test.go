package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tickerlab/internal/domain"
)

func testObservations(ticker string, ts ...int64) []domain.PricePoint {
	points := make([]domain.PricePoint, len(ts))
	for i, t := range ts {
		points[i] = domain.PricePoint{
			CompanyID: 1,
			Ticker:    ticker,
			TS:        t,
			Value:     float64(100 + t),
			Interval:  86400,
			ValueUnit: "USD",
		}
	}
	return points
}

func TestPriceSeriesStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceSeriesStore(conn)

	require.NoError(t, store.InsertBulk(ctx, testObservations("ACME", 3, 1, 2)))

	got, err := store.GetByTicker(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int64(1), got[0].TS)
	require.Equal(t, int64(3), got[2].TS)
	require.Equal(t, float64(103), got[2].Value)
}

func TestPriceSeriesStore_InsertBulkEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceSeriesStore(conn)
	require.NoError(t, store.InsertBulk(context.Background(), nil))
}

func TestPriceSeriesStore_ReinsertDeduplicates(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceSeriesStore(conn)

	require.NoError(t, store.InsertBulk(ctx, testObservations("ACME", 1, 2)))
	require.NoError(t, store.InsertBulk(ctx, testObservations("ACME", 1, 2)))

	// FINAL collapses the duplicate (ticker, ts) pairs.
	got, err := store.GetByTicker(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestPriceSeriesStore_TickerIsolation(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceSeriesStore(conn)

	require.NoError(t, store.InsertBulk(ctx, testObservations("ACME", 1)))
	require.NoError(t, store.InsertBulk(ctx, testObservations("GLBX", 1, 2)))

	got, err := store.GetByTicker(ctx, "GLBX")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "GLBX", got[0].Ticker)
}
