package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tickerlab/internal/domain"
)

func testPoints(companyID int64, ticker string, ts ...int64) []domain.PricePoint {
	points := make([]domain.PricePoint, len(ts))
	for i, t := range ts {
		points[i] = domain.PricePoint{
			CompanyID: companyID,
			Ticker:    ticker,
			TS:        t,
			Value:     float64(100 + t),
			Interval:  86400,
			ValueUnit: "USD",
		}
	}
	return points
}

func TestPriceStore_ReplaceForCompany(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	companies := NewCompanyStore(pool)
	prices := NewPriceStore(pool)

	require.NoError(t, companies.Upsert(ctx, testCompany(1, "ACME")))
	require.NoError(t, prices.ReplaceForCompany(ctx, 1, testPoints(1, "ACME", 3, 1, 2)))

	got, err := prices.GetByCompanyID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int64(1), got[0].TS)
	require.Equal(t, int64(3), got[2].TS)
	require.Equal(t, "USD", got[0].ValueUnit)
}

func TestPriceStore_ReplaceDropsOldSeries(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	companies := NewCompanyStore(pool)
	prices := NewPriceStore(pool)

	require.NoError(t, companies.Upsert(ctx, testCompany(1, "ACME")))
	require.NoError(t, prices.ReplaceForCompany(ctx, 1, testPoints(1, "ACME", 1, 2, 3)))
	require.NoError(t, prices.ReplaceForCompany(ctx, 1, testPoints(1, "ACME", 10)))

	got, err := prices.GetByCompanyID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(10), got[0].TS)
}

func TestPriceStore_EmptyReplaceClears(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	companies := NewCompanyStore(pool)
	prices := NewPriceStore(pool)

	require.NoError(t, companies.Upsert(ctx, testCompany(1, "ACME")))
	require.NoError(t, prices.ReplaceForCompany(ctx, 1, testPoints(1, "ACME", 1)))
	require.NoError(t, prices.ReplaceForCompany(ctx, 1, nil))

	got, err := prices.GetByCompanyID(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestPriceStore_RequiresCompanyRow(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	prices := NewPriceStore(pool)
	err := prices.ReplaceForCompany(context.Background(), 42, testPoints(42, "GHOST", 1))
	require.Error(t, err)
}
