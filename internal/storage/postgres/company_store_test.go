package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tickerlab/internal/domain"
	"tickerlab/internal/storage"
)

func strPtr(s string) *string { return &s }

func testCompany(id int64, ticker string) *domain.FlatCompany {
	return &domain.FlatCompany{
		ID:       id,
		Ticker:   ticker,
		Name:     ticker + " Inc",
		Sector:   strPtr("Technology"),
		Industry: strPtr("Software"),
		Extra: map[string]any{
			"market_cap":         float64(1000000),
			"last_updated_price": "2024-01-01",
		},
	}
}

func TestCompanyStore_Upsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCompanyStore(pool)

	require.NoError(t, store.Upsert(ctx, testCompany(1, "ACME")))

	got, err := store.GetByTicker(ctx, "ACME")
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ID)
	require.Equal(t, "ACME Inc", got.Name)
	require.Equal(t, "Technology", *got.Sector)
	require.Equal(t, "2024-01-01", got.Extra["last_updated_price"])
}

func TestCompanyStore_UpsertReplaces(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCompanyStore(pool)

	require.NoError(t, store.Upsert(ctx, testCompany(1, "ACME")))

	updated := testCompany(1, "ACME")
	updated.Name = "Acme Corporation"
	updated.Sector = nil
	require.NoError(t, store.Upsert(ctx, updated))

	got, err := store.GetByTicker(ctx, "ACME")
	require.NoError(t, err)
	require.Equal(t, "Acme Corporation", got.Name)
	require.Nil(t, got.Sector)
}

func TestCompanyStore_GetByTicker_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCompanyStore(pool)
	_, err := store.GetByTicker(context.Background(), "NOPE")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCompanyStore_TickerConflict(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCompanyStore(pool)

	require.NoError(t, store.Upsert(ctx, testCompany(1, "ACME")))

	// Same ticker under a different upstream id violates the unique
	// constraint.
	err := store.Upsert(ctx, testCompany(2, "ACME"))
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestCompanyStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCompanyStore(pool)
	require.ErrorIs(t, store.Upsert(context.Background(), nil), storage.ErrInvalidInput)
	require.ErrorIs(t, store.Upsert(context.Background(), &domain.FlatCompany{ID: 1}), storage.ErrInvalidInput)
}
