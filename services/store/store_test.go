package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fullStore interface {
	ProductStore
	SettingsStore
}

func newProduct(images ...string) *Product {
	return &Product{
		ID:                uuid.NewString(),
		SourceURL:         "https://jp.mercari.com/item/m123",
		TitleSource:       "ピカチュウ ぬいぐるみ",
		TitleTranslated:   "Pikachu Plush Japan",
		DescriptionSource: "新品",
		PriceSource:       1999,
		Images:            images,
		StockStatus:       StockAvailable,
	}
}

// runStoreSuite exercises the behaviour shared by every backend
func runStoreSuite(t *testing.T, s fullStore) {
	ctx := context.Background()

	t.Run("images round trip", func(t *testing.T) {
		p := newProduct(
			"https://static.mercdn.net/a.jpg",
			"https://static.mercdn.net/b.jpg",
			"https://static.mercdn.net/c.jpg?w=1,h=2",
		)
		require.NoError(t, s.Create(ctx, p))

		got, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Images, got.Images)
		assert.Equal(t, p.TitleSource, got.TitleSource)
		assert.Equal(t, 1999, got.PriceSource)
		assert.Equal(t, StockAvailable, got.StockStatus)
	})

	t.Run("no images", func(t *testing.T) {
		p := newProduct()
		require.NoError(t, s.Create(ctx, p))

		got, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Images)
	})

	t.Run("update", func(t *testing.T) {
		p := newProduct("https://static.mercdn.net/a.jpg")
		require.NoError(t, s.Create(ctx, p))

		updated, err := s.Update(ctx, p.ID, ProductUpdate{TitleTranslated: "Pikachu Plush Rare", PriceTarget: 24.99})
		require.NoError(t, err)
		assert.Equal(t, "Pikachu Plush Rare", updated.TitleTranslated)
		assert.Equal(t, 24.99, updated.PriceTarget)
		assert.Equal(t, p.TitleSource, updated.TitleSource)

		_, err = s.Update(ctx, uuid.NewString(), ProductUpdate{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		p := newProduct()
		require.NoError(t, s.Create(ctx, p))
		require.NoError(t, s.Delete(ctx, p.ID))

		_, err := s.Get(ctx, p.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, p.ID), ErrNotFound)

		products, err := s.List(ctx)
		require.NoError(t, err)
		for _, listed := range products {
			assert.NotEqual(t, p.ID, listed.ID)
		}
	})

	t.Run("settings upsert", func(t *testing.T) {
		require.NoError(t, s.Upsert(ctx, map[string]float64{SettingFeeRate: 10, "exchange_rate": 150.5}))
		require.NoError(t, s.Upsert(ctx, map[string]float64{SettingFeeRate: 12.5}))

		settings, err := s.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, 12.5, settings[SettingFeeRate])
		assert.Equal(t, 150.5, settings["exchange_rate"])
		assert.Contains(t, settings, SettingShippingCost)
		assert.Contains(t, settings, SettingProfitRate)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemoryStore())
}

func TestMemoryStoreDefaults(t *testing.T) {
	s := NewMemoryStore()
	settings, err := s.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		SettingShippingCost: 0,
		SettingFeeRate:      0,
		SettingProfitRate:   0,
	}, settings)

	products, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestMemoryStoreListOrderAndIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := newProduct("https://static.mercdn.net/a.jpg")
	second := newProduct()
	require.NoError(t, s.Create(ctx, first))
	require.NoError(t, s.Create(ctx, second))
	assert.Error(t, s.Create(ctx, first))

	// Mutating the caller's slice must not leak into the store
	first.Images[0] = "mutated"

	products, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, first.ID, products[0].ID)
	assert.Equal(t, "https://static.mercdn.net/a.jpg", products[0].Images[0])
}

// This test requires a running PostgreSQL instance
// If DATABASE_URL is not set or the database is unreachable, the test will be skipped
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is not set, skipping test")
	}

	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Skip("PostgreSQL is not available, skipping test")
	}
	defer s.Close()

	require.NoError(t, s.EnsureSchema(ctx))
	runStoreSuite(t, s)
}
