package store

import (
	"sync"
	"testing"

	"github.com/fjod/go_cart/inventory-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetStock_And_GetStock(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.SetStock(1, 100))
	require.NoError(t, store.SetStock(2, 200))

	stocks, err := store.GetStock([]int64{1, 2, 3})
	require.NoError(t, err)

	// Should return only existing products
	assert.Equal(t, []domain.StockInfo{
		{ProductID: 1, Amount: 100},
		{ProductID: 2, Amount: 200},
	}, stocks)
}

func TestMemoryStore_SetStock_Overwrites(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.SetStock(1, 100))
	require.NoError(t, store.SetStock(1, 0))

	stocks, err := store.GetStock([]int64{1})
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, 0, stocks[0].Amount)
}

func TestMemoryStore_SetStock_Negative(t *testing.T) {
	store := NewMemoryStore()

	err := store.SetStock(1, -1)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	stocks, _ := store.GetStock([]int64{1})
	assert.Empty(t, stocks)
}

func TestMemoryStore_ListStock_SortedByID(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.SetStock(3, 30))
	require.NoError(t, store.SetStock(1, 10))
	require.NoError(t, store.SetStock(2, 20))

	stocks, err := store.ListStock()
	require.NoError(t, err)

	assert.Equal(t, []domain.StockInfo{
		{ProductID: 1, Amount: 10},
		{ProductID: 2, Amount: 20},
		{ProductID: 3, Amount: 30},
	}, stocks)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.SetStock(1, 0))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.SetStock(1, n)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.GetStock([]int64{1})
		}()
	}
	wg.Wait()

	stocks, err := store.GetStock([]int64{1})
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.GreaterOrEqual(t, stocks[0].Amount, 0)
}
