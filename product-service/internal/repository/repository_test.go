package repository_test

import (
	"context"
	"testing"
	"time"

	db "github.com/fjod/go_cart/product-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *db.Repository {
	// Use in-memory database for tests
	repo, err := db.NewRepository(":memory:")
	require.NoError(t, err)

	require.NoError(t, repo.RunMigrations("./migrations"))
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestGetAllProducts_ReturnsSeededProducts(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.GetAllProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 6)
	for i, p := range products {
		assert.Equal(t, int64(i+1), p.ID, "products are ordered by id")
		assert.NotEmpty(t, p.Title)
		assert.Greater(t, p.Price, 0.0)
	}
}

func TestGetAllProducts_WithContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*1)
	defer cancel()

	products, err := repo.GetAllProducts(ctx)

	require.NoError(t, err)
	assert.Len(t, products, 6)
}

func TestGetAllProducts_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetAllProducts(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetProduct_ReturnsProduct(t *testing.T) {
	repo := setupTestDB(t)

	product, err := repo.GetProduct(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, int64(3), product.ID)
	assert.Equal(t, "Tênis Adidas Duramo Lite 2.0", product.Title)
	assert.InDelta(t, 219.9, product.Price, 0.001)
	assert.Equal(t, "https://static.example.com/products/3.jpg", product.Image)
	assert.False(t, product.CreatedAt.IsZero())
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	product, err := repo.GetProduct(context.Background(), 999)

	assert.ErrorIs(t, err, db.ErrProductNotFound)
	assert.Nil(t, product)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.RunMigrations("./migrations"))

	products, err := repo.GetAllProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 6)
}
