package store

import (
	"errors"

	"github.com/fjod/go_cart/inventory-service/internal/domain"
)

// Common errors returned by the store
var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("stock quantity must not be negative")
)

// InventoryStore defines the interface for inventory storage operations
type InventoryStore interface {
	// GetStock returns stock information for the given product IDs.
	// Unknown IDs are skipped.
	GetStock(productIDs []int64) ([]domain.StockInfo, error)

	// ListStock returns every known product ordered by ID.
	ListStock() ([]domain.StockInfo, error)

	// SetStock sets the stock level for a product
	SetStock(productID int64, quantity int) error
}
