package store

import (
	"sort"
	"sync"

	"github.com/fjod/go_cart/inventory-service/internal/domain"
)

// MemoryStore implements InventoryStore with in-memory storage
type MemoryStore struct {
	mu     sync.RWMutex
	stocks map[int64]int // productID -> available quantity
}

// NewMemoryStore creates a new in-memory inventory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stocks: make(map[int64]int)}
}

// GetStock returns stock information for the given product IDs
func (s *MemoryStore) GetStock(productIDs []int64) ([]domain.StockInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockInfo, 0, len(productIDs))
	for _, id := range productIDs {
		if amount, exists := s.stocks[id]; exists {
			result = append(result, domain.StockInfo{ProductID: id, Amount: amount})
		}
	}
	return result, nil
}

func (s *MemoryStore) ListStock() ([]domain.StockInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockInfo, 0, len(s.stocks))
	for id, amount := range s.stocks {
		result = append(result, domain.StockInfo{ProductID: id, Amount: amount})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProductID < result[j].ProductID })
	return result, nil
}

// SetStock sets the stock level for a product
func (s *MemoryStore) SetStock(productID int64, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stocks[productID] = quantity
	return nil
}
