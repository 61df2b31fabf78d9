package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedSnapshot = errors.New("malformed cart snapshot")

// Product is the catalog view of an item. Everything but ID is display
// metadata the cart stores and returns untouched.
type Product struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// StockInfo is a point-in-time read of the available quantity for a product
type StockInfo struct {
	ProductID int64 `json:"id"`
	Amount    int   `json:"amount"`
}

// LineItem is a product held in the cart together with its quantity.
// Amount is always >= 1; a product with nothing left is removed instead.
type LineItem struct {
	Product
	Amount int `json:"amount"`
}

// IndexOf returns the position of productID in items or -1.
func IndexOf(items []LineItem, productID int64) int {
	for i := range items {
		if items[i].ID == productID {
			return i
		}
	}
	return -1
}

// EncodeSnapshot serializes the cart in order. A nil cart encodes as an
// empty array so readers never see "null".
func EncodeSnapshot(items []LineItem) ([]byte, error) {
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot failed: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot written by EncodeSnapshot and checks the
// cart invariants: unique product IDs and positive amounts.
func DecodeSnapshot(data []byte) ([]LineItem, error) {
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: not an array", ErrMalformedSnapshot)
	}

	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if item.Amount < 1 {
			return nil, fmt.Errorf("%w: product %d has amount %d", ErrMalformedSnapshot, item.ID, item.Amount)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product %d", ErrMalformedSnapshot, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return items, nil
}
