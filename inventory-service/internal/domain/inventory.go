package domain

// StockInfo is the quantity of a product available for carts.
type StockInfo struct {
	ProductID int64 `json:"id"`
	Amount    int   `json:"amount"`
}
