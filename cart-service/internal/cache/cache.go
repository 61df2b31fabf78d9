package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/cart-service/internal/domain"
)

// ProductCache holds product display metadata. Stock is never cached: the
// cart must validate every mutation against a fresh stock read.
type ProductCache interface {
	Get(ctx context.Context, productID int64) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, productID int64) error
}

var ErrCacheMiss = errors.New("cache miss")
