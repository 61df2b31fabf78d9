package lookup

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/fjod/go_cart/cart-service/internal/cache"
	"github.com/fjod/go_cart/cart-service/internal/domain"
	"github.com/fjod/go_cart/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type productSource interface {
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
}

// CachedProducts puts a metadata cache in front of a product source.
type CachedProducts struct {
	next  productSource
	cache cache.ProductCache
	sfg   singleflight.Group // Prevents cache stampede
	log   *zap.Logger
}

func NewCachedProducts(next productSource, c cache.ProductCache, log *zap.Logger) *CachedProducts {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedProducts{next: next, cache: c, log: log}
}

func (c *CachedProducts) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := c.sfg.Do(strconv.FormatInt(productID, 10), func() (interface{}, error) {
		product, err := c.cache.Get(ctx, productID)
		if err == nil {
			return *product, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.WithContext(ctx, c.log).Warn("product cache get error", zap.Error(err)) // continue without cache
		}

		fetched, err := c.next.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := c.cache.Set(setCtx, &fetched); errSet != nil {
				c.log.Warn("product cache set error", zap.Int64("product_id", productID), zap.Error(errSet))
			}
		}()

		return fetched, nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	return v.(domain.Product), nil
}
