package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/cart-service/internal/domain"
	"github.com/fjod/go_cart/cart-service/internal/notify"
	"github.com/fjod/go_cart/cart-service/internal/storage"
	"github.com/fjod/go_cart/pkg/logger"
	"go.uber.org/zap"
)

// snapshotWriteTimeout bounds a snapshot write, which does not follow the caller's cancellation.
const snapshotWriteTimeout = 5 * time.Second

var (
	ErrLookupFailed  = errors.New("stock or product lookup failed")
	ErrStockExceeded = errors.New("requested quantity exceeds stock")
	ErrItemNotFound  = errors.New("product not in cart")
	ErrPersistFailed = errors.New("failed to persist cart")
)

// StockLookup returns the current available quantity of a product.
type StockLookup interface {
	GetStock(ctx context.Context, productID int64) (domain.StockInfo, error)
}

// ProductLookup returns product metadata.
type ProductLookup interface {
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
}

// SnapshotStore is durable key-value storage for the serialized cart.
// Read returns storage.ErrSnapshotNotFound when the key was never written.
type SnapshotStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

type Notifier interface {
	Notify(ctx context.Context, n notify.Notification)
}

type Deps struct {
	Stock    StockLookup
	Products ProductLookup
	Storage  SnapshotStore
	Notifier Notifier
	Logger   *zap.Logger
}

// Store holds one cart. Mutations are serialized and every successful one is
// written to Storage before it becomes visible through Items.
type Store struct {
	stock    StockLookup
	products ProductLookup
	storage  SnapshotStore
	notifier Notifier
	log      *zap.Logger
	key      string

	mu    sync.Mutex // serializes mutations
	items atomic.Pointer[[]domain.LineItem]
}

// New loads the cart persisted under storage.SnapshotKey(cartID). A missing
// or unreadable snapshot starts an empty cart; a storage failure is returned.
func New(ctx context.Context, cartID string, deps Deps) (*Store, error) {
	if deps.Stock == nil || deps.Products == nil || deps.Storage == nil || deps.Notifier == nil {
		return nil, errors.New("cart: stock, products, storage and notifier are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := &Store{
		stock:    deps.Stock,
		products: deps.Products,
		storage:  deps.Storage,
		notifier: deps.Notifier,
		log:      deps.Logger.With(zap.String("cart_id", cartID)),
		key:      storage.SnapshotKey(cartID),
	}

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.items.Store(&items)
	return s, nil
}

func (s *Store) load(ctx context.Context) ([]domain.LineItem, error) {
	data, err := s.storage.Read(ctx, s.key)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		return []domain.LineItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}

	items, err := domain.DecodeSnapshot(data)
	if err != nil {
		s.log.Warn("discarding unreadable cart snapshot", zap.Error(err))
		return []domain.LineItem{}, nil
	}
	return items, nil
}

// Items returns a copy of the cart in insertion order.
func (s *Store) Items() []domain.LineItem {
	current := *s.items.Load()
	out := make([]domain.LineItem, len(current))
	copy(out, current)
	return out
}

// Amounts maps each product in the cart to its quantity.
func (s *Store) Amounts() map[int64]int {
	current := *s.items.Load()
	out := make(map[int64]int, len(current))
	for _, item := range current {
		out[item.ID] = item.Amount
	}
	return out
}

// AddProduct puts one more unit of productID in the cart, adding the product
// with amount 1 when it is not there yet.
func (s *Store) AddProduct(ctx context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := *s.items.Load()
	idx := domain.IndexOf(current, productID)

	stock, err := s.stock.GetStock(ctx, productID)
	if err != nil {
		return s.fail(ctx, notify.CategoryAddFailed, productID, fmt.Errorf("%w: %w", ErrLookupFailed, err))
	}

	if idx >= 0 {
		if current[idx].Amount+1 > stock.Amount {
			return s.fail(ctx, notify.CategoryStockExceeded, productID, ErrStockExceeded)
		}
		next := make([]domain.LineItem, len(current))
		copy(next, current)
		next[idx].Amount++
		return s.commit(ctx, next, notify.CategoryAddFailed, productID)
	}

	if stock.Amount <= 0 {
		return s.fail(ctx, notify.CategoryStockExceeded, productID, ErrStockExceeded)
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return s.fail(ctx, notify.CategoryAddFailed, productID, fmt.Errorf("%w: %w", ErrLookupFailed, err))
	}

	next := make([]domain.LineItem, len(current), len(current)+1)
	copy(next, current)
	next = append(next, domain.LineItem{Product: product, Amount: 1})
	return s.commit(ctx, next, notify.CategoryAddFailed, productID)
}

// RemoveProduct drops the line item for productID whatever its amount.
func (s *Store) RemoveProduct(ctx context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := *s.items.Load()
	idx := domain.IndexOf(current, productID)
	if idx < 0 {
		return s.fail(ctx, notify.CategoryRemoveFailed, productID, ErrItemNotFound)
	}

	next := make([]domain.LineItem, 0, len(current)-1)
	next = append(next, current[:idx]...)
	next = append(next, current[idx+1:]...)
	return s.commit(ctx, next, notify.CategoryRemoveFailed, productID)
}

// UpdateProductAmount sets the quantity of a product already in the cart.
// amount must be within [1, stock].
func (s *Store) UpdateProductAmount(ctx context.Context, productID int64, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := *s.items.Load()
	idx := domain.IndexOf(current, productID)
	if idx < 0 {
		return s.fail(ctx, notify.CategoryAmountChangeFailed, productID, ErrItemNotFound)
	}

	stock, err := s.stock.GetStock(ctx, productID)
	if err != nil {
		return s.fail(ctx, notify.CategoryAmountChangeFailed, productID, fmt.Errorf("%w: %w", ErrLookupFailed, err))
	}

	if amount < 1 || amount > stock.Amount {
		return s.fail(ctx, notify.CategoryStockExceeded, productID, ErrStockExceeded)
	}

	next := make([]domain.LineItem, len(current))
	copy(next, current)
	next[idx].Amount = amount
	return s.commit(ctx, next, notify.CategoryAmountChangeFailed, productID)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, []domain.LineItem{}, notify.CategoryRemoveFailed, 0)
}

// commit writes next to storage and only then publishes it. Must be called with mu held.
func (s *Store) commit(ctx context.Context, next []domain.LineItem, onFailure notify.Category, productID int64) error {
	data, err := domain.EncodeSnapshot(next)
	if err != nil {
		return s.fail(ctx, onFailure, productID, fmt.Errorf("%w: %w", ErrPersistFailed, err))
	}
	if err := s.write(ctx, data); err != nil {
		// The write may have landed even though it reported an error.
		s.restore(ctx)
		return s.fail(ctx, onFailure, productID, fmt.Errorf("%w: %w", ErrPersistFailed, err))
	}

	s.items.Store(&next)
	return nil
}

// write persists data without inheriting the caller's deadline: a request
// timing out mid-write must not leave storage and memory disagreeing.
func (s *Store) write(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotWriteTimeout)
	defer cancel()
	return s.storage.Write(writeCtx, s.key, data)
}

// restore re-writes the published state after a failed write.
func (s *Store) restore(ctx context.Context) {
	data, err := domain.EncodeSnapshot(*s.items.Load())
	if err == nil {
		err = s.write(ctx, data)
	}
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to restore cart snapshot, storage may be ahead of memory", zap.Error(err))
	}
}

func (s *Store) fail(ctx context.Context, c notify.Category, productID int64, err error) error {
	log := logger.WithContext(ctx, s.log)
	if errors.Is(err, ErrStockExceeded) || errors.Is(err, ErrItemNotFound) {
		log.Info("cart change rejected", zap.Int64("product_id", productID), zap.Error(err))
	} else {
		log.Error("cart change failed", zap.Int64("product_id", productID), zap.Error(err))
	}

	s.notifier.Notify(ctx, notify.New(c, productID))
	return err
}
