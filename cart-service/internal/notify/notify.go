package notify

import (
	"context"
	"time"

	"github.com/fjod/go_cart/pkg/logger"
	"go.uber.org/zap"
)

// Category identifies one of the fixed user-facing failure messages.
type Category string

const (
	CategoryAddFailed          Category = "add-failed"
	CategoryRemoveFailed       Category = "remove-failed"
	CategoryAmountChangeFailed Category = "amount-change-failed"
	CategoryStockExceeded      Category = "stock-exceeded"
)

var messages = map[Category]string{
	CategoryAddFailed:          "Failed to add product to cart",
	CategoryRemoveFailed:       "Failed to remove product from cart",
	CategoryAmountChangeFailed: "Failed to change product amount",
	CategoryStockExceeded:      "Requested quantity is out of stock",
}

// Message returns the user-visible text for c.
func (c Category) Message() string {
	return messages[c]
}

type Notification struct {
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
	ProductID int64     `json:"product_id"`
	At        time.Time `json:"at"`
}

// New builds the notification for category c about productID.
func New(c Category, productID int64) Notification {
	return Notification{
		Category:  c,
		Message:   c.Message(),
		ProductID: productID,
		At:        time.Now().UTC(),
	}
}

// Notifier delivers a notification. Implementations never block the caller
// on delivery failures and never report them back.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to the service log.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	logger.WithContext(ctx, l.log).Warn(n.Message,
		zap.String("category", string(n.Category)),
		zap.Int64("product_id", n.ProductID),
	)
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
