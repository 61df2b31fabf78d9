package notify

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/fjod/go_cart/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const DefaultTopic = "cart-notifications"

// messageWriter is the part of *kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes notifications so UI gateways can turn them into toasts.
type KafkaNotifier struct {
	writer messageWriter
	cartID string
	log    *zap.Logger
}

// NewKafkaNotifier creates an asynchronous writer: Notify returns as soon as
// the message is buffered and delivery errors are only logged.
func NewKafkaNotifier(cartID, topic string, log *zap.Logger, brokers ...string) *KafkaNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error("failed to publish notifications", zap.Int("count", len(messages)), zap.Error(err))
			}
		},
	}
	return &KafkaNotifier{writer: w, cartID: cartID, log: log}
}

func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		logger.WithContext(ctx, k.log).Error("failed to marshal notification", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(k.cartID), // one partition per cart keeps toasts ordered
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(n.Category)},
			{Key: "product_id", Value: []byte(strconv.FormatInt(n.ProductID, 10))},
		},
	}

	// The request context may be cancelled right after the cart call returns.
	if err := k.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		logger.WithContext(ctx, k.log).Error("failed to publish notification",
			zap.String("category", string(n.Category)), zap.Error(err))
	}
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
