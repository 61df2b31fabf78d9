package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	c "github.com/fjod/go_cart/cart-service/internal/cache"
	"github.com/fjod/go_cart/cart-service/internal/cart"
	"github.com/fjod/go_cart/cart-service/internal/config"
	h "github.com/fjod/go_cart/cart-service/internal/http"
	"github.com/fjod/go_cart/cart-service/internal/lookup"
	"github.com/fjod/go_cart/cart-service/internal/notify"
	"github.com/fjod/go_cart/cart-service/internal/storage"
	"github.com/fjod/go_cart/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{Service: "cart-service", Env: cfg.Env, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	os.Exit(exitCode(log, run(cfg, log)))
}

// exitCode flushes the logger before the process exits, which deferred calls would not survive.
func exitCode(log *zap.Logger, err error) int {
	code := 0
	if err != nil {
		log.Error("cart service failed", zap.Error(err))
		code = 1
	}
	_ = log.Sync()
	return code
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		closers = append(closers, func() { redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
	}

	snapshots, closeStorage, err := openStorage(ctx, cfg, redisClient, log)
	if err != nil {
		return err
	}
	if closeStorage != nil {
		closers = append(closers, closeStorage)
	}

	stock := lookup.NewStockClient(cfg.StockServiceURL, cfg.LookupTimeout, log)
	var products cart.ProductLookup = lookup.NewProductClient(cfg.ProductServiceURL, cfg.LookupTimeout, log)
	if cfg.ProductCacheEnabled {
		products = lookup.NewCachedProducts(products, c.NewRedisCache(redisClient), log)
		log.Info("product metadata cache enabled")
	}

	notifiers := notify.Multi{notify.NewLogNotifier(log)}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(cfg.CartID, cfg.NotifyTopic, log, cfg.KafkaBrokers...)
		closers = append(closers, func() {
			if err := kafkaNotifier.Close(); err != nil {
				log.Error("failed to close kafka writer", zap.Error(err))
			}
		})
		notifiers = append(notifiers, kafkaNotifier)
		log.Info("publishing notifications to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.NotifyTopic))
	}

	store, err := cart.New(ctx, cfg.CartID, cart.Deps{
		Stock:    stock,
		Products: products,
		Storage:  snapshots,
		Notifier: notifiers,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	log.Info("cart loaded", zap.String("cart_id", cfg.CartID), zap.Int("items", len(store.Items())))

	cartHandler := h.NewCartHandler(store, cfg.RequestTimeout, log)
	router := h.NewRouter(cartHandler, log, cfg.MaxRequestBodySize)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "cart-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("cart service listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down cart service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("cart service stopped")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, redisClient *redis.Client, log *zap.Logger) (cart.SnapshotStore, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		return storage.NewRedisStore(redisClient), nil, nil

	case config.BackendMongo:
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		mongoStore := storage.NewMongoStore(db)
		log.Info("connected to mongodb", zap.String("db", cfg.MongoDBName))
		return mongoStore, func() {
			if err := mongoStore.Close(context.Background()); err != nil {
				log.Error("failed to disconnect from mongodb", zap.Error(err))
			}
		}, nil

	case config.BackendMemory:
		log.Warn("using in-memory cart storage, the cart is lost on restart")
		return storage.NewMemoryStore(), nil, nil

	default:
		fileStore, err := storage.NewFileStore(cfg.StorageFileDir)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using file cart storage", zap.String("dir", cfg.StorageFileDir))
		return fileStore, nil, nil
	}
}
