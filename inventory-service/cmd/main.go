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

	h "github.com/fjod/go_cart/inventory-service/internal/http"
	"github.com/fjod/go_cart/inventory-service/internal/store"
	"github.com/fjod/go_cart/pkg/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Initial stock levels matching product-service seeds
var initialStock = map[int64]int{
	1: 3,
	2: 5,
	3: 2,
	4: 1,
	5: 5,
	6: 10,
}

func main() {
	log, err := logger.New(logger.Options{
		Service: "inventory-service",
		Env:     getEnv("APP_ENV", "dev"),
		Level:   getEnv("LOG_LEVEL", "info"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	port := getEnv("HTTP_PORT", "8081")

	memStore := store.NewMemoryStore()
	for productID, quantity := range initialStock {
		if err := memStore.SetStock(productID, quantity); err != nil {
			log.Fatal("failed to set initial stock", zap.Int64("product_id", productID), zap.Error(err))
		}
	}
	log.Info("initialized stock", zap.Int("products", len(initialStock)))

	router := h.NewRouter(h.NewStockHandler(memStore, log))
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      otelhttp.NewHandler(router, "inventory-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("inventory service listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down inventory service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("inventory service stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
