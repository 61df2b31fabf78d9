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

	h "github.com/fjod/go_cart/product-service/internal/http"
	"github.com/fjod/go_cart/product-service/internal/repository"
	"github.com/fjod/go_cart/pkg/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log, err := logger.New(logger.Options{
		Service: "product-service",
		Env:     getEnv("APP_ENV", "dev"),
		Level:   getEnv("LOG_LEVEL", "info"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Use environment variables with sensible defaults
	dbPath := getEnv("DB_PATH", "./internal/repository/products.db")
	migrationsPath := getEnv("MIGRATIONS_PATH", "./internal/repository/migrations")
	port := getEnv("HTTP_PORT", "8082")

	repo, err := repository.NewRepository(dbPath)
	if err != nil {
		log.Fatal("failed to open product database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(migrationsPath); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("migrations completed successfully")

	router := h.NewRouter(h.NewProductHandler(repo, 5*time.Second, log))
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      otelhttp.NewHandler(router, "product-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("product service listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down product service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
}
