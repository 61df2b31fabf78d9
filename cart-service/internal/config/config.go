package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	HTTPPort string
	Env      string
	LogLevel string
	CartID   string

	StorageBackend string
	StorageFileDir string
	RedisAddr      string
	RedisPassword  string
	MongoURI       string
	MongoDBName    string

	StockServiceURL     string
	ProductServiceURL   string
	LookupTimeout       time.Duration
	ProductCacheEnabled bool

	KafkaBrokers []string
	NotifyTopic  string

	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Env:      getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		CartID:   getEnv("CART_ID", "default"),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendFile)),
		StorageFileDir: getEnv("STORAGE_FILE_DIR", "./data"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "cartdb"),

		StockServiceURL:   getEnv("STOCK_SERVICE_URL", "http://localhost:8081"),
		ProductServiceURL: getEnv("PRODUCT_SERVICE_URL", "http://localhost:8082"),

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		NotifyTopic:  getEnv("NOTIFY_TOPIC", "cart-notifications"),

		MaxRequestBodySize: 1 << 20, // 1MB
	}

	var err error
	if cfg.LookupTimeout, err = getEnvDuration("LOOKUP_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProductCacheEnabled, err = getEnvBool("PRODUCT_CACHE_ENABLED", false); err != nil {
		return nil, err
	}

	switch cfg.StorageBackend {
	case BackendFile, BackendRedis, BackendMongo, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	if cfg.CartID == "" {
		return nil, fmt.Errorf("CART_ID must not be empty")
	}
	return cfg, nil
}

// NeedsRedis reports whether any component talks to redis.
func (c *Config) NeedsRedis() bool {
	return c.StorageBackend == BackendRedis || c.ProductCacheEnabled
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
