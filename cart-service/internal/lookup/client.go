package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/cart-service/internal/domain"
	"github.com/fjod/go_cart/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidResponse = errors.New("invalid response")
)

// StatusError is returned for any non-2xx answer other than 404.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}

// notFoundIsSuccess keeps a healthy backend answering 404 from tripping the breaker.
// A caller giving up says nothing about the backend either.
func notFoundIsSuccess(err error) bool {
	return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", url, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{URL: url, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: %w: %v", url, ErrInvalidResponse, err)
	}
	return nil
}

// StockClient reads stock from the inventory service: GET {base}/stock/{id}.
type StockClient struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[domain.StockInfo]
}

func NewStockClient(baseURL string, timeout time.Duration, log *zap.Logger) *StockClient {
	return &StockClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(timeout),
		breaker: circuitbreaker.New[domain.StockInfo](circuitbreaker.Settings{
			Name:         "stock-lookup",
			IsSuccessful: notFoundIsSuccess,
		}, log),
	}
}

func (c *StockClient) GetStock(ctx context.Context, productID int64) (domain.StockInfo, error) {
	return c.breaker.Execute(func() (domain.StockInfo, error) {
		var stock domain.StockInfo
		url := fmt.Sprintf("%s/stock/%d", c.baseURL, productID)
		if err := getJSON(ctx, c.http, url, &stock); err != nil {
			return domain.StockInfo{}, err
		}
		if stock.Amount < 0 {
			return domain.StockInfo{}, fmt.Errorf("%w: negative stock %d for product %d", ErrInvalidResponse, stock.Amount, productID)
		}
		if stock.ProductID == 0 {
			stock.ProductID = productID
		}
		return stock, nil
	})
}

// ProductClient reads product metadata from the product service: GET {base}/products/{id}.
type ProductClient struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[domain.Product]
}

func NewProductClient(baseURL string, timeout time.Duration, log *zap.Logger) *ProductClient {
	return &ProductClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(timeout),
		breaker: circuitbreaker.New[domain.Product](circuitbreaker.Settings{
			Name:         "product-lookup",
			IsSuccessful: notFoundIsSuccess,
		}, log),
	}
}

func (c *ProductClient) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	return c.breaker.Execute(func() (domain.Product, error) {
		var product domain.Product
		url := fmt.Sprintf("%s/products/%d", c.baseURL, productID)
		if err := getJSON(ctx, c.http, url, &product); err != nil {
			return domain.Product{}, err
		}
		if product.ID != productID {
			return domain.Product{}, fmt.Errorf("%w: asked for product %d, got %d", ErrInvalidResponse, productID, product.ID)
		}
		return product, nil
	})
}
