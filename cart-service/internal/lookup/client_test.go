package lookup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/cart-service/internal/domain"
	"github.com/fjod/go_cart/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestStockClient_GetStock(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/5", r.URL.Path)
		fmt.Fprint(w, `{"id":5,"amount":3}`)
	})

	client := NewStockClient(srv.URL+"/", time.Second, nil)
	stock, err := client.GetStock(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, domain.StockInfo{ProductID: 5, Amount: 3}, stock)
}

func TestStockClient_FillsMissingProductID(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"amount":0}`)
	})

	stock, err := NewStockClient(srv.URL, time.Second, nil).GetStock(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), stock.ProductID)
	assert.Equal(t, 0, stock.Amount)
}

func TestStockClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) },
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, http.StatusBadGateway, statusErr.Code)
			},
		},
		{
			name:    "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"amount":`) },
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidResponse) },
		},
		{
			name:    "negative stock",
			handler: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"id":1,"amount":-1}`) },
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidResponse) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBackend(t, tt.handler)
			_, err := NewStockClient(srv.URL, time.Second, nil).GetStock(context.Background(), 1)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestStockClient_Timeout(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	_, err := NewStockClient(srv.URL, 20*time.Millisecond, nil).GetStock(context.Background(), 1)
	assert.Error(t, err)
}

func TestStockClient_BreakerOpensOnRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := NewStockClient(srv.URL, time.Second, nil)
	for i := 0; i < 5; i++ {
		_, err := client.GetStock(context.Background(), 1)
		require.Error(t, err)
	}

	_, err := client.GetStock(context.Background(), 1)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpenState)
	assert.Equal(t, int32(5), hits.Load())
}

func TestStockClient_NotFoundDoesNotOpenBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	})

	client := NewStockClient(srv.URL, time.Second, nil)
	for i := 0; i < 8; i++ {
		_, err := client.GetStock(context.Background(), 1)
		require.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(8), hits.Load())
}

func TestStockClient_CallerCancellationDoesNotOpenBreaker(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1,"amount":3}`)
	})

	client := NewStockClient(srv.URL, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 8; i++ {
		_, err := client.GetStock(ctx, 1)
		require.ErrorIs(t, err, context.Canceled)
	}

	stock, err := client.GetStock(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stock.Amount)
}

func TestProductClient_GetProduct(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/5", r.URL.Path)
		fmt.Fprint(w, `{"id":5,"title":"Sneaker","price":139.9,"image":"https://img/5.jpg"}`)
	})

	product, err := NewProductClient(srv.URL, time.Second, nil).GetProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, domain.Product{ID: 5, Title: "Sneaker", Price: 139.9, Image: "https://img/5.jpg"}, product)
}

func TestProductClient_MismatchedID(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":6,"title":"Other"}`)
	})

	_, err := NewProductClient(srv.URL, time.Second, nil).GetProduct(context.Background(), 5)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestProductClient_NotFound(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })

	_, err := NewProductClient(srv.URL, time.Second, nil).GetProduct(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
}
