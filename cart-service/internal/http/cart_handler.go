package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/cart-service/internal/cart"
	"github.com/fjod/go_cart/cart-service/internal/domain"
	"github.com/fjod/go_cart/cart-service/internal/lookup"
	"github.com/fjod/go_cart/pkg/circuitbreaker"
	"github.com/fjod/go_cart/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartStore is the cart the handler operates on.
type CartStore interface {
	Items() []domain.LineItem
	AddProduct(ctx context.Context, productID int64) error
	RemoveProduct(ctx context.Context, productID int64) error
	UpdateProductAmount(ctx context.Context, productID int64, amount int) error
	Clear(ctx context.Context) error
}

type CartHandler struct {
	store   CartStore
	timeout time.Duration
	log     *zap.Logger
}

func NewCartHandler(store CartStore, timeout time.Duration, log *zap.Logger) *CartHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartHandler{
		store:   store,
		timeout: timeout,
		log:     log,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateAmountRequestDTO struct {
	Amount *int `json:"amount"`
}

type CartResponse struct {
	Items      []domain.LineItem `json:"items"`
	TotalItems int               `json:"total_items"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func newCartResponse(items []domain.LineItem) CartResponse {
	resp := CartResponse{Items: items}
	for _, item := range items {
		resp.TotalItems += item.Amount
	}
	return resp
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newCartResponse(h.store.Items()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	// 201 when a new line item appears, 200 when an existing one is incremented
	status := http.StatusCreated
	if domain.IndexOf(h.store.Items(), req.ProductID) >= 0 {
		status = http.StatusOK
	}

	if err := h.store.AddProduct(ctx, req.ProductID); err != nil {
		h.handleCartError(w, r, err)
		return
	}

	respondJSON(w, status, newCartResponse(h.store.Items()))
}

func (h *CartHandler) UpdateAmount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateAmountRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Amount == nil {
		respondError(w, http.StatusBadRequest, "invalid_amount", "amount is required")
		return
	}

	// amount bounds are checked by the store against live stock
	if err := h.store.UpdateProductAmount(ctx, productID, *req.Amount); err != nil {
		h.handleCartError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(h.store.Items()))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := h.store.RemoveProduct(ctx, productID); err != nil {
		h.handleCartError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(h.store.Items()))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Clear(ctx); err != nil {
		h.handleCartError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(h.store.Items()))
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}

// handleCartError converts store errors to HTTP status codes.
func (h *CartHandler) handleCartError(w http.ResponseWriter, r *http.Request, err error) {
	var httpStatus int
	var code, message string

	switch {
	case errors.Is(err, cart.ErrStockExceeded):
		httpStatus, code, message = http.StatusConflict, "stock_exceeded", "requested quantity is out of stock"
	case errors.Is(err, cart.ErrItemNotFound):
		httpStatus, code, message = http.StatusNotFound, "not_found", "product is not in the cart"
	case errors.Is(err, lookup.ErrNotFound):
		httpStatus, code, message = http.StatusNotFound, "product_not_found", "product does not exist"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus, code, message = http.StatusGatewayTimeout, "timeout", "upstream request timed out"
	case errors.Is(err, circuitbreaker.ErrOpenState), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		httpStatus, code, message = http.StatusServiceUnavailable, "service_unavailable", "upstream service unavailable"
	case errors.Is(err, cart.ErrLookupFailed):
		httpStatus, code, message = http.StatusBadGateway, "lookup_failed", "failed to load stock or product"
	case errors.Is(err, cart.ErrPersistFailed):
		httpStatus, code, message = http.StatusInternalServerError, "persist_failed", "failed to save cart"
	default:
		httpStatus, code, message = http.StatusInternalServerError, "internal_error", "internal server error"
	}

	if httpStatus >= http.StatusInternalServerError {
		logger.WithContext(r.Context(), h.log).Error("cart request failed",
			zap.String("request_id", getRequestID(r.Context())),
			zap.String("code", code),
			zap.Error(err),
		)
	}
	respondError(w, httpStatus, code, message)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
