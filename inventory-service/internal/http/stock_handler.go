package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/inventory-service/internal/store"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type StockHandler struct {
	store store.InventoryStore
	log   *zap.Logger
}

func NewStockHandler(s store.InventoryStore, log *zap.Logger) *StockHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StockHandler{store: s, log: log}
}

type SetStockRequestDTO struct {
	Amount *int `json:"amount"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.store.ListStock()
	if err != nil {
		h.log.Error("failed to list stock", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list stock")
		return
	}
	respondJSON(w, http.StatusOK, stocks)
}

func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	stocks, err := h.store.GetStock([]int64{productID})
	if err != nil {
		h.log.Error("failed to get stock", zap.Int64("product_id", productID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get stock")
		return
	}
	if len(stocks) == 0 {
		respondError(w, http.StatusNotFound, "not_found", store.ErrProductNotFound.Error())
		return
	}

	respondJSON(w, http.StatusOK, stocks[0])
}

// Set replaces the stock level of a product. Operators use it to restock.
func (h *StockHandler) Set(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req SetStockRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "body must be {\"amount\": <int>}")
		return
	}

	if err := h.store.SetStock(productID, *req.Amount); err != nil {
		if errors.Is(err, store.ErrInvalidQuantity) {
			respondError(w, http.StatusBadRequest, "invalid_amount", err.Error())
			return
		}
		h.log.Error("failed to set stock", zap.Int64("product_id", productID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to set stock")
		return
	}

	h.log.Info("stock updated", zap.Int64("product_id", productID), zap.Int("amount", *req.Amount))
	w.WriteHeader(http.StatusNoContent)
}

// NewRouter mounts the stock routes.
func NewRouter(h *StockHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/stock", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Set)
	})
	return r
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
