package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"toko/inventory-api/internal/service"
)

type StoreHandler struct {
	svc *service.InventoryService
}

func NewStoreHandler(svc *service.InventoryService) *StoreHandler {
	return &StoreHandler{svc: svc}
}

type PurchaseRequest struct {
	BuyerName string `json:"buyer_name"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
}

type PurchaseResponse struct {
	Message    string `json:"message"`
	PurchaseID string `json:"purchase_id"`
	ItemID     int64  `json:"item_id"`
	TotalPaid  string `json:"total_paid"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta"`
}

type AdjustStockResponse struct {
	NewStock int `json:"new_stock"`
}

func (h *StoreHandler) SubmitPurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := h.svc.Purchase(r.Context(), req.BuyerName, req.ItemName, req.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, PurchaseResponse{
		Message:    fmt.Sprintf("Thank you for your purchase, %s!", req.BuyerName),
		PurchaseID: receipt.PurchaseID,
		ItemID:     receipt.ItemID,
		TotalPaid:  receipt.TotalPaid.String(),
	})
}

func (h *StoreHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newStock, err := h.svc.AdjustStock(r.Context(), itemID, req.Delta)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AdjustStockResponse{NewStock: newStock})
}

func (h *StoreHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListItems(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// PurchaseHistory lists purchases, filtered by the optional buyer query
// parameter. No matches is a 200 with an empty array, not a 404.
func (h *StoreHandler) PurchaseHistory(w http.ResponseWriter, r *http.Request) {
	buyer := r.URL.Query().Get("buyer")

	purchases, err := h.svc.PurchaseHistory(r.Context(), buyer)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err.Error())
	default:
		// Log error internally in production
		fmt.Printf("Storage error: %v\n", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
