package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/interpos/api/internal/money"
	"github.com/interpos/api/internal/service"
)

// LedgerRecorder defines the service methods needed by the ledger handlers.
// Satisfied by *service.LedgerService; narrow interface for testability.
type LedgerRecorder interface {
	Recharge(ctx context.Context, req service.RechargeRequest) (*service.MovementResult, error)
	Sell(ctx context.Context, req service.SellRequest) (*service.MovementResult, error)
}

// LedgerHandler handles the two balance-movement endpoints.
type LedgerHandler struct {
	service LedgerRecorder
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(service LedgerRecorder) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// RegisterRoutes registers ledger endpoints on the given Chi router.
func (h *LedgerHandler) RegisterRoutes(r chi.Router) {
	r.Post("/recharge", h.Recharge)
	r.Post("/sell", h.Sell)
}

// --- Request / Response types ---

// Ids and amounts arrive as numbers or strings depending on the terminal
// build, so they decode through RawMessage.
type rechargeRequest struct {
	UserID       json.RawMessage `json:"userId"`
	Quantity     json.RawMessage `json:"quantity"`
	NewBalance   json.RawMessage `json:"newBalance"` // accepted, recomputed server-side
	Method       string          `json:"method"`
	Observations string          `json:"observations"`
}

type sellRequest struct {
	UserID    json.RawMessage `json:"userId"`
	ProductID json.RawMessage `json:"productId"`
	Total     json.RawMessage `json:"total"`
}

type movementResponse struct {
	Success    bool   `json:"success"`
	NewBalance string `json:"newBalance"`
}

// --- Handlers ---

// Recharge credits an account. The recorded new balance is always the stored
// balance plus the quantity; whatever the terminal computed is ignored.
func (h *LedgerHandler) Recharge(w http.ResponseWriter, r *http.Request) {
	var req rechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	accountID, err := normalizeAccountID(rawString(req.UserID))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid userId"})
		return
	}

	result, err := h.service.Recharge(r.Context(), service.RechargeRequest{
		AccountID:    accountID,
		Quantity:     money.ParseJSONAmount(req.Quantity),
		Method:       req.Method,
		Observations: req.Observations,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be non-zero"})
		case errors.Is(err, service.ErrAccountNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
		default:
			log.Printf("ERROR: recharge: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, movementResponse{
		Success:    true,
		NewBalance: numericToString(result.Account.Balance),
	})
}

// Sell debits an account for a purchase paid from balance.
func (h *LedgerHandler) Sell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	accountID, err := normalizeAccountID(rawString(req.UserID))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid userId"})
		return
	}

	productID, _ := normalizeProductID(rawString(req.ProductID))

	result, err := h.service.Sell(r.Context(), service.SellRequest{
		AccountID: accountID,
		ProductID: productID,
		Total:     money.ParseJSONAmount(req.Total),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTotal):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "total must be > 0"})
		case errors.Is(err, service.ErrInsufficientBalance):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "insufficient balance"})
		case errors.Is(err, service.ErrAccountNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
		default:
			log.Printf("ERROR: sell: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, movementResponse{
		Success:    true,
		NewBalance: numericToString(result.Account.Balance),
	})
}
