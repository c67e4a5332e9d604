package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/interpos/api/internal/database"
)

// HistoryStore defines the database methods needed by the history handler.
// Satisfied by *database.Queries; narrow interface for testability.
type HistoryStore interface {
	ListLedgerEntriesByAccount(ctx context.Context, accountID int64) ([]database.LedgerEntry, error)
}

// HistoryHandler serves an account's ledger history.
type HistoryHandler struct {
	store HistoryStore
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(store HistoryStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// RegisterRoutes registers history endpoints on the given Chi router.
func (h *HistoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/history", h.List)
}

type ledgerEntryResponse struct {
	ID           string    `json:"id"`
	AccountID    int64     `json:"userId"`
	Name         string    `json:"name,omitempty"`
	Quantity     string    `json:"quantity"`
	PrevBalance  string    `json:"prevBalance"`
	NewBalance   string    `json:"newBalance"`
	Method       string    `json:"method,omitempty"`
	Observations string    `json:"observations,omitempty"`
	RecordedAt   time.Time `json:"recordedAt"`
}

func toLedgerEntryResponse(e database.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:           e.ID.String(),
		AccountID:    e.AccountID,
		Name:         e.Name.String,
		Quantity:     numericToString(e.Quantity),
		PrevBalance:  numericToString(e.PrevBalance),
		NewBalance:   numericToString(e.NewBalance),
		Method:       e.Method.String,
		Observations: e.Observations.String,
		RecordedAt:   e.RecordedAt,
	}
}

// List returns the ledger rows for ?userId=, oldest first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("userId")
	if rawID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userId is required"})
		return
	}

	id, err := normalizeAccountID(rawID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid userId"})
		return
	}

	entries, err := h.store.ListLedgerEntriesByAccount(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list ledger entries: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]ledgerEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toLedgerEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}
