package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/interpos/api/internal/database"
	"github.com/jackc/pgx/v5"
)

// AccountStore defines the database methods needed by account handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AccountStore interface {
	GetAccount(ctx context.Context, id int64) (database.Account, error)
	ListAccounts(ctx context.Context) ([]database.Account, error)
}

// AccountHandler serves account lookups for the terminals.
type AccountHandler struct {
	store AccountStore
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(store AccountStore) *AccountHandler {
	return &AccountHandler{store: store}
}

// RegisterRoutes registers account endpoints on the given Chi router.
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.Get)
}

type accountResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

func toAccountResponse(a database.Account) accountResponse {
	return accountResponse{
		ID:      a.ID,
		Name:    a.Name,
		Balance: numericToString(a.Balance),
	}
}

// Get returns one account when ?userId= is given (scanned carnets included),
// otherwise every account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("userId")
	if rawID == "" {
		accounts, err := h.store.ListAccounts(r.Context())
		if err != nil {
			log.Printf("ERROR: list accounts: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp := make([]accountResponse, len(accounts))
		for i, a := range accounts {
			resp[i] = toAccountResponse(a)
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	id, err := normalizeAccountID(rawID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid userId"})
		return
	}

	account, err := h.store.GetAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
			return
		}
		log.Printf("ERROR: get account: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}
