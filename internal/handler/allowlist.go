package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/interpos/api/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"
)

// AllowlistStore defines the database methods needed by allow-list handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AllowlistStore interface {
	ListAllowedEmails(ctx context.Context) ([]database.AllowedEmail, error)
	CreateAllowedEmail(ctx context.Context, arg database.CreateAllowedEmailParams) (database.AllowedEmail, error)
	DeleteAllowedEmail(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// AllowlistHandler manages the login allow-list. Admin only.
type AllowlistHandler struct {
	store AllowlistStore
}

// NewAllowlistHandler creates a new AllowlistHandler.
func NewAllowlistHandler(store AllowlistStore) *AllowlistHandler {
	return &AllowlistHandler{store: store}
}

// RegisterRoutes registers allow-list endpoints on the given Chi router.
// Expected to be mounted under an admin-gated subrouter.
func (h *AllowlistHandler) RegisterRoutes(r chi.Router) {
	r.Get("/allowed-emails", h.List)
	r.Post("/allowed-emails", h.Create)
	r.Delete("/allowed-emails/{id}", h.Delete)
}

// --- Request / Response types ---

type createAllowedEmailRequest struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type allowedEmailResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toAllowedEmailResponse(a database.AllowedEmail) allowedEmailResponse {
	return allowedEmailResponse{
		ID:        a.ID.String(),
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

// --- Handlers ---

// List returns every allow-listed email. Password hashes never leave the
// database layer.
func (h *AllowlistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListAllowedEmails(r.Context())
	if err != nil {
		log.Printf("ERROR: list allowed emails: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]allowedEmailResponse, len(entries))
	for i, a := range entries {
		resp[i] = toAllowedEmailResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds an email to the allow-list. Role defaults to CASHIER; a
// password may be provisioned now or left for later.
func (h *AllowlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAllowedEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "valid email is required"})
		return
	}

	role := strings.ToUpper(strings.TrimSpace(req.Role))
	switch role {
	case "":
		role = "CASHIER"
	case "ADMIN", "CASHIER":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role must be ADMIN or CASHIER"})
		return
	}

	var hashed pgtype.Text
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("ERROR: hash password: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		hashed = pgtype.Text{String: string(hash), Valid: true}
	}

	entry, err := h.store.CreateAllowedEmail(r.Context(), database.CreateAllowedEmailParams{
		Email:          email,
		Role:           role,
		HashedPassword: hashed,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already allow-listed"})
			return
		}
		log.Printf("ERROR: create allowed email: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toAllowedEmailResponse(entry))
}

// Delete removes an email from the allow-list.
func (h *AllowlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if _, err := h.store.DeleteAllowedEmail(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "email not found"})
			return
		}
		log.Printf("ERROR: delete allowed email: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
