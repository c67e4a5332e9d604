package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/interpos/api/internal/database"
	"github.com/interpos/api/internal/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]database.Product, error)
	UpsertProduct(ctx context.Context, arg database.UpsertProductParams) (database.Product, error)
	DeleteProduct(ctx context.Context, id int64) (int64, error)
}

// ProductHandler handles catalog CRUD.
type ProductHandler struct {
	store ProductStore
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// RegisterRoutes registers product endpoints on the given Chi router.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Post("/products", h.Save)
	r.Delete("/products/{id}", h.Delete)
}

// --- Request / Response types ---

type saveProductRequest struct {
	ID       json.RawMessage `json:"id"`
	Category string          `json:"category"`
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
}

type productResponse struct {
	ID       int64  `json:"id"`
	Category string `json:"category,omitempty"`
	Name     string `json:"name"`
	Price    string `json:"price"`
}

func toProductResponse(p database.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		Category: p.Category.String,
		Name:     p.Name,
		Price:    numericToString(p.Price),
	}
}

// --- Handlers ---

// List returns the catalog, optionally filtered by ?search= on name and
// category.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Category.String), search) {
			continue
		}
		resp = append(resp, toProductResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Save creates or replaces a product; the terminals send full rows, so this
// is an upsert keyed on id.
func (h *ProductHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	id, err := normalizeProductID(rawString(req.ID))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	var category pgtype.Text
	if req.Category != "" {
		category = pgtype.Text{String: req.Category, Valid: true}
	}

	product, err := h.store.UpsertProduct(r.Context(), database.UpsertProductParams{
		ID:       id,
		Category: category,
		Name:     req.Name,
		Price:    decimalToNumeric(money.ParseJSONAmount(req.Price)),
	})
	if err != nil {
		log.Printf("ERROR: save product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Delete removes a product from the catalog.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	if _, err := h.store.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: delete product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
