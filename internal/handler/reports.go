package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/interpos/api/internal/database"
	"github.com/interpos/api/internal/report"
)

// ReportStore defines the database methods needed by the reports handler.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportStore interface {
	ListOrders(ctx context.Context) ([]database.Order, error)
	ListLedgerEntries(ctx context.Context) ([]database.LedgerEntry, error)
}

// ReportHandler serves aggregated sales/recharge summaries.
type ReportHandler struct {
	store ReportStore
	loc   *time.Location
}

// NewReportHandler creates a new ReportHandler. loc is the venue timezone
// used to bucket timestamps into calendar days.
func NewReportHandler(store ReportStore, loc *time.Location) *ReportHandler {
	return &ReportHandler{store: store, loc: loc}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/summary", h.Summary)
}

// Summary aggregates orders and recharges over an inclusive
// ?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD range. Missing bounds are open.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")

	for _, d := range []string{startDate, endDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dates must be YYYY-MM-DD"})
			return
		}
	}

	orders, err := h.store.ListOrders(r.Context())
	if err != nil {
		log.Printf("ERROR: list orders for summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	entries, err := h.store.ListLedgerEntries(r.Context())
	if err != nil {
		log.Printf("ERROR: list ledger entries for summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, report.Summarize(orders, entries, startDate, endDate, h.loc))
}
