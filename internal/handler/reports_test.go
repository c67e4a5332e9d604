package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/interpos/api/internal/database"
	"github.com/interpos/api/internal/report"
)

// mockReportStore implements ReportStore.
type mockReportStore struct {
	listOrdersFn        func(ctx context.Context) ([]database.Order, error)
	listLedgerEntriesFn func(ctx context.Context) ([]database.LedgerEntry, error)
}

func (m *mockReportStore) ListOrders(ctx context.Context) ([]database.Order, error) {
	return m.listOrdersFn(ctx)
}
func (m *mockReportStore) ListLedgerEntries(ctx context.Context) ([]database.LedgerEntry, error) {
	return m.listLedgerEntriesFn(ctx)
}

func newReportRouter(store ReportStore) *chi.Mux {
	r := chi.NewRouter()
	NewReportHandler(store, time.UTC).RegisterRoutes(r)
	return r
}

func TestSummary_OK(t *testing.T) {
	day := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := &mockReportStore{
		listOrdersFn: func(ctx context.Context) ([]database.Order, error) {
			return []database.Order{
				{OrderNumber: 1, Amount: makeNumeric("12000"), Method: "Efectivo", Products: "Empanada x2", RecordedAt: day},
			}, nil
		},
		listLedgerEntriesFn: func(ctx context.Context) ([]database.LedgerEntry, error) {
			return nil, nil
		},
	}
	router := newReportRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/reports/summary?startDate=2026-08-01&endDate=2026-08-01", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp report.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalOrders != 1 {
		t.Errorf("totalOrders = %d, want 1", resp.TotalOrders)
	}
	if !resp.TotalSalesCash.Equal(resp.TotalSales) {
		t.Errorf("cash sale should equal total: cash=%s total=%s", resp.TotalSalesCash, resp.TotalSales)
	}
}

func TestSummary_BadDate(t *testing.T) {
	router := newReportRouter(&mockReportStore{})

	req := httptest.NewRequest(http.MethodGet, "/reports/summary?startDate=01-08-2026", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
