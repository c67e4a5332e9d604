package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/interpos/api/internal/database"
	"github.com/interpos/api/internal/money"
	"github.com/interpos/api/internal/service"
	"github.com/interpos/api/internal/ws"
)

// OrderNumberStore defines the database methods needed by the order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderNumberStore interface {
	MaxOrderNumber(ctx context.Context) (int64, error)
}

// OrderRecorder defines the service methods needed to record orders.
// Satisfied by *service.OrderService.
type OrderRecorder interface {
	RecordOrder(ctx context.Context, req service.RecordOrderRequest) (*database.Order, error)
}

// Broadcaster fans recorded orders out to connected terminals.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

// OrderHandler handles order-number peeking and order recording.
type OrderHandler struct {
	store    OrderNumberStore
	recorder OrderRecorder
	hub      Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderNumberStore, recorder OrderRecorder, hub Broadcaster) *OrderHandler {
	return &OrderHandler{store: store, recorder: recorder, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.Next)
	r.Post("/orders", h.Record)
}

// --- Request / Response types ---

type recordOrderRequest struct {
	OrderNumber  json.RawMessage `json:"orderNumber"`
	UserID       json.RawMessage `json:"userId"`
	CustomerName string          `json:"customerName"`
	Total        json.RawMessage `json:"total"`
	Method       string          `json:"method"`
	Products     string          `json:"products"`
}

type nextOrderResponse struct {
	NextOrderID string `json:"nextOrderId"`
	NextNumber  int64  `json:"nextNumber"`
}

type orderResponse struct {
	ID           string    `json:"id"`
	OrderNumber  int64     `json:"orderNumber"`
	OrderID      string    `json:"orderId"`
	AccountRef   string    `json:"userId"`
	CustomerName string    `json:"customerName,omitempty"`
	Amount       string    `json:"total"`
	Method       string    `json:"method"`
	Products     string    `json:"products"`
	RecordedAt   time.Time `json:"recordedAt"`
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:           o.ID.String(),
		OrderNumber:  o.OrderNumber,
		OrderID:      service.FormatOrderNumber(o.OrderNumber),
		AccountRef:   o.AccountRef,
		CustomerName: o.CustomerName,
		Amount:       numericToString(o.Amount),
		Method:       o.Method,
		Products:     o.Products,
		RecordedAt:   o.RecordedAt,
	}
}

// --- Handlers ---

// Next returns the next order number without reserving it. Two terminals can
// see the same number; the unique constraint settles it when they record.
func (h *OrderHandler) Next(w http.ResponseWriter, r *http.Request) {
	max, err := h.store.MaxOrderNumber(r.Context())
	if err != nil {
		log.Printf("ERROR: max order number: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	next := max + 1
	writeJSON(w, http.StatusOK, nextOrderResponse{
		NextOrderID: service.FormatOrderNumber(next),
		NextNumber:  next,
	})
}

// Record stores a completed sale and broadcasts it to the order feed.
func (h *OrderHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var orderNumber int64
	if s := rawString(req.OrderNumber); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid orderNumber"})
			return
		}
		orderNumber = n
	}

	// Account-less orders are cash sales; the sentinel fills AccountRef in
	// the service.
	var accountRef string
	if s := rawString(req.UserID); s != "" && s != service.CashAccountRef {
		id, err := normalizeAccountID(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid userId"})
			return
		}
		accountRef = strconv.FormatInt(id, 10)
	}

	order, err := h.recorder.RecordOrder(r.Context(), service.RecordOrderRequest{
		OrderNumber:  orderNumber,
		AccountRef:   accountRef,
		CustomerName: req.CustomerName,
		Amount:       money.ParseJSONAmount(req.Total),
		Method:       req.Method,
		Products:     req.Products,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "total must be > 0"})
		case errors.Is(err, service.ErrEmptyProducts):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "products are required"})
		case errors.Is(err, service.ErrInvalidOrderNumber):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid orderNumber"})
		case errors.Is(err, service.ErrOrderNumberTaken):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order number already recorded"})
		default:
			log.Printf("ERROR: record order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := toOrderResponse(*order)

	if h.hub != nil {
		if payload, err := json.Marshal(resp); err == nil {
			h.hub.Broadcast(ws.Event{Type: "order.recorded", Payload: payload})
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}
