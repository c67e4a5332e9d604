package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/interpos/api/internal/database"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// CashAccountRef marks anonymous cash sales that have no account behind them.
const CashAccountRef = "EFECTIVO"

// Errors returned by the order service.
var (
	ErrInvalidAmount      = errors.New("amount must be > 0")
	ErrEmptyProducts      = errors.New("products are required")
	ErrOrderNumberTaken   = errors.New("order number already recorded")
	ErrInvalidOrderNumber = errors.New("order number must be > 0")
)

// OrderStore defines the DB methods needed to record orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	MaxOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// RecordOrderRequest is the validated input for recording a completed sale.
// OrderNumber 0 means the server assigns the next number.
type RecordOrderRequest struct {
	OrderNumber  int64
	AccountRef   string
	CustomerName string
	Amount       decimal.Decimal
	Method       string
	Products     string
}

// OrderService records completed sale orders.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// FormatOrderNumber renders an order number the way tickets print it.
func FormatOrderNumber(n int64) string {
	return fmt.Sprintf("%06d", n)
}

// RecordOrder inserts a completed order. Server-assigned numbers retry up to
// maxOrderNumberRetries times on the unique constraint (concurrent writers
// reading the same MAX); a client-supplied number that conflicts returns
// ErrOrderNumberTaken instead.
func (s *OrderService) RecordOrder(ctx context.Context, req RecordOrderRequest) (*database.Order, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.Products == "" {
		return nil, ErrEmptyProducts
	}
	if req.OrderNumber < 0 {
		return nil, ErrInvalidOrderNumber
	}

	accountRef := req.AccountRef
	if accountRef == "" {
		accountRef = CashAccountRef
	}

	if req.OrderNumber > 0 {
		order, err := s.recordOrderTx(ctx, req, req.OrderNumber, accountRef)
		if err != nil {
			if isOrderNumberConflict(err) {
				return nil, ErrOrderNumberTaken
			}
			return nil, err
		}
		return order, nil
	}

	// Retry loop: handles the order_number unique constraint race.
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		order, err := s.recordOrderTx(ctx, req, 0, accountRef)
		if err == nil {
			return order, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// recordOrderTx runs the number assignment and insert in one transaction.
func (s *OrderService) recordOrderTx(ctx context.Context, req RecordOrderRequest, orderNumber int64, accountRef string) (*database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if orderNumber == 0 {
		max, err := store.MaxOrderNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("max order number: %w", err)
		}
		orderNumber = max + 1
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:  orderNumber,
		AccountRef:   accountRef,
		CustomerName: req.CustomerName,
		Amount:       decimalToNumeric(req.Amount),
		Method:       req.Method,
		Products:     req.Products,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &order, nil
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "transactions_orders_order_number_key"
	}
	return false
}
