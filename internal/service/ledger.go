package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/interpos/api/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the ledger service.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidQuantity     = errors.New("quantity must be non-zero")
	ErrInvalidTotal        = errors.New("total must be > 0")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LedgerStore defines the DB methods needed to record balance movements.
// Satisfied by *database.Queries (and its WithTx variant).
type LedgerStore interface {
	GetAccountForUpdate(ctx context.Context, id int64) (database.Account, error)
	CreateLedgerEntry(ctx context.Context, arg database.CreateLedgerEntryParams) (database.LedgerEntry, error)
	UpdateAccountBalance(ctx context.Context, arg database.UpdateAccountBalanceParams) (database.Account, error)
	GetProduct(ctx context.Context, id int64) (database.Product, error)
}

// NewLedgerStore creates a LedgerStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewLedgerStore func(db database.DBTX) LedgerStore

// RechargeRequest is the validated input for crediting an account.
type RechargeRequest struct {
	AccountID    int64
	Quantity     decimal.Decimal
	Method       string
	Observations string
}

// SellRequest is the validated input for a balance-paid sale.
type SellRequest struct {
	AccountID int64
	ProductID int64
	Total     decimal.Decimal
}

// MovementResult is the recorded ledger entry plus the updated account.
type MovementResult struct {
	Entry   database.LedgerEntry
	Account database.Account
}

// LedgerService records balance movements: the ledger append and the balance
// update happen in one transaction with the account row locked, so the
// recorded invariant is always new_balance = prev_balance + quantity.
type LedgerService struct {
	pool     TxBeginner
	newStore NewLedgerStore
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(pool TxBeginner, newStore NewLedgerStore) *LedgerService {
	return &LedgerService{pool: pool, newStore: newStore}
}

// Recharge credits (or, for corrections, debits) an account. The quantity is
// applied as-is; callers that computed a new balance client-side are ignored
// in favor of the stored balance read under the row lock.
func (s *LedgerService) Recharge(ctx context.Context, req RechargeRequest) (*MovementResult, error) {
	if req.Quantity.IsZero() {
		return nil, ErrInvalidQuantity
	}

	method := req.Method
	if method == "" {
		method = "Efectivo"
	}

	return s.record(ctx, req.AccountID, req.Quantity, method, req.Observations)
}

// Sell debits an account for a product purchase. Fails before any write when
// the stored balance does not cover the total.
func (s *LedgerService) Sell(ctx context.Context, req SellRequest) (*MovementResult, error) {
	if !req.Total.IsPositive() {
		return nil, ErrInvalidTotal
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	account, err := store.GetAccountForUpdate(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock account: %w", err)
	}

	prevBalance := numericToDecimal(account.Balance)
	if prevBalance.LessThan(req.Total) {
		return nil, ErrInsufficientBalance
	}

	observation := fmt.Sprintf("Compra producto %d", req.ProductID)
	if product, err := store.GetProduct(ctx, req.ProductID); err == nil {
		observation = fmt.Sprintf("Compra %s (ID %d)", product.Name, product.ID)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get product: %w", err)
	}

	quantity := req.Total.Neg()
	newBalance := prevBalance.Add(quantity)

	entry, err := store.CreateLedgerEntry(ctx, database.CreateLedgerEntryParams{
		AccountID:    account.ID,
		Name:         textOrNull(account.Name),
		Quantity:     decimalToNumeric(quantity),
		PrevBalance:  decimalToNumeric(prevBalance),
		NewBalance:   decimalToNumeric(newBalance),
		Method:       textOrNull("Saldo"),
		Observations: textOrNull(observation),
	})
	if err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}

	updated, err := store.UpdateAccountBalance(ctx, database.UpdateAccountBalanceParams{
		ID:      account.ID,
		Balance: decimalToNumeric(newBalance),
	})
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &MovementResult{Entry: entry, Account: updated}, nil
}

// record runs the shared lock-append-update sequence.
func (s *LedgerService) record(ctx context.Context, accountID int64, quantity decimal.Decimal, method, observations string) (*MovementResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	account, err := store.GetAccountForUpdate(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock account: %w", err)
	}

	prevBalance := numericToDecimal(account.Balance)
	newBalance := prevBalance.Add(quantity)

	entry, err := store.CreateLedgerEntry(ctx, database.CreateLedgerEntryParams{
		AccountID:    account.ID,
		Name:         textOrNull(account.Name),
		Quantity:     decimalToNumeric(quantity),
		PrevBalance:  decimalToNumeric(prevBalance),
		NewBalance:   decimalToNumeric(newBalance),
		Method:       textOrNull(method),
		Observations: textOrNull(observations),
	})
	if err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}

	updated, err := store.UpdateAccountBalance(ctx, database.UpdateAccountBalanceParams{
		ID:      account.ID,
		Balance: decimalToNumeric(newBalance),
	})
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &MovementResult{Entry: entry, Account: updated}, nil
}

// --- Helpers ---

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
