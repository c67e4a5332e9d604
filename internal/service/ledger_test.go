package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/interpos/api/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	commits     int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.commits++
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockLedgerStore implements LedgerStore with configurable behavior.
type mockLedgerStore struct {
	getAccountForUpdateFn  func(ctx context.Context, id int64) (database.Account, error)
	createLedgerEntryFn    func(ctx context.Context, arg database.CreateLedgerEntryParams) (database.LedgerEntry, error)
	updateAccountBalanceFn func(ctx context.Context, arg database.UpdateAccountBalanceParams) (database.Account, error)
	getProductFn           func(ctx context.Context, id int64) (database.Product, error)
}

func (m *mockLedgerStore) GetAccountForUpdate(ctx context.Context, id int64) (database.Account, error) {
	return m.getAccountForUpdateFn(ctx, id)
}
func (m *mockLedgerStore) CreateLedgerEntry(ctx context.Context, arg database.CreateLedgerEntryParams) (database.LedgerEntry, error) {
	return m.createLedgerEntryFn(ctx, arg)
}
func (m *mockLedgerStore) UpdateAccountBalance(ctx context.Context, arg database.UpdateAccountBalanceParams) (database.Account, error) {
	return m.updateAccountBalanceFn(ctx, arg)
}
func (m *mockLedgerStore) GetProduct(ctx context.Context, id int64) (database.Product, error) {
	return m.getProductFn(ctx, id)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

// ledgerFixture is an in-memory account that the mock store reads and writes,
// so tests observe the balance the way the database would.
type ledgerFixture struct {
	account database.Account
	entries []database.CreateLedgerEntryParams
}

func newLedgerFixture(id int64, name, balance string) *ledgerFixture {
	return &ledgerFixture{
		account: database.Account{
			ID:      id,
			Name:    name,
			Balance: makeNumeric(balance),
		},
	}
}

func (f *ledgerFixture) store() *mockLedgerStore {
	return &mockLedgerStore{
		getAccountForUpdateFn: func(ctx context.Context, id int64) (database.Account, error) {
			if id != f.account.ID {
				return database.Account{}, pgx.ErrNoRows
			}
			return f.account, nil
		},
		createLedgerEntryFn: func(ctx context.Context, arg database.CreateLedgerEntryParams) (database.LedgerEntry, error) {
			f.entries = append(f.entries, arg)
			return database.LedgerEntry{
				ID:           uuid.New(),
				AccountID:    arg.AccountID,
				Name:         arg.Name,
				Quantity:     arg.Quantity,
				PrevBalance:  arg.PrevBalance,
				NewBalance:   arg.NewBalance,
				Method:       arg.Method,
				Observations: arg.Observations,
			}, nil
		},
		updateAccountBalanceFn: func(ctx context.Context, arg database.UpdateAccountBalanceParams) (database.Account, error) {
			f.account.Balance = arg.Balance
			return f.account, nil
		},
		getProductFn: func(ctx context.Context, id int64) (database.Product, error) {
			return database.Product{}, pgx.ErrNoRows
		},
	}
}

func newLedgerService(store *mockLedgerStore) (*LedgerService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) LedgerStore { return store }
	return NewLedgerService(pool, newStore), tx
}

// =====================
// Recharge tests
// =====================

func TestRecharge_AppliesDelta(t *testing.T) {
	fixture := newLedgerFixture(101, "Ana", "5000.00")
	svc, tx := newLedgerService(fixture.store())

	result, err := svc.Recharge(context.Background(), RechargeRequest{
		AccountID: 101,
		Quantity:  decimal.NewFromInt(20000),
		Method:    "Nequi",
	})
	if err != nil {
		t.Fatalf("Recharge: %v", err)
	}

	if !numericEquals(result.Entry.PrevBalance, "5000") {
		t.Errorf("prev_balance = %v, want 5000", result.Entry.PrevBalance)
	}
	if !numericEquals(result.Entry.NewBalance, "25000") {
		t.Errorf("new_balance = %v, want 25000", result.Entry.NewBalance)
	}
	if !numericEquals(result.Account.Balance, "25000") {
		t.Errorf("stored balance = %v, want 25000", result.Account.Balance)
	}
	if tx.commits != 1 {
		t.Errorf("commits = %d, want 1", tx.commits)
	}
}

// The ledger invariant holds regardless of what the caller thought the new
// balance was: new_balance is always prev_balance + quantity as read under
// the row lock.
func TestRecharge_BalanceInvariant(t *testing.T) {
	fixture := newLedgerFixture(101, "Ana", "1234.56")
	svc, _ := newLedgerService(fixture.store())

	result, err := svc.Recharge(context.Background(), RechargeRequest{
		AccountID: 101,
		Quantity:  decimal.RequireFromString("-200.06"),
		Method:    "Ajuste",
	})
	if err != nil {
		t.Fatalf("Recharge: %v", err)
	}

	prev := numericToDecimal(result.Entry.PrevBalance)
	qty := numericToDecimal(result.Entry.Quantity)
	nb := numericToDecimal(result.Entry.NewBalance)
	if !nb.Equal(prev.Add(qty)) {
		t.Errorf("new_balance %s != prev_balance %s + quantity %s", nb, prev, qty)
	}
	if !nb.Equal(decimal.RequireFromString("1034.50")) {
		t.Errorf("new_balance = %s, want 1034.50", nb)
	}
}

// Recharges are not idempotent: the same request sent twice records two
// ledger rows and applies the delta twice.
func TestRecharge_DoubleApply(t *testing.T) {
	fixture := newLedgerFixture(101, "Ana", "0.00")
	svc, _ := newLedgerService(fixture.store())

	req := RechargeRequest{AccountID: 101, Quantity: decimal.NewFromInt(10000), Method: "Efectivo"}
	for i := 0; i < 2; i++ {
		if _, err := svc.Recharge(context.Background(), req); err != nil {
			t.Fatalf("Recharge #%d: %v", i+1, err)
		}
	}

	if len(fixture.entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(fixture.entries))
	}
	if !numericEquals(fixture.account.Balance, "20000") {
		t.Errorf("stored balance = %v, want 20000", fixture.account.Balance)
	}
	if !numericEquals(fixture.entries[1].PrevBalance, "10000") {
		t.Errorf("second entry prev_balance = %v, want 10000", fixture.entries[1].PrevBalance)
	}
}

func TestRecharge_ZeroQuantity(t *testing.T) {
	fixture := newLedgerFixture(101, "Ana", "5000.00")
	svc, _ := newLedgerService(fixture.store())

	_, err := svc.Recharge(context.Background(), RechargeRequest{AccountID: 101})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got: %v", err)
	}
	if len(fixture.entries) != 0 {
		t.Errorf("ledger entries = %d, want 0", len(fixture.entries))
	}
}

func TestRecharge_UnknownAccount(t *testing.T) {
	fixture := newLedgerFixture(101, "Ana", "5000.00")
	svc, _ := newLedgerService(fixture.store())

	_, err := svc.Recharge(context.Background(), RechargeRequest{
		AccountID: 999,
		Quantity:  decimal.NewFromInt(1000),
	})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got: %v", err)
	}
}

func TestRecharge_DefaultMethod(t *testing.T) {
	fixture := newLedgerFixture(101, "Ana", "0.00")
	svc, _ := newLedgerService(fixture.store())

	result, err := svc.Recharge(context.Background(), RechargeRequest{
		AccountID: 101,
		Quantity:  decimal.NewFromInt(5000),
	})
	if err != nil {
		t.Fatalf("Recharge: %v", err)
	}
	if result.Entry.Method.String != "Efectivo" {
		t.Errorf("method = %q, want Efectivo", result.Entry.Method.String)
	}
}

// =====================
// Sell tests
// =====================

func TestSell_DebitsBalance(t *testing.T) {
	fixture := newLedgerFixture(101, "Ana", "30000.00")
	store := fixture.store()
	store.getProductFn = func(ctx context.Context, id int64) (database.Product, error) {
		if id == 7 {
			return database.Product{ID: 7, Name: "Empanada", Price: makeNumeric("3500.00")}, nil
		}
		return database.Product{}, pgx.ErrNoRows
	}
	svc, _ := newLedgerService(store)

	result, err := svc.Sell(context.Background(), SellRequest{
		AccountID: 101,
		ProductID: 7,
		Total:     decimal.NewFromInt(7000),
	})
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}

	if !numericEquals(result.Entry.Quantity, "-7000") {
		t.Errorf("quantity = %v, want -7000", result.Entry.Quantity)
	}
	if !numericEquals(result.Account.Balance, "23000") {
		t.Errorf("stored balance = %v, want 23000", result.Account.Balance)
	}
	if result.Entry.Method.String != "Saldo" {
		t.Errorf("method = %q, want Saldo", result.Entry.Method.String)
	}
	if result.Entry.Observations.String != "Compra Empanada (ID 7)" {
		t.Errorf("observations = %q", result.Entry.Observations.String)
	}
}

func TestSell_InsufficientBalance(t *testing.T) {
	fixture := newLedgerFixture(101, "Ana", "5000.00")
	svc, tx := newLedgerService(fixture.store())

	_, err := svc.Sell(context.Background(), SellRequest{
		AccountID: 101,
		ProductID: 7,
		Total:     decimal.NewFromInt(7000),
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}
	if len(fixture.entries) != 0 {
		t.Errorf("ledger entries = %d, want 0 (no write on refusal)", len(fixture.entries))
	}
	if !numericEquals(fixture.account.Balance, "5000") {
		t.Errorf("balance changed to %v on refused sale", fixture.account.Balance)
	}
	if tx.commits != 0 {
		t.Errorf("commits = %d, want 0", tx.commits)
	}
}

func TestSell_UnknownProductFallbackObservation(t *testing.T) {
	fixture := newLedgerFixture(101, "Ana", "30000.00")
	svc, _ := newLedgerService(fixture.store())

	result, err := svc.Sell(context.Background(), SellRequest{
		AccountID: 101,
		ProductID: 42,
		Total:     decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if result.Entry.Observations.String != "Compra producto 42" {
		t.Errorf("observations = %q", result.Entry.Observations.String)
	}
}

func TestSell_InvalidTotal(t *testing.T) {
	fixture := newLedgerFixture(101, "Ana", "30000.00")
	svc, _ := newLedgerService(fixture.store())

	_, err := svc.Sell(context.Background(), SellRequest{AccountID: 101, Total: decimal.Zero})
	if !errors.Is(err, ErrInvalidTotal) {
		t.Fatalf("expected ErrInvalidTotal, got: %v", err)
	}
}

func TestSell_UnknownAccount(t *testing.T) {
	fixture := newLedgerFixture(101, "Ana", "30000.00")
	svc, _ := newLedgerService(fixture.store())

	_, err := svc.Sell(context.Background(), SellRequest{
		AccountID: 999,
		Total:     decimal.NewFromInt(1000),
	})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got: %v", err)
	}
}
