package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, letting the same queries run
// against the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tables holds the concrete names of the tables whose naming drifted across
// the legacy schema. The schema resolver decides these at startup; everything
// else uses the canonical migration names.
type Tables struct {
	Ledger string
	Orders string
}

// DefaultTables returns the canonical names created by the migrations.
func DefaultTables() Tables {
	return Tables{
		Ledger: "transactions_balance",
		Orders: "transactions_orders",
	}
}

// Queries is the database access layer. All methods run against the wrapped
// DBTX, so a Queries built from a transaction participates in it.
type Queries struct {
	db     DBTX
	tables Tables
}

func New(db DBTX) *Queries {
	return &Queries{db: db, tables: DefaultTables()}
}

// NewWithTables builds a Queries using resolver-supplied table names.
func NewWithTables(db DBTX, tables Tables) *Queries {
	if tables.Ledger == "" {
		tables.Ledger = DefaultTables().Ledger
	}
	if tables.Orders == "" {
		tables.Orders = DefaultTables().Orders
	}
	return &Queries{db: db, tables: tables}
}

// WithTx returns a Queries that runs inside the given transaction, keeping
// the resolved table names.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx, tables: q.tables}
}

// Tables exposes the resolved table names (used when deriving a transactional
// store from a pool-backed one).
func (q *Queries) Tables() Tables {
	return q.tables
}
