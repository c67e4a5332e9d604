package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// The ledger table name comes from the schema resolver, so these queries are
// built with the sanitized identifier rather than a constant string.

const createLedgerEntryCols = `
	(account_id, name, quantity, prev_balance, new_balance, method, observations)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, account_id, name, quantity, prev_balance, new_balance, method, observations, recorded_at`

type CreateLedgerEntryParams struct {
	AccountID    int64
	Name         pgtype.Text
	Quantity     pgtype.Numeric
	PrevBalance  pgtype.Numeric
	NewBalance   pgtype.Numeric
	Method       pgtype.Text
	Observations pgtype.Text
}

func (q *Queries) CreateLedgerEntry(ctx context.Context, arg CreateLedgerEntryParams) (LedgerEntry, error) {
	query := fmt.Sprintf("INSERT INTO %s%s", pgx.Identifier{q.tables.Ledger}.Sanitize(), createLedgerEntryCols)
	row := q.db.QueryRow(ctx, query,
		arg.AccountID,
		arg.Name,
		arg.Quantity,
		arg.PrevBalance,
		arg.NewBalance,
		arg.Method,
		arg.Observations,
	)
	var e LedgerEntry
	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&e.Name,
		&e.Quantity,
		&e.PrevBalance,
		&e.NewBalance,
		&e.Method,
		&e.Observations,
		&e.RecordedAt,
	)
	return e, err
}

func (q *Queries) ListLedgerEntriesByAccount(ctx context.Context, accountID int64) ([]LedgerEntry, error) {
	query := fmt.Sprintf(
		"SELECT id, account_id, name, quantity, prev_balance, new_balance, method, observations, recorded_at FROM %s WHERE account_id = $1 ORDER BY recorded_at",
		pgx.Identifier{q.tables.Ledger}.Sanitize(),
	)
	return q.scanLedgerEntries(ctx, query, accountID)
}

// ListLedgerEntries returns every ledger row. Reports filter by calendar day
// in the aggregator, matching the inclusive string-compare semantics of the
// legacy system.
func (q *Queries) ListLedgerEntries(ctx context.Context) ([]LedgerEntry, error) {
	query := fmt.Sprintf(
		"SELECT id, account_id, name, quantity, prev_balance, new_balance, method, observations, recorded_at FROM %s ORDER BY recorded_at",
		pgx.Identifier{q.tables.Ledger}.Sanitize(),
	)
	return q.scanLedgerEntries(ctx, query)
}

func (q *Queries) scanLedgerEntries(ctx context.Context, query string, args ...any) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(
			&e.ID,
			&e.AccountID,
			&e.Name,
			&e.Quantity,
			&e.PrevBalance,
			&e.NewBalance,
			&e.Method,
			&e.Observations,
			&e.RecordedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
