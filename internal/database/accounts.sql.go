package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getAccount = `
SELECT id, name, balance, created_at, updated_at
FROM accounts
WHERE id = $1
`

func (q *Queries) GetAccount(ctx context.Context, id int64) (Account, error) {
	row := q.db.QueryRow(ctx, getAccount, id)
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

const getAccountForUpdate = `
SELECT id, name, balance, created_at, updated_at
FROM accounts
WHERE id = $1
FOR NO KEY UPDATE
`

// GetAccountForUpdate locks the account row for the duration of the enclosing
// transaction, serializing concurrent balance writers.
func (q *Queries) GetAccountForUpdate(ctx context.Context, id int64) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountForUpdate, id)
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

const listAccounts = `
SELECT id, name, balance, created_at, updated_at
FROM accounts
ORDER BY id
`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const createAccount = `
INSERT INTO accounts (id, name, balance)
VALUES ($1, $2, $3)
RETURNING id, name, balance, created_at, updated_at
`

type CreateAccountParams struct {
	ID      int64
	Name    string
	Balance pgtype.Numeric
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRow(ctx, createAccount, arg.ID, arg.Name, arg.Balance)
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

const updateAccountBalance = `
UPDATE accounts
SET balance = $2, updated_at = now()
WHERE id = $1
RETURNING id, name, balance, created_at, updated_at
`

type UpdateAccountBalanceParams struct {
	ID      int64
	Balance pgtype.Numeric
}

func (q *Queries) UpdateAccountBalance(ctx context.Context, arg UpdateAccountBalanceParams) (Account, error) {
	row := q.db.QueryRow(ctx, updateAccountBalance, arg.ID, arg.Balance)
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
