package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrderCols = `
	(order_number, account_ref, customer_name, amount, method, products)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_number, account_ref, customer_name, amount, method, products, recorded_at`

type CreateOrderParams struct {
	OrderNumber  int64
	AccountRef   string
	CustomerName string
	Amount       pgtype.Numeric
	Method       string
	Products     string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	query := fmt.Sprintf("INSERT INTO %s%s", pgx.Identifier{q.tables.Orders}.Sanitize(), createOrderCols)
	row := q.db.QueryRow(ctx, query,
		arg.OrderNumber,
		arg.AccountRef,
		arg.CustomerName,
		arg.Amount,
		arg.Method,
		arg.Products,
	)
	var o Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.AccountRef,
		&o.CustomerName,
		&o.Amount,
		&o.Method,
		&o.Products,
		&o.RecordedAt,
	)
	return o, err
}

// MaxOrderNumber returns the highest recorded order number, or 0 when the
// table is empty. Next number = max + 1; the unique constraint on
// order_number catches the race between concurrent writers.
func (q *Queries) MaxOrderNumber(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(order_number), 0) FROM %s", pgx.Identifier{q.tables.Orders}.Sanitize())
	var max int64
	err := q.db.QueryRow(ctx, query).Scan(&max)
	return max, err
}

func (q *Queries) ListOrders(ctx context.Context) ([]Order, error) {
	query := fmt.Sprintf(
		"SELECT id, order_number, account_ref, customer_name, amount, method, products, recorded_at FROM %s ORDER BY recorded_at",
		pgx.Identifier{q.tables.Orders}.Sanitize(),
	)
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID,
			&o.OrderNumber,
			&o.AccountRef,
			&o.CustomerName,
			&o.Amount,
			&o.Method,
			&o.Products,
			&o.RecordedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}
