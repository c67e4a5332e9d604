package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getProduct = `
SELECT id, category, name, price
FROM products
WHERE id = $1
`

func (q *Queries) GetProduct(ctx context.Context, id int64) (Product, error) {
	row := q.db.QueryRow(ctx, getProduct, id)
	var p Product
	err := row.Scan(&p.ID, &p.Category, &p.Name, &p.Price)
	return p, err
}

const listProducts = `
SELECT id, category, name, price
FROM products
ORDER BY id
`

func (q *Queries) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Category, &p.Name, &p.Price); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const upsertProduct = `
INSERT INTO products (id, category, name, price)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET category = EXCLUDED.category, name = EXCLUDED.name, price = EXCLUDED.price
RETURNING id, category, name, price
`

type UpsertProductParams struct {
	ID       int64
	Category pgtype.Text
	Name     string
	Price    pgtype.Numeric
}

func (q *Queries) UpsertProduct(ctx context.Context, arg UpsertProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, upsertProduct, arg.ID, arg.Category, arg.Name, arg.Price)
	var p Product
	err := row.Scan(&p.ID, &p.Category, &p.Name, &p.Price)
	return p, err
}

const deleteProduct = `
DELETE FROM products
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := q.db.QueryRow(ctx, deleteProduct, id).Scan(&deleted)
	return deleted, err
}
