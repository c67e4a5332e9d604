package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgProber probes table existence with a one-row select against Postgres.
type PgProber struct {
	pool *pgxpool.Pool
}

func NewPgProber(pool *pgxpool.Pool) *PgProber {
	return &PgProber{pool: pool}
}

// Probe runs a cheap existence check. Any error (most commonly undefined
// table, SQLSTATE 42P01) means the candidate does not exist under that name.
func (p *PgProber) Probe(ctx context.Context, table string) error {
	query := fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", pgx.Identifier{table}.Sanitize())
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	rows.Close()
	return rows.Err()
}
