package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/interpos/api/internal/config"
	"github.com/interpos/api/internal/database"
	"github.com/interpos/api/internal/database/migrations"
	"github.com/interpos/api/internal/router"
	"github.com/interpos/api/internal/schema"
	"github.com/interpos/api/internal/ws"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid POS_TIMEZONE %q: %v", cfg.Timezone, err)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	tables, err := resolveTables(ctx, cfg, pool)
	if err != nil {
		log.Fatalf("resolve tables: %v", err)
	}
	log.Printf("Resolved tables: ledger=%q orders=%q", tables.Ledger, tables.Orders)

	queries := database.NewWithTables(pool, tables)

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, queries, pool, hub, loc)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting server on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal(err)
	}
}

// runMigrations applies the embedded migrations over a dedicated connection.
// A no-change run is fine.
func runMigrations(databaseURL string) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migration source: %w", err)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// resolveTables maps the logical ledger/orders names onto whatever the legacy
// schema actually calls them. Config overrides win; otherwise naming variants
// are probed once here at startup.
func resolveTables(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (database.Tables, error) {
	resolver := schema.NewResolver(cfg.TableOverrides, schema.NewPgProber(pool))
	defaults := database.DefaultTables()

	ledger, err := resolver.Resolve(ctx, defaults.Ledger)
	if err != nil {
		return database.Tables{}, err
	}

	orders, err := resolver.Resolve(ctx, defaults.Orders)
	if err != nil {
		return database.Tables{}, err
	}

	return database.Tables{Ledger: ledger, Orders: orders}, nil
}
