package router

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/interpos/api/internal/config"
	"github.com/interpos/api/internal/database"
	"github.com/interpos/api/internal/handler"
	mw "github.com/interpos/api/internal/middleware"
	"github.com/interpos/api/internal/service"
	"github.com/interpos/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// queries carries the resolved legacy table names; transactional stores are
// derived from it so they keep the same resolution.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, loc *time.Location) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket order feed (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		tables := queries.Tables()

		// Balance movements
		ledgerService := service.NewLedgerService(pool, func(db database.DBTX) service.LedgerStore {
			return database.NewWithTables(db, tables)
		})
		handler.NewLedgerHandler(ledgerService).RegisterRoutes(r)

		// Accounts and their history
		handler.NewAccountHandler(queries).RegisterRoutes(r)
		handler.NewHistoryHandler(queries).RegisterRoutes(r)

		// Orders
		orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
			return database.NewWithTables(db, tables)
		})
		handler.NewOrderHandler(queries, orderService, hub).RegisterRoutes(r)

		// Catalog
		handler.NewProductHandler(queries).RegisterRoutes(r)

		// Reports
		handler.NewReportHandler(queries, loc).RegisterRoutes(r)

		// Admin-only routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireRole("ADMIN"))
			handler.NewAllowlistHandler(queries).RegisterRoutes(r)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
