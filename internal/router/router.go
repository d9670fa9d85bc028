package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cardapio-pos/api/internal/config"
	"github.com/cardapio-pos/api/internal/database"
	"github.com/cardapio-pos/api/internal/handler"
	mw "github.com/cardapio-pos/api/internal/middleware"
	"github.com/cardapio-pos/api/internal/service"
	"github.com/cardapio-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // SvelteKit dev server
			"http://localhost:3000",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	feePct, err := decimal.NewFromString(cfg.ServiceFeePercent)
	if err != nil {
		log.Printf("WARN: invalid SERVICE_FEE_PERCENT %q, using 10", cfg.ServiceFeePercent)
		feePct = decimal.NewFromInt(10)
	}

	sessionService := service.NewSessionService(pool, func(db database.DBTX) service.SessionStore {
		return database.New(db)
	}, feePct)
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})

	// Delivery and pickup orders. Checkout from the digital menu is public;
	// everything else on /orders is staff-only.
	orderHandler := handler.NewOrderHandler(orderService, queries, hub)
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", orderHandler.Create)
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			orderHandler.RegisterRoutes(r)
		})
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Tables and dine-in sessions
		tableHandler := handler.NewTableHandler(sessionService, queries, hub)
		r.Route("/tables", tableHandler.RegisterRoutes)

		// Dine-in orders and their items
		tableOrderHandler := handler.NewTableOrderHandler(sessionService, queries, hub)
		r.Route("/table-orders", tableOrderHandler.RegisterRoutes)

		// Unified kanban board over both families
		boardHandler := handler.NewBoardHandler(queries, sessionService, hub)
		r.Route("/board", boardHandler.RegisterRoutes)

		// Kitchen ticket board
		kitchenHandler := handler.NewKitchenHandler(queries)
		r.Route("/kitchen", kitchenHandler.RegisterRoutes)
	})

	log.Println("Router initialized with all handlers")
	return r
}
