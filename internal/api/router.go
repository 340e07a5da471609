package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/relayview/internal/api/handler"
	"github.com/mcoot/relayview/internal/api/middleware"
	"github.com/mcoot/relayview/internal/services/checkout"
	"github.com/mcoot/relayview/internal/services/federation"
	"github.com/mcoot/relayview/internal/services/roster"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	Loader          *roster.Loader
	Registry        *roster.Registry
	Federations     *federation.Service
	CheckoutService *checkout.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.UseEncodedPath()

	// Create handlers
	tourHandler := handler.NewTourHandler(cfg.Loader)
	checkoutHandler := handler.NewCheckoutHandler(cfg.CheckoutService)
	healthHandler := handler.NewHealthHandler(cfg.Federations, cfg.Registry)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Recovery(cfg.Logger))

	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	// Tour routes
	api.HandleFunc("/tours/{tourId}/players", tourHandler.Players).Methods(http.MethodGet)
	api.HandleFunc("/tours/{tourId}/players/{key}", tourHandler.Player).Methods(http.MethodGet)

	// Checkout routes
	api.HandleFunc("/checkout/quote", checkoutHandler.Quote).Methods(http.MethodPost)

	return r
}
