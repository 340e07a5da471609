package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/relayview/internal/services/checkout"
	"github.com/mcoot/relayview/internal/services/relay"
	"github.com/mcoot/relayview/internal/services/roster"
	"github.com/mcoot/relayview/internal/services/study"
	"github.com/mcoot/relayview/internal/web/handler"
	"github.com/mcoot/relayview/internal/web/middleware"
	"github.com/mcoot/relayview/internal/web/sse"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger          *slog.Logger
	Registry        *roster.Registry
	Loader          *roster.Loader
	RosterRenderer  *sse.RosterRenderer
	HubManager      *sse.HubManager
	Broadcaster     *sse.Broadcaster
	RelayService    *relay.Service
	StudyService    *study.Service
	CheckoutService *checkout.Service
	Checkout        handler.CheckoutOptions
	Env             middleware.EnvOptions
	StaticDir       string       // Path to static files directory
	MetricsHandler  http.Handler // optional; mounted at /metrics
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	// Player keys are names and may contain escaped slashes
	r.UseEncodedPath()

	// Recovery runs inside logging to see the request id
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler).Methods(http.MethodGet)
	}

	// Static files
	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.PathPrefix("/static/").Handler(staticHandler)
	}

	// Create handlers
	homeHandler := handler.NewHomeHandler(cfg.Logger)
	playersHandler := handler.NewPlayersHandler(cfg.Registry, cfg.Loader, cfg.RosterRenderer, cfg.HubManager, cfg.Logger)
	relayHandler := handler.NewRelayHandler(cfg.RelayService, cfg.HubManager, cfg.Broadcaster, cfg.Logger)
	commentsHandler := handler.NewCommentsHandler(cfg.StudyService, cfg.Logger)
	checkoutHandler := handler.NewCheckoutHandler(cfg.CheckoutService, cfg.Checkout, cfg.Logger)

	pages := r.NewRoute().Subrouter()
	pages.Use(middleware.Env(cfg.Env))
	pages.Use(middleware.Flash())

	pages.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)

	// Players tab; fixed segments before the {key} catch-all
	pages.HandleFunc("/broadcast/{tourId}/players", playersHandler.Page).Methods(http.MethodGet)
	pages.HandleFunc("/broadcast/{tourId}/players/events", playersHandler.Events).Methods(http.MethodGet)
	pages.HandleFunc("/broadcast/{tourId}/players/close", playersHandler.Close).Methods(http.MethodPost)
	pages.HandleFunc("/broadcast/{tourId}/players/reload", playersHandler.Reload).Methods(http.MethodPost)
	pages.HandleFunc("/broadcast/{tourId}/players/hash", playersHandler.FromHash).Methods(http.MethodPost)
	pages.HandleFunc("/broadcast/{tourId}/players/{key}/tip", playersHandler.Tip).Methods(http.MethodGet)
	pages.HandleFunc("/broadcast/{tourId}/players/{key}", playersHandler.Show).Methods(http.MethodGet)

	// Relay manager
	pages.HandleFunc("/broadcast/round/{roundId}/manager", relayHandler.Manager).Methods(http.MethodGet)
	pages.HandleFunc("/broadcast/round/{roundId}/sync", relayHandler.Sync).Methods(http.MethodPost)
	pages.HandleFunc("/broadcast/round/{roundId}/events", relayHandler.Events).Methods(http.MethodGet)

	// Study comments
	pages.HandleFunc("/study/{studyId}/{chapterId}/comments", commentsHandler.Thread).Methods(http.MethodGet)
	pages.HandleFunc("/study/{studyId}/{chapterId}/comments/{id}/delete", commentsHandler.Delete).Methods(http.MethodPost)

	// Patron checkout
	pages.HandleFunc("/patron", checkoutHandler.Page).Methods(http.MethodGet)
	pages.HandleFunc("/patron/form", checkoutHandler.Form).Methods(http.MethodGet)
	pages.HandleFunc("/patron/checkout/{kind}", checkoutHandler.Start).Methods(http.MethodPost)
	pages.HandleFunc("/patron/paypal/approve", checkoutHandler.Approve).Methods(http.MethodPost)
	pages.HandleFunc("/patron/thanks", checkoutHandler.Thanks).Methods(http.MethodGet)

	return r
}
