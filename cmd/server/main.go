package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mcoot/relayview/internal/api"
	"github.com/mcoot/relayview/internal/config"
	"github.com/mcoot/relayview/internal/factory"
	"github.com/mcoot/relayview/internal/metrics"
	redisstorage "github.com/mcoot/relayview/internal/storage/redis"
	"github.com/mcoot/relayview/internal/web"
	"github.com/mcoot/relayview/internal/web/handler"
	"github.com/mcoot/relayview/internal/web/middleware"
)

// hubCleanupInterval is how often SSE hubs without clients are closed
const hubCleanupInterval = time.Minute

func main() {
	startedAt := time.Now()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	m := metrics.NewService()

	factoryCfg := factory.Config{
		UpstreamURL: cfg.UpstreamURL,
		Logger:      logger,
		Metrics:     m,
		StorageType: cfg.StorageType,
		Currencies:  cfg.Currencies,
		AssetBase:   cfg.AssetBase,
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Load federations; another instance may already have stored them
	if err := app.Federations.LoadFromFile(context.Background(), cfg.FederationsPath); err != nil {
		logger.Warn("could not load federations", slog.String("error", err.Error()))
		if err := app.Federations.LoadFromStorage(context.Background()); err != nil {
			logger.Warn("no stored federations", slog.String("error", err.Error()))
		}
	}

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		Loader:          app.Loader,
		Registry:        app.Registry,
		Federations:     app.Federations,
		CheckoutService: app.CheckoutService,
	})

	// Create web router
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:          logger,
		Registry:        app.Registry,
		Loader:          app.Loader,
		RosterRenderer:  app.RosterRenderer,
		HubManager:      app.HubManager,
		Broadcaster:     app.Broadcaster,
		RelayService:    app.RelayService,
		StudyService:    app.StudyService,
		CheckoutService: app.CheckoutService,
		Checkout: handler.CheckoutOptions{
			DefaultCurrency: cfg.DefaultCurrency,
			StripePublicKey: cfg.StripePublicKey,
			PayPalClientID:  cfg.PayPalClientID,
		},
		Env: middleware.EnvOptions{
			AssetBase:  cfg.AssetBase,
			ScriptBase: cfg.ScriptBase,
			UserHeader: cfg.UserHeader,
		},
		StaticDir:      findStaticDir(cfg.StaticDir),
		MetricsHandler: metrics.NewMetricsHandler(),
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.Port
	server := api.NewServer(mux, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go housekeeping(ctx, app, cfg.RosterIdle, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	m.SetStartupTime(time.Since(startedAt).Seconds())
	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("upstream", cfg.UpstreamURL),
		slog.String("storage", cfg.StorageType))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// housekeeping drops idle player lists and closes empty SSE hubs
func housekeeping(ctx context.Context, app *factory.App, rosterIdle time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(hubCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := app.Registry.Prune(ctx, rosterIdle); n > 0 {
				logger.Info("idle rosters pruned", slog.Int("removed", n))
			}
			app.HubManager.CleanupEmptyHubs()
		}
	}
}

// findStaticDir looks for the static files directory
func findStaticDir(configured string) string {
	candidates := []string{
		configured,
		"internal/web/static",
		filepath.Join(os.Getenv("PWD"), "internal/web/static"),
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}

	// Default to relative path
	return configured
}
