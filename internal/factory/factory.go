package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"

	"github.com/mcoot/relayview/internal/dependencies/clock"
	"github.com/mcoot/relayview/internal/metrics"
	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/checkout"
	"github.com/mcoot/relayview/internal/services/federation"
	"github.com/mcoot/relayview/internal/services/relay"
	"github.com/mcoot/relayview/internal/services/roster"
	"github.com/mcoot/relayview/internal/services/study"
	"github.com/mcoot/relayview/internal/storage"
	"github.com/mcoot/relayview/internal/storage/memory"
	redisstorage "github.com/mcoot/relayview/internal/storage/redis"
	"github.com/mcoot/relayview/internal/upstream"
	"github.com/mcoot/relayview/internal/web/env"
	"github.com/mcoot/relayview/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock    clock.Clock
	Metrics  metrics.Metrics
	Upstream *upstream.Client

	// Services
	Federations     *federation.Service
	Loader          *roster.Loader
	Registry        *roster.Registry
	RelayService    *relay.Service
	StudyService    *study.Service
	CheckoutService *checkout.Service

	// Push
	HubManager     *sse.HubManager
	Broadcaster    *sse.Broadcaster
	RosterRenderer *sse.RosterRenderer
}

// Config holds configuration for the application factory
type Config struct {
	// UpstreamURL is the base URL of the broadcast server
	UpstreamURL string
	// HTTPClient overrides the upstream transport (optional)
	HTTPClient *http.Client
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Metrics collects application metrics (optional)
	// If nil, metrics go to a private registry nobody scrapes
	Metrics metrics.Metrics
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Currencies limits checkout to these codes; empty means all
	Currencies []string
	// AssetBase prefixes static asset URLs in pushed fragments
	AssetBase string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.UpstreamURL == "" {
		return nil, errors.New("UpstreamURL is required")
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.NewService(prometheus.NewRegistry())
	}

	pricings := checkout.DefaultPricings()
	if len(cfg.Currencies) > 0 {
		only, err := pricings.Only(cfg.Currencies)
		if err != nil {
			return nil, fmt.Errorf("invalid currencies: %w", err)
		}
		pricings = only
	}

	var opts []upstream.Option
	if cfg.HTTPClient != nil {
		opts = append(opts, upstream.WithHTTPClient(cfg.HTTPClient))
	}
	client := upstream.NewClient(cfg.UpstreamURL, m, opts...)

	return newWithDependencies(dependencies{
		store:     store,
		clock:     clock.New(),
		metrics:   m,
		upstream:  client,
		pricings:  pricings,
		assetBase: cfg.AssetBase,
		logger:    logger,
	}), nil
}

type dependencies struct {
	store     storage.Storage
	clock     clock.Clock
	metrics   metrics.Metrics
	upstream  *upstream.Client
	pricings  checkout.Pricings
	assetBase string
	logger    *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(d dependencies) *App {
	feds := federation.New(d.store)
	loader := roster.NewLoader(d.upstream, feds, d.store, d.logger)

	hubManager := sse.NewHubManager(d.metrics, d.logger)
	broadcaster := sse.NewBroadcaster(hubManager, env.Env{Locale: language.English, AssetBase: d.assetBase}, d.logger)

	// The renderer reads state through the registry, which needs the
	// renderer's hooks to build controllers.
	var registry *roster.Registry
	states := func(viewerID string, tourID model.TourID) (roster.State, bool) {
		c, ok := registry.Lookup(viewerID, tourID)
		if !ok {
			return roster.State{}, false
		}
		return c.State(), true
	}
	renderer := sse.NewRosterRenderer(broadcaster, states, loader.CachedTour, d.clock)
	registry = roster.NewRegistry(loader, renderer.Hooks, d.clock, d.metrics, d.logger)

	return &App{
		Storage:         d.store,
		Clock:           d.clock,
		Metrics:         d.metrics,
		Upstream:        d.upstream,
		Federations:     feds,
		Loader:          loader,
		Registry:        registry,
		RelayService:    relay.New(d.upstream, d.logger),
		StudyService:    study.New(d.upstream, d.logger),
		CheckoutService: checkout.New(d.pricings, d.upstream, d.metrics, d.logger),
		HubManager:      hubManager,
		Broadcaster:     broadcaster,
		RosterRenderer:  renderer,
	}
}
