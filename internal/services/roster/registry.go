package roster

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/relayview/internal/dependencies/clock"
	"github.com/mcoot/relayview/internal/metrics"
	"github.com/mcoot/relayview/internal/model"
)

// HooksFunc builds the presentation hooks for one viewer of one tour
type HooksFunc func(viewerID string, tourID model.TourID) Hooks

type registryKey struct {
	viewerID string
	tourID   model.TourID
}

// Registry holds one Controller per (viewer, tour) pair
type Registry struct {
	loader   *Loader
	hooksFor HooksFunc
	clock    clock.Clock
	metrics  metrics.Metrics
	logger   *slog.Logger

	mu          sync.Mutex
	controllers map[registryKey]*Controller
}

// NewRegistry creates a new Registry
func NewRegistry(
	loader *Loader,
	hooksFor HooksFunc,
	clock clock.Clock,
	metrics metrics.Metrics,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		loader:      loader,
		hooksFor:    hooksFor,
		clock:       clock,
		metrics:     metrics,
		logger:      logger,
		controllers: make(map[registryKey]*Controller),
	}
}

// Get returns the controller of a viewer for a tour, creating it if needed
func (r *Registry) Get(viewerID string, tourID model.TourID) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey{viewerID: viewerID, tourID: tourID}
	if c, ok := r.controllers[key]; ok {
		return c
	}

	var hooks Hooks
	if r.hooksFor != nil {
		hooks = r.hooksFor(viewerID, tourID)
	}
	c := NewController(tourID, r.loader, hooks, r.clock, r.metrics, r.logger)
	r.controllers[key] = c
	r.metrics.SetActiveRosters(len(r.controllers))
	return c
}

// Lookup returns an existing controller without creating one
func (r *Registry) Lookup(viewerID string, tourID model.TourID) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[registryKey{viewerID: viewerID, tourID: tourID}]
	return c, ok
}

// Len returns the number of live controllers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Prune drops controllers idle for at least maxIdle and returns how many were
// dropped. Tours left without any controller have their cached data evicted.
func (r *Registry) Prune(ctx context.Context, maxIdle time.Duration) int {
	r.mu.Lock()
	pruned := 0
	dropped := make(map[model.TourID]struct{})
	for key, c := range r.controllers {
		if clock.Since(r.clock, c.LastUsed()) >= maxIdle {
			delete(r.controllers, key)
			dropped[key.tourID] = struct{}{}
			pruned++
		}
	}
	for key := range r.controllers {
		delete(dropped, key.tourID)
	}
	remaining := len(r.controllers)
	r.metrics.SetActiveRosters(remaining)
	r.mu.Unlock()

	if pruned > 0 {
		r.logger.Info("pruned idle rosters",
			slog.Int("pruned", pruned),
			slog.Int("remaining", remaining),
		)
	}
	for tourID := range dropped {
		if err := r.loader.Evict(ctx, tourID); err != nil {
			r.logger.Warn("failed to evict tour cache",
				slog.String("tour_id", string(tourID)),
				slog.String("error", err.Error()),
			)
		}
	}
	return pruned
}
