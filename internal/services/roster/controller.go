package roster

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/relayview/internal/dependencies/clock"
	"github.com/mcoot/relayview/internal/metrics"
	"github.com/mcoot/relayview/internal/model"
)

// Hooks are the presentation callbacks of a controller
type Hooks struct {
	// Redraw asks the display layer to re-render the current state
	Redraw func()
	// SwitchTab brings the players tab to the front
	SwitchTab func()
}

// Controller owns the player list state of one viewer of one tour.
//
// Network I/O runs outside the lock. Overlapping detail fetches are not
// coordinated: the one that completes last is displayed, unless the panel
// was closed after it started.
type Controller struct {
	tourID  model.TourID
	loader  *Loader
	hooks   Hooks
	clock   clock.Clock
	metrics metrics.Metrics
	logger  *slog.Logger

	mu       sync.Mutex
	state    State
	closes   uint64 // bumped by ClosePlayer
	lastUsed time.Time
}

// NewController creates a new Controller
func NewController(
	tourID model.TourID,
	loader *Loader,
	hooks Hooks,
	clock clock.Clock,
	metrics metrics.Metrics,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		tourID:   tourID,
		loader:   loader,
		hooks:    hooks,
		clock:    clock,
		metrics:  metrics,
		logger:   logger.With(slog.String("tour_id", string(tourID))),
		lastUsed: clock.Now(),
	}
}

// TourID returns the tour this controller belongs to
func (c *Controller) TourID() model.TourID {
	return c.tourID
}

// State returns a snapshot of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TabHash returns "#players/{key}" while a player is shown, else "#players"
func (c *Controller) TabHash() string {
	return c.State().TabHash()
}

// LastUsed returns when the controller last handled an operation
func (c *Controller) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

func (c *Controller) touch() {
	c.lastUsed = c.clock.Now()
}

func (c *Controller) redraw() {
	if c.hooks.Redraw != nil {
		c.hooks.Redraw()
	}
}

// LoadRoster fetches the player list and replaces the cached roster.
// onInsert marks the initial load when the list is first displayed; other
// loads of an already cached roster show the loading state first.
// On error the cached roster is kept and a loading state set here stays
// set until the next successful load.
func (c *Controller) LoadRoster(ctx context.Context, onInsert bool) error {
	c.mu.Lock()
	c.touch()
	showLoading := c.state.Roster != nil && !onInsert
	if showLoading {
		c.state.Loading = true
	}
	c.mu.Unlock()

	if showLoading {
		c.redraw()
	}

	roster, err := c.loader.FetchRoster(ctx, c.tourID)
	if err != nil {
		c.logger.Error("failed to load roster", slog.String("error", err.Error()))
		return err
	}

	if dups := roster.Duplicates(); len(dups) > 0 {
		keys := make([]string, len(dups))
		for i, k := range dups {
			keys[i] = string(k)
		}
		c.logger.Warn("roster has colliding player keys",
			slog.String("keys", strings.Join(keys, ",")),
		)
	}

	c.mu.Lock()
	c.state.Roster = roster
	c.state.Loading = false
	c.mu.Unlock()

	c.metrics.IncRosterLoads()
	c.redraw()
	return nil
}

// ShowPlayer displays the loading panel for key, fetches the player's
// detail and displays it.
func (c *Controller) ShowPlayer(ctx context.Context, key model.PlayerKey) error {
	if key == "" {
		return model.ErrEmptyPlayerKey
	}

	c.mu.Lock()
	c.touch()
	closes := c.closes
	c.state.Shown = &Shown{Key: key}
	c.mu.Unlock()

	c.redraw()

	player, err := c.LoadPlayerWithGames(ctx, key)
	if err != nil {
		c.logger.Error("failed to load player",
			slog.String("player_key", string(key)),
			slog.String("error", err.Error()),
		)
		return err
	}

	c.mu.Lock()
	if c.closes != closes {
		c.mu.Unlock()
		c.metrics.IncStaleDetailsDiscarded()
		c.logger.Debug("discarding player detail after close",
			slog.String("player_key", string(key)),
		)
		return nil
	}
	c.state.Shown = &Shown{Key: key, Player: player}
	c.mu.Unlock()

	c.metrics.IncPlayerShows()
	c.redraw()
	return nil
}

// ClosePlayer clears the shown slot and returns to the list
func (c *Controller) ClosePlayer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.state.Shown = nil
	c.closes++
}

// SwitchAndShow brings the players tab forward, then shows key
func (c *Controller) SwitchAndShow(ctx context.Context, key model.PlayerKey) error {
	if c.hooks.SwitchTab != nil {
		c.hooks.SwitchTab()
	}
	return c.ShowPlayer(ctx, key)
}

// ShowFromHash shows the player named by a "#players/{key}" fragment.
// It reports whether the fragment selected a player.
func (c *Controller) ShowFromHash(ctx context.Context, fragment string) (bool, error) {
	key, ok := KeyFromHash(fragment)
	if !ok {
		return false, nil
	}
	return true, c.ShowPlayer(ctx, key)
}

// LoadPlayerWithGames fetches a player's detail without touching the shown slot
func (c *Controller) LoadPlayerWithGames(ctx context.Context, key model.PlayerKey) (*model.PlayerWithGames, error) {
	return c.loader.FetchPlayerWithGames(ctx, c.tourID, key)
}

// Tip returns the detail used by player tooltips, served from cache when fresh
func (c *Controller) Tip(ctx context.Context, key model.PlayerKey) (*model.PlayerWithGames, error) {
	c.mu.Lock()
	c.touch()
	c.mu.Unlock()
	return c.loader.PlayerWithGames(ctx, c.tourID, key)
}

// KeyFromHash extracts the player key of a "#players/{key}" fragment
func KeyFromHash(fragment string) (model.PlayerKey, bool) {
	if !strings.HasPrefix(fragment, HashPrefix) {
		return "", false
	}
	key := fragment[len(HashPrefix):]
	if key == "" {
		return "", false
	}
	return model.PlayerKey(key), true
}
