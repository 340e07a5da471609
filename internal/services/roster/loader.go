package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/storage"
)

// Source is the upstream endpoint set the roster reads from
type Source interface {
	Players(ctx context.Context, tourID model.TourID) ([]model.ServerPlayer, error)
	PlayerWithGames(ctx context.Context, tourID model.TourID, key model.PlayerKey) (*model.ServerPlayerWithGames, error)
	Tour(ctx context.Context, tourID model.TourID) (*model.ServerTour, error)
}

// FederationSource provides the federation id to name map
type FederationSource interface {
	Federations() model.Federations
}

// Loader fetches and normalizes roster data, keeping a copy in storage
type Loader struct {
	source  Source
	feds    FederationSource
	storage storage.Storage
	logger  *slog.Logger

	tours sync.Map // model.TourID -> *model.Tour
}

// NewLoader creates a new Loader
func NewLoader(source Source, feds FederationSource, storage storage.Storage, logger *slog.Logger) *Loader {
	return &Loader{
		source:  source,
		feds:    feds,
		storage: storage,
		logger:  logger,
	}
}

// FetchRoster fetches the player list from upstream and refreshes the cache
func (l *Loader) FetchRoster(ctx context.Context, tourID model.TourID) (*model.Roster, error) {
	serverPlayers, err := l.source.Players(ctx, tourID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", model.ErrTourNotFound, tourID)
		}
		return nil, fmt.Errorf("failed to fetch players of %s: %w", tourID, err)
	}

	feds := l.feds.Federations()
	players := make([]model.Player, len(serverPlayers))
	for i, sp := range serverPlayers {
		players[i] = sp.Convert(feds)
	}

	if err := l.storage.SaveRoster(ctx, tourID, players); err != nil {
		l.logger.Warn("failed to cache roster",
			slog.String("tour_id", string(tourID)),
			slog.String("error", err.Error()),
		)
	}

	return model.NewRoster(players), nil
}

// Roster returns the cached roster, fetching it when absent
func (l *Loader) Roster(ctx context.Context, tourID model.TourID) (*model.Roster, error) {
	players, err := l.storage.GetRoster(ctx, tourID)
	if err == nil {
		return model.NewRoster(players), nil
	}
	if !errors.Is(err, model.ErrNotCached) {
		l.logger.Warn("failed to read cached roster",
			slog.String("tour_id", string(tourID)),
			slog.String("error", err.Error()),
		)
	}
	return l.FetchRoster(ctx, tourID)
}

// FetchPlayerWithGames fetches one player's detail from upstream.
// Opponents go through the same conversion as roster players.
func (l *Loader) FetchPlayerWithGames(ctx context.Context, tourID model.TourID, key model.PlayerKey) (*model.PlayerWithGames, error) {
	if key == "" {
		return nil, model.ErrEmptyPlayerKey
	}

	sp, err := l.source.PlayerWithGames(ctx, tourID, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", model.ErrPlayerNotFound, key)
		}
		return nil, fmt.Errorf("failed to fetch player %s: %w", key, err)
	}

	player := sp.Convert(l.feds.Federations())

	if err := l.storage.SavePlayerDetail(ctx, tourID, key, &player); err != nil {
		l.logger.Warn("failed to cache player detail",
			slog.String("tour_id", string(tourID)),
			slog.String("player_key", string(key)),
			slog.String("error", err.Error()),
		)
	}

	return &player, nil
}

// PlayerWithGames returns a cached player detail, fetching it when absent or expired
func (l *Loader) PlayerWithGames(ctx context.Context, tourID model.TourID, key model.PlayerKey) (*model.PlayerWithGames, error) {
	if key == "" {
		return nil, model.ErrEmptyPlayerKey
	}
	if p, err := l.storage.GetPlayerDetail(ctx, tourID, key); err == nil {
		return p, nil
	}
	return l.FetchPlayerWithGames(ctx, tourID, key)
}

// Tour fetches the tour metadata
func (l *Loader) Tour(ctx context.Context, tourID model.TourID) (*model.Tour, error) {
	st, err := l.source.Tour(ctx, tourID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", model.ErrTourNotFound, tourID)
		}
		return nil, fmt.Errorf("failed to fetch tour %s: %w", tourID, err)
	}
	tour := st.Convert()
	if tour.ID == "" {
		tour.ID = tourID
	}
	l.tours.Store(tourID, &tour)
	return &tour, nil
}

// Evict drops the cached roster, player details and tour metadata of a tour
func (l *Loader) Evict(ctx context.Context, tourID model.TourID) error {
	l.tours.Delete(tourID)
	if err := l.storage.DeleteRoster(ctx, tourID); err != nil {
		return fmt.Errorf("failed to evict tour %s: %w", tourID, err)
	}
	return nil
}

// CachedTour returns the tour of the last successful Tour call
func (l *Loader) CachedTour(tourID model.TourID) (*model.Tour, bool) {
	v, ok := l.tours.Load(tourID)
	if !ok {
		return nil, false
	}
	return v.(*model.Tour), true
}
