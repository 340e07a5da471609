package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/relayview/internal/dependencies/clock"
	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Entries expire after the configured TTL; a zero TTL keeps them forever.
type Storage struct {
	mu    sync.RWMutex
	clock clock.Clock
	cfg   Config

	rosters     map[model.TourID]entry[[]model.Player]
	details     map[detailKey]entry[*model.PlayerWithGames]
	federations model.Federations
}

// Config holds expiry settings for cached entities
type Config struct {
	RosterTTL time.Duration
	PlayerTTL time.Duration
}

type entry[T any] struct {
	value   T
	savedAt time.Time
}

type detailKey struct {
	tourID model.TourID
	key    model.PlayerKey
}

// New creates a new in-memory storage instance that never expires entries
func New() *Storage {
	return NewWithClock(clock.New(), Config{})
}

// NewWithClock creates an in-memory storage with the given clock and TTLs
func NewWithClock(clk clock.Clock, cfg Config) *Storage {
	return &Storage{
		clock:   clk,
		cfg:     cfg,
		rosters: make(map[model.TourID]entry[[]model.Player]),
		details: make(map[detailKey]entry[*model.PlayerWithGames]),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) expired(savedAt time.Time, ttl time.Duration) bool {
	return ttl > 0 && clock.Since(s.clock, savedAt) >= ttl
}

// Roster operations

func (s *Storage) SaveRoster(ctx context.Context, tourID model.TourID, players []model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]model.Player, len(players))
	copy(cp, players)
	s.rosters[tourID] = entry[[]model.Player]{value: cp, savedAt: s.clock.Now()}
	return nil
}

func (s *Storage) GetRoster(ctx context.Context, tourID model.TourID) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.rosters[tourID]
	if !ok || s.expired(e.savedAt, s.cfg.RosterTTL) {
		return nil, model.ErrNotCached
	}
	result := make([]model.Player, len(e.value))
	copy(result, e.value)
	return result, nil
}

func (s *Storage) DeleteRoster(ctx context.Context, tourID model.TourID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rosters, tourID)
	for k := range s.details {
		if k.tourID == tourID {
			delete(s.details, k)
		}
	}
	return nil
}

// Player detail operations

func (s *Storage) SavePlayerDetail(ctx context.Context, tourID model.TourID, key model.PlayerKey, player *model.PlayerWithGames) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[detailKey{tourID: tourID, key: key}] = entry[*model.PlayerWithGames]{value: player, savedAt: s.clock.Now()}
	return nil
}

func (s *Storage) GetPlayerDetail(ctx context.Context, tourID model.TourID, key model.PlayerKey) (*model.PlayerWithGames, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.details[detailKey{tourID: tourID, key: key}]
	if !ok || s.expired(e.savedAt, s.cfg.PlayerTTL) {
		return nil, model.ErrNotCached
	}
	return e.value, nil
}

// Federation operations

func (s *Storage) SaveFederations(ctx context.Context, feds model.Federations) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.federations = make(model.Federations, len(feds))
	for id, name := range feds {
		s.federations[id] = name
	}
	return nil
}

func (s *Storage) GetFederations(ctx context.Context) (model.Federations, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.federations == nil {
		return nil, model.ErrFederationsNotLoaded
	}
	result := make(model.Federations, len(s.federations))
	for id, name := range s.federations {
		result[id] = name
	}
	return result, nil
}
