package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Values are msgpack-encoded.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) get(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ErrNotCached
		}
		return err
	}
	return msgpack.Unmarshal(data, v)
}

// Roster operations

func (s *Storage) SaveRoster(ctx context.Context, tourID model.TourID, players []model.Player) error {
	data, err := msgpack.Marshal(players)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, rosterKey(tourID), data, s.cfg.RosterTTL).Err()
}

func (s *Storage) GetRoster(ctx context.Context, tourID model.TourID) ([]model.Player, error) {
	var players []model.Player
	if err := s.get(ctx, rosterKey(tourID), &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (s *Storage) DeleteRoster(ctx context.Context, tourID model.TourID) error {
	indexKey := playersForTourIndexKey(tourID)
	detailKeys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, rosterKey(tourID))
	if len(detailKeys) > 0 {
		pipe.Del(ctx, detailKeys...)
	}
	pipe.Del(ctx, indexKey)
	_, err = pipe.Exec(ctx)
	return err
}

// Player detail operations

func (s *Storage) SavePlayerDetail(ctx context.Context, tourID model.TourID, key model.PlayerKey, player *model.PlayerWithGames) error {
	data, err := msgpack.Marshal(player)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	detailKey := playerDetailKey(tourID, key)
	indexKey := playersForTourIndexKey(tourID)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, detailKey, data, s.cfg.PlayerTTL)
	pipe.SAdd(ctx, indexKey, detailKey)
	if s.cfg.RosterTTL > 0 {
		pipe.Expire(ctx, indexKey, s.cfg.RosterTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayerDetail(ctx context.Context, tourID model.TourID, key model.PlayerKey) (*model.PlayerWithGames, error) {
	var player model.PlayerWithGames
	if err := s.get(ctx, playerDetailKey(tourID, key), &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// Federation operations

func (s *Storage) SaveFederations(ctx context.Context, feds model.Federations) error {
	key := federationsKey()
	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	if len(feds) > 0 {
		values := make(map[string]any, len(feds))
		for id, name := range feds {
			values[id] = name
		}
		pipe.HSet(ctx, key, values)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) GetFederations(ctx context.Context) (model.Federations, error) {
	values, err := s.client.HGetAll(ctx, federationsKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, model.ErrFederationsNotLoaded
	}
	return model.Federations(values), nil
}
