package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/notnil/chess"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/relayview/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.RosterTTL = time.Hour
	cfg.PlayerTTL = time.Minute

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Roster tests

func (s *StorageSuite) TestSaveAndGetRoster() {
	score := 2.5
	diff := -4
	players := []model.Player{
		{Name: "Alice", FideID: 1, Rating: 2100, Score: &score, RatingDiff: &diff, Fed: &model.Federation{ID: "FRA", Name: "France"}},
		{Name: "Bob", Title: "IM"},
	}

	err := s.storage.SaveRoster(s.ctx, "tour-1", players)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoster(s.ctx, "tour-1")
	s.Require().NoError(err)
	s.Require().Len(retrieved, 2)
	s.Equal("Alice", retrieved[0].Name)
	s.Equal(2.5, *retrieved[0].Score)
	s.Equal(-4, *retrieved[0].RatingDiff)
	s.Equal("France", retrieved[0].Fed.Name)
	s.Equal("IM", retrieved[1].Title)
	s.Nil(retrieved[1].Score)
}

func (s *StorageSuite) TestGetRosterNotCached() {
	_, err := s.storage.GetRoster(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrNotCached)
}

func (s *StorageSuite) TestRosterTTL() {
	_ = s.storage.SaveRoster(s.ctx, "tour-1", []model.Player{{Name: "Alice"}})

	s.Equal(time.Hour, s.mini.TTL(rosterKey("tour-1")))

	s.mini.FastForward(time.Hour)
	_, err := s.storage.GetRoster(s.ctx, "tour-1")
	s.ErrorIs(err, model.ErrNotCached)
}

func (s *StorageSuite) TestDeleteRosterDropsDetails() {
	_ = s.storage.SaveRoster(s.ctx, "tour-1", []model.Player{{Name: "Alice"}})
	_ = s.storage.SavePlayerDetail(s.ctx, "tour-1", "Alice", &model.PlayerWithGames{Player: model.Player{Name: "Alice"}})
	_ = s.storage.SavePlayerDetail(s.ctx, "tour-2", "Alice", &model.PlayerWithGames{Player: model.Player{Name: "Alice"}})

	err := s.storage.DeleteRoster(s.ctx, "tour-1")
	s.Require().NoError(err)

	_, err = s.storage.GetRoster(s.ctx, "tour-1")
	s.ErrorIs(err, model.ErrNotCached)
	_, err = s.storage.GetPlayerDetail(s.ctx, "tour-1", "Alice")
	s.ErrorIs(err, model.ErrNotCached)
	s.False(s.mini.Exists(playersForTourIndexKey("tour-1")))

	_, err = s.storage.GetPlayerDetail(s.ctx, "tour-2", "Alice")
	s.NoError(err)
}

// Player detail tests

func (s *StorageSuite) TestSaveAndGetPlayerDetail() {
	detail := &model.PlayerWithGames{
		Player: model.Player{Name: "Alice", FideID: 7, Rating: 2200},
		Games: []model.PlayerGame{
			{
				Chapter:  "ch1",
				Round:    "r1",
				Opponent: model.Player{Name: "Bob"},
				Color:    chess.Black,
				Points:   model.PointsDraw,
			},
		},
		Fide: &model.FideProfile{Ratings: map[string]int{"standard": 2200}, Year: 1995},
	}

	err := s.storage.SavePlayerDetail(s.ctx, "tour-1", "7", detail)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayerDetail(s.ctx, "tour-1", "7")
	s.Require().NoError(err)
	s.Equal("Alice", retrieved.Name)
	s.Equal(2200, retrieved.Rating)
	s.Require().Len(retrieved.Games, 1)
	s.Equal(chess.Black, retrieved.Games[0].Color)
	s.Equal(model.PointsDraw, retrieved.Games[0].Points)
	s.Equal("Bob", retrieved.Games[0].Opponent.Name)
	s.Equal(1995, retrieved.Fide.Year)

	s.True(s.mini.Exists(playersForTourIndexKey("tour-1")))
	s.Equal(time.Minute, s.mini.TTL(playerDetailKey("tour-1", "7")))
}

func (s *StorageSuite) TestGetPlayerDetailNotCached() {
	_, err := s.storage.GetPlayerDetail(s.ctx, "tour-1", "nobody")
	s.ErrorIs(err, model.ErrNotCached)
}

// Federation tests

func (s *StorageSuite) TestFederationsNotLoaded() {
	_, err := s.storage.GetFederations(s.ctx)
	s.ErrorIs(err, model.ErrFederationsNotLoaded)
}

func (s *StorageSuite) TestSaveFederationsReplaces() {
	err := s.storage.SaveFederations(s.ctx, model.Federations{"NOR": "Norway", "FRA": "France"})
	s.Require().NoError(err)

	err = s.storage.SaveFederations(s.ctx, model.Federations{"GER": "Germany"})
	s.Require().NoError(err)

	feds, err := s.storage.GetFederations(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.Federations{"GER": "Germany"}, feds)
}
