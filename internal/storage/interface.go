package storage

import (
	"context"

	"github.com/mcoot/relayview/internal/model"
)

// Storage defines the interface for cached upstream data.
// The upstream server stays authoritative; everything here can be refetched.
type Storage interface {
	// Roster operations
	SaveRoster(ctx context.Context, tourID model.TourID, players []model.Player) error
	GetRoster(ctx context.Context, tourID model.TourID) ([]model.Player, error)
	DeleteRoster(ctx context.Context, tourID model.TourID) error

	// Player detail operations
	SavePlayerDetail(ctx context.Context, tourID model.TourID, key model.PlayerKey, player *model.PlayerWithGames) error
	GetPlayerDetail(ctx context.Context, tourID model.TourID, key model.PlayerKey) (*model.PlayerWithGames, error)

	// Federation operations
	SaveFederations(ctx context.Context, feds model.Federations) error
	GetFederations(ctx context.Context) (model.Federations, error)
}
