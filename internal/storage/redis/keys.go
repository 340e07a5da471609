package redis

import (
	"fmt"

	"github.com/mcoot/relayview/internal/model"
)

// Key prefix for all relay view data
const keyPrefix = "relayview"

// rosterKey returns the Redis key for a tour's player list
func rosterKey(tourID model.TourID) string {
	return fmt.Sprintf("%s:roster:%s", keyPrefix, tourID)
}

// playerDetailKey returns the Redis key for one player's detail in a tour
func playerDetailKey(tourID model.TourID, key model.PlayerKey) string {
	return fmt.Sprintf("%s:player:%s:%s", keyPrefix, tourID, key)
}

// playersForTourIndexKey returns the Redis key for the SET of cached player details for a tour
func playersForTourIndexKey(tourID model.TourID) string {
	return fmt.Sprintf("%s:idx:players_for_tour:%s", keyPrefix, tourID)
}

// federationsKey returns the Redis key for the federation hash
func federationsKey() string {
	return fmt.Sprintf("%s:federations", keyPrefix)
}
