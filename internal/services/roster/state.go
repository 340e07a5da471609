package roster

import "github.com/mcoot/relayview/internal/model"

// Shown is the player panel slot. Player is nil while the detail is loading.
type Shown struct {
	Key    model.PlayerKey
	Player *model.PlayerWithGames
}

// IsLoading reports whether the detail fetch is still pending
func (s *Shown) IsLoading() bool {
	return s != nil && s.Player == nil
}

// State is the view state of one player list
type State struct {
	Loading bool
	Roster  *model.Roster // nil until the first load completes
	Shown   *Shown        // nil when the list is displayed
}

// TabHash returns the deep link fragment for a state
func (s State) TabHash() string {
	if s.Shown != nil {
		return HashPrefix + string(s.Shown.Key)
	}
	return HashList
}

const (
	// HashList selects the player list
	HashList = "#players"
	// HashPrefix precedes a player key in a deep link
	HashPrefix = "#players/"
)
