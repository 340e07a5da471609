package model

// Roster is the full list of players of a tournament, in server order
type Roster struct {
	players    []Player
	index      map[PlayerKey]int
	duplicates []PlayerKey
}

// NewRoster builds a roster from players in server order.
// Players sharing a key are all kept; the key resolves to the first one
// and is reported by Duplicates.
func NewRoster(players []Player) *Roster {
	r := &Roster{
		players: players,
		index:   make(map[PlayerKey]int, len(players)),
	}
	seen := make(map[PlayerKey]bool)
	for i, p := range players {
		key := p.Key()
		if key == "" {
			continue
		}
		if _, ok := r.index[key]; ok {
			if !seen[key] {
				r.duplicates = append(r.duplicates, key)
				seen[key] = true
			}
			continue
		}
		r.index[key] = i
	}
	return r
}

// Players returns the players in server order
func (r *Roster) Players() []Player {
	if r == nil {
		return nil
	}
	return r.players
}

// Len returns the number of players
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.players)
}

// Get returns the player for a key
func (r *Roster) Get(key PlayerKey) (Player, bool) {
	if r == nil {
		return Player{}, false
	}
	i, ok := r.index[key]
	if !ok {
		return Player{}, false
	}
	return r.players[i], true
}

// Keys returns the distinct player keys in server order
func (r *Roster) Keys() []PlayerKey {
	if r == nil {
		return nil
	}
	keys := make([]PlayerKey, 0, len(r.index))
	for i, p := range r.players {
		key := p.Key()
		if j, ok := r.index[key]; ok && j == i {
			keys = append(keys, key)
		}
	}
	return keys
}

// Duplicates returns keys shared by more than one player
func (r *Roster) Duplicates() []PlayerKey {
	if r == nil {
		return nil
	}
	return r.duplicates
}

// WithRating reports whether any player has a rating
func (r *Roster) WithRating() bool {
	for _, p := range r.Players() {
		if p.Rating != 0 {
			return true
		}
	}
	return false
}

// WithScores reports whether any player has a non-zero score
func (r *Roster) WithScores() bool {
	for _, p := range r.Players() {
		if p.Score != nil && *p.Score != 0 {
			return true
		}
	}
	return false
}
