package model

import (
	"strconv"

	"github.com/notnil/chess"
)

// TourID identifies a broadcast tournament
type TourID string

// RoundID identifies a round within a tournament
type RoundID string

// ChapterID identifies a study chapter (one board of a round)
type ChapterID string

// PlayerKey identifies a player within a tournament roster.
// It is the FIDE id when known, else the player's name, and doubles as
// the URL deep-link fragment.
type PlayerKey string

// Federation is a player's national federation
type Federation struct {
	ID   string
	Name string
}

// Federations maps federation ids to display names
type Federations map[string]string

// Name returns the display name for a federation id, falling back to the id
func (f Federations) Name(id string) string {
	if name, ok := f[id]; ok && name != "" {
		return name
	}
	return id
}

// Player is a tournament participant as shown in the roster
type Player struct {
	Name        string
	Title       string
	Team        string
	Fed         *Federation
	FideID      int      // 0 when the player has no FIDE id
	Rating      int      // 0 when unrated
	Score       *float64 // nil when the tournament reports no score
	Played      int
	RatingDiff  *int
	Performance int
}

// KeyOf returns the roster key for a player
func KeyOf(p Player) PlayerKey {
	if p.FideID != 0 {
		return PlayerKey(strconv.Itoa(p.FideID))
	}
	return PlayerKey(p.Name)
}

// Key returns the roster key for the player
func (p Player) Key() PlayerKey {
	return KeyOf(p)
}

// HasScore reports whether the tournament reported a score for the player
func (p Player) HasScore() bool {
	return p.Score != nil
}

// Points is a single game result from the player's point of view
type Points string

const (
	PointsWin     Points = "1"
	PointsLoss    Points = "0"
	PointsDraw    Points = "1/2"
	PointsPending Points = ""
)

// PlayerGame is one game of a player in the tournament
type PlayerGame struct {
	Chapter    ChapterID
	Round      RoundID
	Opponent   Player
	Color      chess.Color
	Points     Points
	RatingDiff *int
}

// FideProfile holds the FIDE ratings of a player per time control
type FideProfile struct {
	Ratings map[string]int // keyed by "standard", "rapid", "blitz"
	Year    int            // birth year, 0 when unknown
}

// PlayerWithGames is a player with their games in the tournament
type PlayerWithGames struct {
	Player
	Games []PlayerGame
	Fide  *FideProfile
}
