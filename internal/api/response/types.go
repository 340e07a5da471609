package response

import (
	"github.com/notnil/chess"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/checkout"
)

// Federation represents a player's federation
type Federation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Player represents a roster entry in API responses
type Player struct {
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	Title       string      `json:"title,omitempty"`
	Team        string      `json:"team,omitempty"`
	Fed         *Federation `json:"fed,omitempty"`
	FideID      int         `json:"fide_id,omitempty"`
	Rating      int         `json:"rating,omitempty"`
	Score       *float64    `json:"score,omitempty"`
	Played      int         `json:"played"`
	RatingDiff  *int        `json:"rating_diff,omitempty"`
	Performance int         `json:"performance,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	out := Player{
		Key:         string(p.Key()),
		Name:        p.Name,
		Title:       p.Title,
		Team:        p.Team,
		FideID:      p.FideID,
		Rating:      p.Rating,
		Score:       p.Score,
		Played:      p.Played,
		RatingDiff:  p.RatingDiff,
		Performance: p.Performance,
	}
	if p.Fed != nil {
		out.Fed = &Federation{ID: p.Fed.ID, Name: p.Fed.Name}
	}
	return out
}

// Roster is the response of the player list endpoint
type Roster struct {
	TourID     string   `json:"tour_id"`
	Players    []Player `json:"players"`
	Duplicates []string `json:"duplicates,omitempty"`
}

// RosterFromModel converts a model.Roster
func RosterFromModel(tourID model.TourID, r *model.Roster) Roster {
	out := Roster{TourID: string(tourID), Players: []Player{}}
	for _, p := range r.Players() {
		out.Players = append(out.Players, PlayerFromModel(p))
	}
	for _, k := range r.Duplicates() {
		out.Duplicates = append(out.Duplicates, string(k))
	}
	return out
}

// Game is one game of a player
type Game struct {
	Chapter    string `json:"chapter"`
	Round      string `json:"round"`
	Opponent   Player `json:"opponent"`
	Color      string `json:"color"`
	Points     string `json:"points,omitempty"`
	RatingDiff *int   `json:"rating_diff,omitempty"`
}

func colorName(c chess.Color) string {
	switch c {
	case chess.White:
		return "white"
	case chess.Black:
		return "black"
	}
	return ""
}

// PlayerDetail is the response of the player endpoint
type PlayerDetail struct {
	Player
	Games       []Game         `json:"games"`
	FideRatings map[string]int `json:"fide_ratings,omitempty"`
	BirthYear   int            `json:"birth_year,omitempty"`
}

// PlayerDetailFromModel converts a model.PlayerWithGames
func PlayerDetailFromModel(p *model.PlayerWithGames) PlayerDetail {
	out := PlayerDetail{Player: PlayerFromModel(p.Player), Games: []Game{}}
	for _, g := range p.Games {
		out.Games = append(out.Games, Game{
			Chapter:    string(g.Chapter),
			Round:      string(g.Round),
			Opponent:   PlayerFromModel(g.Opponent),
			Color:      colorName(g.Color),
			Points:     string(g.Points),
			RatingDiff: g.RatingDiff,
		})
	}
	if p.Fide != nil {
		out.FideRatings = p.Fide.Ratings
		out.BirthYear = p.Fide.Year
	}
	return out
}

// Quote is the response of the checkout quote endpoint
type Quote struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	Freq     string  `json:"freq"`
	Gift     string  `json:"gift,omitempty"`
	Display  string  `json:"display"`
}

// QuoteFromCheckout converts a checkout.Quote
func QuoteFromCheckout(q *checkout.Quote) Quote {
	return Quote{
		Currency: q.Currency,
		Amount:   q.Amount,
		Freq:     string(q.Freq),
		Gift:     q.Gift,
		Display:  q.Display,
	}
}

// Health is the response of the health endpoint
type Health struct {
	Status      string `json:"status"`
	Federations int    `json:"federations"`
	Rosters     int    `json:"rosters"`
}
