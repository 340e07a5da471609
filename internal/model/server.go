package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/notnil/chess"
)

// FlexInt decodes from a JSON number or a numeric string.
// Upstream responses are not consistent about which one they send.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (n *FlexInt) UnmarshalJSON(b []byte) error {
	f, err := decodeFlexNumber(b)
	if err != nil {
		return err
	}
	*n = FlexInt(f)
	return nil
}

// FlexFloat decodes from a JSON number or a numeric string
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler
func (n *FlexFloat) UnmarshalJSON(b []byte) error {
	f, err := decodeFlexNumber(b)
	if err != nil {
		return err
	}
	*n = FlexFloat(f)
	return nil
}

func decodeFlexNumber(b []byte) (float64, error) {
	if string(b) == "null" {
		return 0, nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// ServerPlayer is the upstream JSON shape of a roster entry
type ServerPlayer struct {
	Name        string     `json:"name"`
	Title       string     `json:"title,omitempty"`
	Team        string     `json:"team,omitempty"`
	Fed         string     `json:"fed,omitempty"`
	FideID      FlexInt    `json:"fideId,omitempty"`
	Rating      FlexInt    `json:"rating,omitempty"`
	Score       *FlexFloat `json:"score,omitempty"`
	Played      FlexInt    `json:"played,omitempty"`
	RatingDiff  *FlexInt   `json:"ratingDiff,omitempty"`
	Performance FlexInt    `json:"performance,omitempty"`
}

// ServerPlayerGame is the upstream JSON shape of one game of a player
type ServerPlayerGame struct {
	ID         ChapterID    `json:"id"`
	Round      RoundID      `json:"round"`
	Opponent   ServerPlayer `json:"opponent"`
	Color      string       `json:"color"`
	Points     Points       `json:"points,omitempty"`
	RatingDiff *FlexInt     `json:"ratingDiff,omitempty"`
}

// ServerFide is the upstream JSON shape of a FIDE profile
type ServerFide struct {
	Ratings map[string]int `json:"ratings"`
	Year    int            `json:"year,omitempty"`
}

// ServerPlayerWithGames is the upstream JSON shape of a player detail
type ServerPlayerWithGames struct {
	ServerPlayer
	Games []ServerPlayerGame `json:"games"`
	Fide  *ServerFide        `json:"fide,omitempty"`
}

// Convert normalizes an upstream player: the federation id is resolved to
// a name and numeric fields are coerced.
func (p ServerPlayer) Convert(feds Federations) Player {
	player := Player{
		Name:        p.Name,
		Title:       p.Title,
		Team:        p.Team,
		FideID:      int(p.FideID),
		Rating:      int(p.Rating),
		Played:      int(p.Played),
		Performance: int(p.Performance),
	}
	if p.Fed != "" {
		player.Fed = &Federation{ID: p.Fed, Name: feds.Name(p.Fed)}
	}
	if p.Score != nil {
		score := float64(*p.Score)
		player.Score = &score
	}
	if p.RatingDiff != nil {
		diff := int(*p.RatingDiff)
		player.RatingDiff = &diff
	}
	return player
}

// Convert normalizes a player detail; every opponent goes through the
// same conversion as the roster.
func (p ServerPlayerWithGames) Convert(feds Federations) PlayerWithGames {
	full := PlayerWithGames{
		Player: p.ServerPlayer.Convert(feds),
		Games:  make([]PlayerGame, 0, len(p.Games)),
	}
	for _, g := range p.Games {
		game := PlayerGame{
			Chapter:  g.ID,
			Round:    g.Round,
			Opponent: g.Opponent.Convert(feds),
			Color:    ParseColor(g.Color),
			Points:   g.Points,
		}
		if g.RatingDiff != nil {
			diff := int(*g.RatingDiff)
			game.RatingDiff = &diff
		}
		full.Games = append(full.Games, game)
	}
	if p.Fide != nil {
		full.Fide = &FideProfile{Ratings: p.Fide.Ratings, Year: p.Fide.Year}
	}
	return full
}

// ParseColor converts "white"/"black" to a chess colour
func ParseColor(s string) chess.Color {
	switch strings.ToLower(s) {
	case "white", "w":
		return chess.White
	case "black", "b":
		return chess.Black
	default:
		return chess.NoColor
	}
}

// ColorName returns the lowercase colour name used in CSS classes
func ColorName(c chess.Color) string {
	switch c {
	case chess.White:
		return "white"
	case chess.Black:
		return "black"
	default:
		return ""
	}
}

// Tour is the broadcast tournament a roster belongs to
type Tour struct {
	ID     TourID
	Name   string
	Dates  []time.Time
	FideTC string // "standard", "rapid" or "blitz"
}

// TimeControl returns the FIDE time control of the tour, standard by default
func (t Tour) TimeControl() string {
	if t.FideTC == "" {
		return "standard"
	}
	return t.FideTC
}

// Year returns the year the tour starts in, or the year of now when the
// tour has no dates.
func (t Tour) Year(now time.Time) int {
	if len(t.Dates) > 0 && !t.Dates[0].IsZero() {
		return t.Dates[0].Year()
	}
	return now.Year()
}

// ServerTour is the upstream JSON shape of a tour
type ServerTour struct {
	ID    TourID  `json:"id"`
	Name  string  `json:"name"`
	Dates []int64 `json:"dates,omitempty"` // unix milliseconds
	Info  struct {
		FideTC string `json:"fideTc,omitempty"`
	} `json:"info"`
}

// Convert turns an upstream tour into a Tour
func (t ServerTour) Convert() Tour {
	tour := Tour{ID: t.ID, Name: t.Name, FideTC: t.Info.FideTC}
	for _, ms := range t.Dates {
		tour.Dates = append(tour.Dates, time.UnixMilli(ms).UTC())
	}
	return tour
}
