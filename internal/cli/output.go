package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mcoot/relayview/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Roster:
		o.printRoster(v)
	case response.PlayerDetail:
		o.printPlayerDetail(v)
	case response.Quote:
		o.printQuote(v)
	case response.Health:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func optInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func signedInt(n *int) string {
	if n == nil {
		return ""
	}
	if *n > 0 {
		return "+" + strconv.Itoa(*n)
	}
	return strconv.Itoa(*n)
}

func fedID(f *response.Federation) string {
	if f == nil {
		return ""
	}
	return f.ID
}

func titledName(p response.Player) string {
	if p.Title == "" {
		return p.Name
	}
	return p.Title + " " + p.Name
}

func (o *Output) printRoster(r response.Roster) {
	rows := make([][]string, 0, len(r.Players))
	for _, p := range r.Players {
		score := ""
		if p.Score != nil {
			score = strconv.FormatFloat(*p.Score, 'f', -1, 64) + "/" + strconv.Itoa(p.Played)
		}
		rows = append(rows, []string{p.Key, titledName(p), fedID(p.Fed), optInt(p.Rating), score, signedInt(p.RatingDiff)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KEY", "PLAYER", "FED", "RATING", "SCORE", "+/-").
		Rows(rows...)

	o.printf("Tournament: %s (%d players)\n", r.TourID, len(r.Players))
	o.printf("%s\n", t.Render())
	for _, d := range r.Duplicates {
		o.printf("Duplicate key: %s\n", d)
	}
}

func (o *Output) printPlayerDetail(p response.PlayerDetail) {
	o.printf("Player: %s\n", titledName(p.Player))
	if p.Fed != nil {
		o.printf("Federation: %s\n", p.Fed.Name)
	}
	if p.FideID != 0 {
		o.printf("FIDE ID: %d\n", p.FideID)
	}
	if p.BirthYear != 0 {
		o.printf("Born: %d\n", p.BirthYear)
	}
	for _, tc := range []string{"standard", "rapid", "blitz"} {
		if r, ok := p.FideRatings[tc]; ok {
			o.printf("FIDE %s: %d\n", tc, r)
		}
	}
	if p.Performance != 0 {
		o.printf("Performance: %d\n", p.Performance)
	}

	if len(p.Games) == 0 {
		return
	}
	rows := make([][]string, 0, len(p.Games))
	for _, g := range p.Games {
		points := g.Points
		if points == "" {
			points = "*"
		}
		rows = append(rows, []string{g.Round, g.Color, titledName(g.Opponent), optInt(g.Opponent.Rating), points, signedInt(g.RatingDiff)})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ROUND", "COLOR", "OPPONENT", "RATING", "RESULT", "+/-").
		Rows(rows...)
	o.printf("\n%s\n", t.Render())
}

func (o *Output) printQuote(q response.Quote) {
	o.printf("Amount: %s\n", q.Display)
	o.printf("Frequency: %s\n", q.Freq)
	if q.Gift != "" {
		o.printf("Gift to: %s\n", q.Gift)
	}
}

func (o *Output) printHealth(h response.Health) {
	o.printf("Status: %s\n", h.Status)
	o.printf("Federations: %d\n", h.Federations)
	o.printf("Active rosters: %d\n", h.Rosters)
}
