package components

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
	"mvdan.cc/xurls/v2"

	"github.com/mcoot/relayview/internal/model"
)

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

// sortByBoth orders table rows on x, then on y
func sortByBoth(x, y float64) string {
	return formatNumber(x*100000 + y)
}

func scoreValue(s *float64) float64 {
	if s == nil {
		return 0
	}
	return *s
}

func scoreOf(p model.Player) string {
	return formatNumber(scoreValue(p.Score)) + "/" + formatInt(p.Played)
}

type ratingCateg struct {
	Key   string
	Label string
}

var ratingCategs = []ratingCateg{
	{"standard", "Classical"},
	{"rapid", "Rapid"},
	{"blitz", "Blitz"},
}

// tourContext returns the time control and year used for rating and age cards
func tourContext(tour *model.Tour, now time.Time) (string, int) {
	if tour == nil {
		return "standard", now.Year()
	}
	return tour.TimeControl(), tour.Year(now)
}

func fideRating(f *model.FideProfile, categ string) string {
	if r := f.Ratings[categ]; r > 0 {
		return formatInt(r)
	}
	return "-"
}

func performance(p *model.PlayerWithGames) string {
	perf := formatInt(p.Performance)
	if len(p.Games) < 4 {
		perf += "?"
	}
	return perf
}

var mondayLocales = map[language.Base]monday.Locale{}

func init() {
	for tag, loc := range map[language.Tag]monday.Locale{
		language.English:   monday.LocaleEnUS,
		language.French:    monday.LocaleFrFR,
		language.German:    monday.LocaleDeDE,
		language.Spanish:   monday.LocaleEsES,
		language.Norwegian: monday.LocaleNbNO,
		language.Russian:   monday.LocaleRuRU,
	} {
		base, _ := tag.Base()
		mondayLocales[base] = loc
	}
}

// LogTime formats a sync log timestamp for a locale as month, day and
// time of day. Locales without translated month names fall back to English.
func LogTime(t time.Time, locale language.Tag) string {
	base, _ := locale.Base()
	loc, ok := mondayLocales[base]
	if !ok || loc == monday.LocaleEnUS {
		return t.Format("Jan 2, 15:04:05")
	}
	return monday.Format(t, "2 Jan, 15:04:05", loc)
}

// SegmentKind tells how a piece of rich text renders
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentLink
	SegmentUser
	SegmentBreak
)

// Segment is one piece of rich text
type Segment struct {
	Kind SegmentKind
	Text string
	Href string
}

var (
	linkPattern    = xurls.Relaxed()
	mentionPattern = regexp.MustCompile(`(?:^|[^\w@/])(@[\w-]{2,30})\b`)
)

// RichText splits user text into plain runs, links, user mentions and
// line breaks. Links without a scheme get https.
func RichText(s string) []Segment {
	var out []Segment
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			out = append(out, Segment{Kind: SegmentBreak})
		}
		out = appendLinks(out, line)
	}
	return out
}

func appendLinks(out []Segment, line string) []Segment {
	last := 0
	for _, m := range linkPattern.FindAllStringIndex(line, -1) {
		out = appendMentions(out, line[last:m[0]])
		raw := line[m[0]:m[1]]
		href := raw
		switch {
		case strings.Contains(raw, "://"), strings.HasPrefix(raw, "mailto:"):
		case strings.Contains(raw, "@") && !strings.Contains(raw, "/"):
			href = "mailto:" + raw
		default:
			href = "https://" + raw
		}
		out = append(out, Segment{Kind: SegmentLink, Text: raw, Href: href})
		last = m[1]
	}
	return appendMentions(out, line[last:])
}

func appendMentions(out []Segment, text string) []Segment {
	last := 0
	for _, m := range mentionPattern.FindAllStringSubmatchIndex(text, -1) {
		// m[2]:m[3] is the @name without a leading boundary character
		if m[2] > last {
			out = append(out, Segment{Kind: SegmentText, Text: text[last:m[2]]})
		}
		name := text[m[2]+1 : m[3]]
		out = append(out, Segment{Kind: SegmentUser, Text: "@" + name, Href: UserURL(strings.ToLower(name))})
		last = m[3]
	}
	if last < len(text) {
		out = append(out, Segment{Kind: SegmentText, Text: text[last:]})
	}
	return out
}
