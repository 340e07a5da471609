package components

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/checkout"
	"github.com/mcoot/relayview/internal/services/relay"
	"github.com/mcoot/relayview/internal/services/roster"
	"github.com/mcoot/relayview/internal/services/study"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(renderString(t, c)))
	require.NoError(t, err)
	return doc
}

func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func testRoster() *model.Roster {
	return model.NewRoster([]model.Player{
		{Name: "Carlsen, Magnus", Title: "GM", FideID: 1503014, Rating: 2830, Score: floatPtr(4.5), Played: 6,
			RatingDiff: intPtr(-3), Fed: &model.Federation{ID: "NOR", Name: "Norway"}},
		{Name: "Nameless Amateur", Score: floatPtr(1), Played: 6},
	})
}

func TestPlayersListRendersRoster(t *testing.T) {
	doc := render(t, PlayersPanel(PlayersData{TourID: "t1", State: roster.State{Roster: testRoster()}}))

	panel := doc.Find("#" + PlayersPanelID)
	assert.Equal(t, "/broadcast/t1/players/events", panel.AttrOr("sse-connect", ""))
	assert.Equal(t, "#players", doc.Find(".relay-tour__players-tab").AttrOr("data-tab-hash", ""))
	assert.Equal(t, "/broadcast/t1/players/hash", doc.Find(".relay-tour__players-deeplink").AttrOr("hx-post", ""))

	heads := doc.Find("thead th")
	require.Equal(t, 3, heads.Length())
	assert.Equal(t, "Score", heads.Eq(2).Text())

	rows := doc.Find("tbody tr")
	require.Equal(t, 2, rows.Length())
	link := rows.Eq(0).Find("td.player-name a")
	assert.Equal(t, "#players/1503014", link.AttrOr("href", ""))
	assert.Equal(t, "/broadcast/t1/players/1503014", link.AttrOr("hx-get", ""))
	assert.Equal(t, "GM", link.Find(".utitle").Text())
	assert.Equal(t, "/static/images/fide-fed-webp/NOR.webp", link.Find("img").AttrOr("src", ""))
	assert.Equal(t, "2830−3", rows.Eq(0).Find("td").Eq(1).Text())
	assert.Equal(t, "4.5/6", rows.Eq(0).Find("td").Eq(2).Text())
	assert.Equal(t, "#players/Nameless Amateur", rows.Eq(1).Find("td.player-name a").AttrOr("href", ""))
}

func TestPlayersListWithoutRosterLoadsOnInsert(t *testing.T) {
	doc := render(t, PlayersContent(PlayersData{TourID: "t1"}))

	list := doc.Find(".relay-tour__players")
	assert.True(t, list.HasClass("nodata"))
	assert.Equal(t, "/broadcast/t1/players/reload", list.AttrOr("hx-post", ""))
	assert.Equal(t, 1, doc.Find(".spinner").Length())
}

func TestPlayersListLoadingFlag(t *testing.T) {
	doc := render(t, PlayersContent(PlayersData{TourID: "t1", State: roster.State{Loading: true, Roster: testRoster()}}))
	assert.True(t, doc.Find("div.relay-tour__players").HasClass("loading"))

	html := renderString(t, PlayersContent(PlayersData{TourID: "t1", State: roster.State{Roster: testRoster()}}))
	assert.Contains(t, html, `<div class="relay-tour__players">`)
}

func TestPlayerViewLoading(t *testing.T) {
	doc := render(t, PlayersContent(PlayersData{
		TourID: "t1",
		State:  roster.State{Shown: &roster.Shown{Key: "42"}},
	}))

	assert.Equal(t, "#players/42", doc.Find(".relay-tour__players-tab").AttrOr("data-tab-hash", ""))
	assert.Equal(t, 1, doc.Find(".relay-tour__player.loading .spinner").Length())
}

func TestPlayerViewLoaded(t *testing.T) {
	p := &model.PlayerWithGames{
		Player: model.Player{
			Name: "Alice", FideID: 42, Score: floatPtr(2), Played: 3, Performance: 2400,
			RatingDiff: intPtr(5), Team: "Team A", Fed: &model.Federation{ID: "FRA", Name: "France"},
		},
		Games: []model.PlayerGame{
			{Chapter: "c1", Round: "r1", Color: chess.White, Points: model.PointsWin,
				Opponent: model.Player{Name: "Bob", FideID: 7, Rating: 2200}, RatingDiff: intPtr(4)},
			{Chapter: "c2", Round: "r2", Color: chess.Black, Points: model.PointsDraw,
				Opponent: model.Player{Name: "Carol"}},
			{Chapter: "c3", Round: "r3", Color: chess.White, Opponent: model.Player{Name: "Dan"}},
		},
		Fide: &model.FideProfile{Ratings: map[string]int{"standard": 2380, "rapid": 2300}, Year: 2000},
	}
	tour := &model.Tour{FideTC: "rapid", Dates: []time.Time{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}}

	doc := render(t, PlayersContent(PlayersData{
		TourID: "t1",
		Tour:   tour,
		State:  roster.State{Shown: &roster.Shown{Key: "42", Player: p}},
	}))

	assert.Equal(t, "/fide/42/redirect", doc.Find("a.relay-tour__player__name").AttrOr("href", ""))
	assert.Equal(t, "Team A", doc.Find(".relay-tour__player__team").Text())

	cards := map[string]string{}
	doc.Find(".relay-tour__player__card").Each(func(_ int, s *goquery.Selection) {
		cards[s.Find("em").Text()] = strings.TrimSpace(s.Find("span").First().Text())
	})
	assert.Equal(t, "2380", cards["Classical"])
	assert.Equal(t, "2300", cards["Rapid"])
	assert.Equal(t, "-", cards["Blitz"])
	assert.Equal(t, "24", cards["Age this year"])
	assert.Equal(t, "2 / 3", cards["Score"])
	assert.Equal(t, "2400?", cards["Performance"])
	assert.Equal(t, "+5", cards["Rating diff"])
	assert.Equal(t, "Rapid", doc.Find(".relay-tour__player__card.active em").Text())

	rows := doc.Find("table.relay-tour__player__games tbody tr")
	require.Equal(t, 3, rows.Length())
	assert.Equal(t, "/broadcast/-/-/r1/c1", rows.Eq(0).Find("a").AttrOr("href", ""))
	assert.Equal(t, "/broadcast/t1/players/7/tip", rows.Eq(0).Find("a").AttrOr("data-tip", ""))
	assert.True(t, rows.Eq(0).Find("td.color-icon").HasClass("white"))
	assert.Equal(t, "1", rows.Eq(0).Find(".tpp__games__status").Text())
	assert.Equal(t, "+4", rows.Eq(0).Find("good.rp").Text())
	assert.Equal(t, "½", rows.Eq(1).Find(".tpp__games__status").Text())
	assert.Equal(t, "*", strings.TrimSpace(rows.Eq(2).Find(".tpp__games__status").Text()))
	assert.Equal(t, "/broadcast/t1/players/close", doc.Find("button.relay-tour__player__close").AttrOr("hx-post", ""))
}

func TestPlayerTip(t *testing.T) {
	p := &model.PlayerWithGames{
		Player: model.Player{Name: "Bob", FideID: 7, Rating: 2200, Score: floatPtr(0.5), Played: 1},
		Games:  []model.PlayerGame{{Chapter: "c1", Round: "r1", Points: model.PointsLoss, Opponent: model.Player{Name: "Alice", FideID: 42}}},
	}

	doc := render(t, PlayerTip("t1", p))

	assert.Equal(t, "#players/7", doc.Find("a.tpp__player__name").AttrOr("href", ""))
	assert.Equal(t, "0.5/1", doc.Find(".tpp__player__info > div").Eq(1).Text())
	assert.Equal(t, "0", doc.Find(".tpp__games bad").Text())
	_, hasTip := doc.Find(".tpp__games a").Attr("data-tip")
	assert.False(t, hasTip, "tips do not nest")
}

func relayPanel(sync *model.RelaySync, contributor, admin, polling bool) *relay.Panel {
	round := &model.RelayRound{ID: "r1", Sync: sync, Study: model.RelayStudy{ID: "s1", Admin: admin}}
	return &relay.Panel{
		Round:       round,
		Contributor: contributor,
		Admin:       admin,
		Kind:        relay.Kind(sync),
		Description: relay.Describe(sync),
		Log:         relay.LogLines(sync),
		Polling:     polling,
	}
}

func TestRelayManagerOn(t *testing.T) {
	sync := &model.RelaySync{
		URL: "https://example.com/games.pgn", Ongoing: true, Delay: 30,
		Log: []model.LogEvent{{Moves: 2, At: 1000}, {Error: "Timeout", At: 2000}},
	}

	doc := render(t, RelayManager(relayPanel(sync, true, false, true)))

	state := doc.Find(".state.on")
	assert.Equal(t, "/broadcast/round/r1/sync", state.AttrOr("hx-post", ""))
	assert.Equal(t, `{"sync":"false"}`, state.AttrOr("hx-vals", ""))
	assert.Equal(t, "Connected with 30s delay to sourceexample.com/games.pgn", state.Text())
	assert.Equal(t, "/broadcast/round/s1/edit", doc.Find(".relay-admin h2 a").AttrOr("href", ""))

	log := doc.Find(".log > div")
	require.Equal(t, 3, log.Length())
	assert.Contains(t, log.Eq(0).Text(), "Polling source...")
	assert.True(t, log.Eq(1).HasClass("err"), "newest first")
	assert.Equal(t, "https://example.com/games.pgn", log.Eq(1).Find("a").AttrOr("href", ""))
	assert.Equal(t, "1970-01-01T00:00:02Z", log.Eq(1).Find("time").AttrOr("datetime", ""))
	assert.Equal(t, "Jan 1, 00:00:02", log.Eq(1).Find("time").Text())
	assert.Equal(t, "2", log.Eq(2).Find("strong").Text())
	assert.Contains(t, log.Eq(2).Text(), "2 new moves")
}

func TestRelayManagerSanitizesSourceURL(t *testing.T) {
	sync := &model.RelaySync{
		URL: "javascript:alert(document.cookie)",
		Log: []model.LogEvent{{Error: "Timeout", At: 2000}},
	}

	html := renderString(t, RelayManager(relayPanel(sync, true, false, false)))

	assert.NotContains(t, html, `href="javascript:`)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, "about:invalid#TemplFailedSanitizationURL", doc.Find(".log .err a").AttrOr("href", ""))
}

func TestRelayManagerOffAndPush(t *testing.T) {
	doc := render(t, RelayManager(relayPanel(&model.RelaySync{URL: "https://x"}, true, false, false)))
	assert.Equal(t, `{"sync":"true"}`, doc.Find(".state.off").AttrOr("hx-vals", ""))
	assert.Equal(t, 0, doc.Find(".load").Length())

	doc = render(t, RelayManager(relayPanel(nil, true, false, false)))
	assert.Equal(t, "Listening to Broadcaster App", doc.Find(".state.push").Text())
}

func TestRelayManagerVisibility(t *testing.T) {
	doc := render(t, RelayManager(relayPanel(nil, false, true, false)))
	assert.Equal(t, 0, doc.Find(".relay-admin").Length(), "admins see no sync block")
	assert.Equal(t, 1, doc.Find(".relay-admin__study").Length())

	doc = render(t, RelayManager(relayPanel(nil, false, false, false)))
	container := doc.Find("#" + RelayManagerID)
	assert.Equal(t, 1, container.Length())
	assert.False(t, container.HasClass("relay-admin__container"))
	assert.Equal(t, 0, container.Children().Length())
}

func TestLogTime(t *testing.T) {
	at := time.Date(2024, 5, 3, 12, 0, 5, 0, time.UTC)

	assert.Equal(t, "May 3, 12:00:05", LogTime(at, language.English))
	assert.Equal(t, "3 mai, 12:00:05", LogTime(at, language.French))
	assert.Equal(t, "3 Mai, 12:00:05", LogTime(at, language.German))
	assert.Equal(t, "May 3, 12:00:05", LogTime(at, language.Hindi), "untranslated locales use English")
}

func TestCommentThread(t *testing.T) {
	node := &model.Node{Path: "aa", Ply: 3, SAN: "Nf3", Comments: []model.Comment{
		{ID: "c1", By: model.Author{ID: "bob", Name: "GM Bob"}, Text: "Strong <move>"},
		{ID: "c2", By: model.Author{Name: "Imported"}, Text: "Old"},
	}}
	thread := study.BuildThread(node, "alice", false, true)
	thread.StudyID, thread.ChapterID = "s1", "ch1"

	doc := render(t, CommentThread(thread))

	comments := doc.Find(".study__comment")
	require.Equal(t, 2, comments.Length())
	first := comments.Eq(0)
	assert.True(t, first.HasClass("c1"))
	assert.Equal(t, "/@/bob", first.Find(".user-link").AttrOr("data-href", ""))
	assert.Equal(t, "2. Nf3", first.Find(".node").Text())
	assert.Equal(t, "Strong <move>", first.Find(".text").Text())
	del := first.Find("a.edit")
	assert.Equal(t, "/study/s1/ch1/comments/c1/delete?path=aa", del.AttrOr("hx-post", ""))
	assert.Equal(t, "Delete GM Bob's comment?", del.AttrOr("hx-confirm", ""))
	assert.Contains(t, comments.Eq(1).Text(), "Imported on 2. Nf3: ")
}

func TestCommentThreadEmpty(t *testing.T) {
	assert.Equal(t, "", renderString(t, CommentThread(&study.Thread{})))
	assert.Equal(t, "", renderString(t, CommentThread(nil)))
}

func TestRichText(t *testing.T) {
	segs := RichText("see lichess.org/broadcast\nthanks @Bob-1!")

	require.Len(t, segs, 6)
	assert.Equal(t, Segment{Kind: SegmentText, Text: "see "}, segs[0])
	assert.Equal(t, Segment{Kind: SegmentLink, Text: "lichess.org/broadcast", Href: "https://lichess.org/broadcast"}, segs[1])
	assert.Equal(t, SegmentBreak, segs[2].Kind)
	assert.Equal(t, Segment{Kind: SegmentText, Text: "thanks "}, segs[3])
	assert.Equal(t, Segment{Kind: SegmentUser, Text: "@Bob-1", Href: "/@/bob-1"}, segs[4])
	assert.Equal(t, Segment{Kind: SegmentText, Text: "!"}, segs[5])
}

func TestRichTextKeepsSchemeAndIgnoresEmbeddedAt(t *testing.T) {
	segs := RichText("https://example.com/@carol is a page")

	require.Len(t, segs, 2)
	assert.Equal(t, Segment{Kind: SegmentLink, Text: "https://example.com/@carol", Href: "https://example.com/@carol"}, segs[0])
	assert.Equal(t, Segment{Kind: SegmentText, Text: " is a page"}, segs[1])
}

func TestRichTextView(t *testing.T) {
	doc := render(t, RichTextView("Read https://example.com/a?b=1&c=2 @alice\n<b>bold</b> javascript:alert(1)"))

	links := doc.Find("a[target=_blank]")
	require.Equal(t, 1, links.Length())
	assert.Equal(t, "https://example.com/a?b=1&c=2", links.AttrOr("href", ""))
	assert.Equal(t, "nofollow noopener noreferrer", links.AttrOr("rel", ""))
	assert.Equal(t, "/@/alice", doc.Find("a.user-link").AttrOr("href", ""))
	assert.Equal(t, 1, doc.Find("br").Length())
	assert.Equal(t, 0, doc.Find("b").Length(), "text is escaped")
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		assert.False(t, strings.HasPrefix(s.AttrOr("href", ""), "javascript:"))
	})
}

func TestCheckoutForm(t *testing.T) {
	pricing := checkout.DefaultPricings()["USD"]
	f := checkout.NewForm(pricing, "viewer", false)

	doc := render(t, CheckoutForm(CheckoutData{Form: f}))

	assert.Equal(t, 1, doc.Find("button.paypal--order").Length())
	assert.Equal(t, 0, doc.Find("button.paypal--subscription").Length())
	assert.True(t, doc.Find(".amount_fixed").HasClass("none"))
	assert.False(t, doc.Find(".amount_choice").HasClass("none"))
	assert.True(t, doc.Find(".gift").HasClass("none"))
	_, checked := doc.Find("#freq_onetime").Attr("checked")
	assert.True(t, checked)
	_, defaultChecked := doc.Find("input.default").Attr("checked")
	assert.True(t, defaultChecked)
	assert.Equal(t, "/patron/checkout/card-session", doc.Find("button.stripe").AttrOr("formaction", ""))
	assert.Equal(t, "/patron/checkout/card-session", doc.Find("form#checkout").AttrOr("action", ""))
}

func TestCheckoutFormGiftWithoutRecipient(t *testing.T) {
	pricing := checkout.DefaultPricings()["USD"]
	f := checkout.NewForm(pricing, "viewer", true)
	f.SetDest(model.DestGift)

	doc := render(t, CheckoutForm(CheckoutData{Form: f}))

	_, monthlyDisabled := doc.Find("#freq_monthly").Attr("disabled")
	assert.True(t, monthlyDisabled)
	_, lifetimeDisabled := doc.Find("#freq_lifetime").Attr("disabled")
	assert.False(t, lifetimeDisabled)
	assert.False(t, doc.Find(".gift").HasClass("none"))
	assert.Equal(t, 1, doc.Find(".paypal--disabled").Length())
	_, stripeDisabled := doc.Find("button.stripe").Attr("disabled")
	assert.True(t, stripeDisabled)
}

func TestCheckoutFormOtherAmount(t *testing.T) {
	pricing := checkout.DefaultPricings()["USD"]
	f := checkout.NewForm(pricing, "viewer", false)
	f.Amount = 12.5
	f.SetFreq(model.FreqMonthly)

	doc := render(t, CheckoutForm(CheckoutData{Form: f}))

	assert.Equal(t, "12.5", doc.Find("input[name=other]").AttrOr("value", ""))
	assert.Equal(t, 0, doc.Find("input[name=amount][checked]").Length())
	assert.Equal(t, 1, doc.Find("button.paypal--subscription").Length())
}

func TestCurrencyFormHiddenForSingleCurrency(t *testing.T) {
	pricing := checkout.DefaultPricings()["USD"]
	f := checkout.NewForm(pricing, "viewer", false)

	assert.Equal(t, "", renderString(t, CurrencyForm(CheckoutData{Form: f, Currencies: []string{"USD"}})))

	doc := render(t, CurrencyForm(CheckoutData{Form: f, Currencies: []string{"EUR", "USD"}}))
	assert.Equal(t, "USD", doc.Find("option[selected]").AttrOr("value", ""))
}
