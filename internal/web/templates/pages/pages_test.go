package pages

import (
	"bytes"
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/mcoot/relayview/internal/services/checkout"
	"github.com/mcoot/relayview/internal/web/env"
	"github.com/mcoot/relayview/internal/web/templates/layout"
)

func render(t *testing.T, ctx context.Context, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestPayPalApproveFields(t *testing.T) {
	doc := render(t, context.Background(), PayPalApprove(PayPalApproveData{
		PageData: layout.PageData{Title: "PayPal"},
		Start:    &checkout.Start{Kind: checkout.KindSubscription, Token: "SUB-1"},
		Currency: "USD",
	}))

	assert.Equal(t, "", doc.Find("input[name=orderID]").AttrOr("value", "missing"))
	assert.Equal(t, "SUB-1", doc.Find("input[name=subscriptionID]").AttrOr("value", ""))
	assert.Equal(t, "subscription", doc.Find(".paypal-approve").AttrOr("data-kind", ""))
	assert.Equal(t, "/patron/paypal/approve", doc.Find(".paypal-approve form").AttrOr("action", ""))
}

func TestStripeRedirect(t *testing.T) {
	doc := render(t, context.Background(), StripeRedirect(StripeRedirectData{
		PageData:  layout.PageData{Title: "Credit card"},
		PublicKey: "pk_test",
		SessionID: "cs_1",
	}))

	redirect := doc.Find(".stripe-redirect")
	assert.Equal(t, "pk_test", redirect.AttrOr("data-stripe-key", ""))
	assert.Equal(t, "cs_1", redirect.AttrOr("data-session-id", ""))
	assert.Equal(t, "/patron", redirect.Find("a").AttrOr("href", ""))
	assert.Equal(t, 1, doc.Find("script[src='https://js.stripe.com/v3/']").Length())
	assert.Contains(t, doc.Find("main script").Last().Text(), "redirectToCheckout")
}

func TestPageIncludesFlash(t *testing.T) {
	doc := render(t, context.Background(), Error(ErrorData{
		PageData: layout.PageData{Title: "Players", Flash: &layout.FlashMessage{Type: "error", Message: "Boom"}},
		Message:  "body",
	}))

	assert.Equal(t, "Players - relayview", doc.Find("title").Text())
	assert.Equal(t, "Boom", doc.Find(".flash.flash--error").Text())
	assert.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "body", doc.Find("main .error-page p").Text())
}

func TestPageScripts(t *testing.T) {
	ctx := env.With(context.Background(), env.Env{
		Locale:     language.French,
		AssetBase:  "https://assets.example.com/",
		ScriptBase: "https://cdn.example.com",
		UserID:     "alice",
	})

	doc := render(t, ctx, Home(HomeData{PageData: layout.PageData{Title: "Home"}}))

	var srcs []string
	doc.Find("head script").Each(func(_ int, s *goquery.Selection) {
		srcs = append(srcs, s.AttrOr("src", ""))
	})
	assert.Equal(t, []string{
		"https://cdn.example.com/" + layout.HTMXScript,
		"https://cdn.example.com/" + layout.SSEScript,
		"https://assets.example.com/js/relayview.js",
	}, srcs)
	assert.Equal(t, "https://assets.example.com/css/site.css", doc.Find("link[rel=stylesheet]").AttrOr("href", ""))
	assert.Equal(t, "fr", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "alice", doc.Find("body").AttrOr("data-user", ""))
}
