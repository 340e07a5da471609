package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/relayview/internal/metrics"
	"github.com/mcoot/relayview/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *metrics.Mock) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	m := metrics.NewMock()
	return NewClient(server.URL+"/", m, WithHTTPClient(server.Client())), m
}

func TestPlayers(t *testing.T) {
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/broadcast/tour1/players", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"name":"Alice","fideId":1,"rating":"2100"},{"name":"Bob","score":1.5}]`)
	})

	players, err := client.Players(context.Background(), "tour1")

	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Alice", players[0].Name)
	assert.Equal(t, 1, m.UpstreamRequests("players"))
}

func TestPlayerWithGamesEscapesKey(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/broadcast/tour1/players/Carlsen, Magnus", r.URL.Path)
		fmt.Fprint(w, `{"name":"Carlsen, Magnus","games":[{"id":"c1","round":"r1","color":"white","points":"1","opponent":{"name":"X"}}]}`)
	})

	p, err := client.PlayerWithGames(context.Background(), "tour1", "Carlsen, Magnus")

	require.NoError(t, err)
	assert.Equal(t, "Carlsen, Magnus", p.Name)
	require.Len(t, p.Games, 1)
	assert.Equal(t, "X", p.Games[0].Opponent.Name)
}

func TestNotFoundUnwrapsToModelError(t *testing.T) {
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"Not found"}`)
	})

	_, err := client.Players(context.Background(), "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusNotFound, upErr.Status)
	assert.Equal(t, "Not found", upErr.Message)
	assert.Equal(t, 1, m.UpstreamRequests("players"))
}

func TestServerErrorIsNotNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Tour(context.Background(), "t1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "boom")
}

func TestMalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{not json`)
	})

	_, err := client.Players(context.Background(), "t1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestTourUnwrapsEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/broadcast/t1", r.URL.Path)
		fmt.Fprint(w, `{"tour":{"id":"t1","name":"Open","dates":[1717200000000],"info":{"fideTc":"blitz"}}}`)
	})

	tour, err := client.Tour(context.Background(), "t1")

	require.NoError(t, err)
	assert.Equal(t, "Open", tour.Name)
	assert.Equal(t, "blitz", tour.Convert().TimeControl())
}

func TestSetSyncPostsForm(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/broadcast/round/r1/sync", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "false", r.PostForm.Get("sync"))
		fmt.Fprint(w, `{"sync":{"url":"https://example.com/game.pgn","ongoing":false},"study":{"id":"s1"}}`)
	})

	round, err := client.SetSync(context.Background(), "r1", false)

	require.NoError(t, err)
	assert.Equal(t, model.RoundID("r1"), round.ID)
	assert.False(t, round.Sync.Ongoing)
}

func TestNodeSendsPath(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/study/s1/c1/node", r.URL.Path)
		assert.Equal(t, "aB", r.URL.Query().Get("path"))
		fmt.Fprint(w, `{"node":{"path":"aB","ply":3,"san":"Nf3","comments":[{"id":"x","by":"Imported","text":"hi"}]},"study":{"id":"s1","contributors":["alice"]}}`)
	})

	sn, err := client.Node(context.Background(), "s1", "c1", "aB")

	require.NoError(t, err)
	assert.Equal(t, 3, sn.Node.Ply)
	require.Len(t, sn.Node.Comments, 1)
	assert.False(t, sn.Node.Comments[0].By.IsUser())
	assert.True(t, sn.Study.CanContribute("alice"))
}

func TestPayPalCheckoutDecodesErrorBodies(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EUR", r.URL.Query().Get("currency"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "5", r.PostForm.Get("amount"))
		assert.Equal(t, "onetime", r.PostForm.Get("freq"))
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"Invalid amount"}`)
	})

	resp, err := client.PayPalCheckout(context.Background(), "EUR", CheckoutForm{Amount: 5, Freq: model.FreqOnetime})

	require.NoError(t, err)
	assert.Equal(t, "Invalid amount", resp.Error)
}

func TestStripeCheckoutDecodesSession(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/patron/stripe/checkout", r.URL.Path)
		fmt.Fprint(w, `{"session":{"id":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1"}}`)
	})

	resp, err := client.StripeCheckout(context.Background(), "USD", CheckoutForm{Amount: 10, Freq: model.FreqMonthly})

	require.NoError(t, err)
	require.NotNil(t, resp.Session)
	assert.Equal(t, "cs_test_1", resp.Session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", resp.Session.URL)
}

func TestPayPalCaptureSubscription(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/patron/paypal/capture/ORDER1", r.URL.Path)
		assert.Equal(t, "SUB1", r.URL.Query().Get("sub"))
		fmt.Fprint(w, `{}`)
	})

	err := client.PayPalCapture(context.Background(), "ORDER1", "SUB1")
	require.NoError(t, err)
}
