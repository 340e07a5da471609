package cli_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/relayview/internal/api"
	"github.com/mcoot/relayview/internal/api/response"
	"github.com/mcoot/relayview/internal/cli"
	"github.com/mcoot/relayview/internal/factory"
	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/testutil"
	"github.com/mcoot/relayview/internal/upstream/upstreamtest"
)

func startAPI(t *testing.T) (string, *upstreamtest.Server) {
	t.Helper()

	up := upstreamtest.NewServer()
	t.Cleanup(up.Close)
	up.AddTour(model.ServerTour{ID: "tour1", Name: "Norway Chess"},
		model.ServerPlayer{Name: "Carlsen, Magnus", Title: "GM", FideID: 1503014, Fed: "NOR", Rating: 2830},
		model.ServerPlayer{Name: "Anonymous"},
	)

	app := factory.NewTestApp(up.URL)
	app.LoadTestFederations()

	srv := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		Loader:          app.Loader,
		Registry:        app.Registry,
		Federations:     app.Federations,
		CheckoutService: app.CheckoutService,
	}))
	t.Cleanup(srv.Close)
	return srv.URL, up
}

func run(serverURL string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--server", serverURL}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestHealth(t *testing.T) {
	url, _ := startAPI(t)

	out, err := run(url, "health")

	require.NoError(t, err)
	assert.Contains(t, out, "Status: ok")
	assert.Contains(t, out, "Federations: 5")
}

func TestHealthJSON(t *testing.T) {
	url, _ := startAPI(t)

	out, err := run(url, "-o", "json", "health")

	require.NoError(t, err)
	var h response.Health
	require.NoError(t, json.Unmarshal([]byte(out), &h))
	assert.Equal(t, "ok", h.Status)
}

func TestPlayersList(t *testing.T) {
	url, _ := startAPI(t)

	out, err := run(url, "players", "list", "tour1")

	require.NoError(t, err)
	assert.Contains(t, out, "Tournament: tour1 (2 players)")
	assert.Contains(t, out, "GM Carlsen, Magnus")
	assert.Contains(t, out, "1503014")
	assert.Contains(t, out, "Anonymous")
}

func TestPlayersListRefresh(t *testing.T) {
	url, up := startAPI(t)

	_, err := run(url, "players", "list", "tour1")
	require.NoError(t, err)
	_, err = run(url, "players", "list", "--refresh", "tour1")
	require.NoError(t, err)

	assert.Equal(t, 2, up.Calls("players"))
}

func TestPlayersListUnknownTour(t *testing.T) {
	url, _ := startAPI(t)

	_, err := run(url, "players", "list", "missing")

	require.Error(t, err)
	assert.True(t, cli.IsCode(err, "TOUR_NOT_FOUND"), "got %v", err)
}

func TestPlayersShow(t *testing.T) {
	url, _ := startAPI(t)

	out, err := run(url, "-o", "json", "players", "show", "tour1", "1503014")

	require.NoError(t, err)
	var p response.PlayerDetail
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "Carlsen, Magnus", p.Name)
	require.NotNil(t, p.Fed)
	assert.Equal(t, "Norway", p.Fed.Name)
}

func TestPlayersShowNameKey(t *testing.T) {
	url, _ := startAPI(t)

	out, err := run(url, "players", "show", "tour1", "Anonymous")

	require.NoError(t, err)
	assert.Contains(t, out, "Player: Anonymous")
}

func TestQuote(t *testing.T) {
	url, _ := startAPI(t)

	out, err := run(url, "quote", "--currency", "GBP", "--freq", "lifetime")

	require.NoError(t, err)
	assert.Contains(t, out, "Amount: GBP 220")
	assert.Contains(t, out, "Frequency: lifetime")
}

func TestQuoteBelowMinimum(t *testing.T) {
	url, _ := startAPI(t)

	_, err := run(url, "quote", "--currency", "USD", "--amount", "0.5")

	require.Error(t, err)
	assert.True(t, cli.IsCode(err, "INVALID_AMOUNT"))
	assert.Contains(t, err.Error(), "Minimum amount is USD 1")
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := run("http://127.0.0.1:0", "-o", "yaml", "health")
	assert.Error(t, err)
}

func TestEventsRound(t *testing.T) {
	// The round stream is served by the web router; a plain handler
	// stands in so the test ends when the server closes the stream.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/broadcast/round/r1/events", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("event: connected\ndata: {}\n\nevent: relay-refresh\ndata: r1\n\n"))
	}))
	defer srv.Close()

	out, err := run(srv.URL, "events", "round", "r1")

	require.NoError(t, err)
	assert.Contains(t, out, "Connected to /broadcast/round/r1/events")
	assert.Contains(t, out, "relay-refresh: r1")
	assert.Contains(t, out, "Disconnected")
}

func TestEventsPlayersSendsViewer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("relay_viewer")
		if assert.NoError(t, err) {
			assert.Equal(t, "v1", c.Value)
		}
		_, _ = w.Write([]byte("event: players-redraw\ndata: <div>\ndata: </div>\n\n"))
	}))
	defer srv.Close()

	out, err := run(srv.URL, "events", "--json", "players", "--viewer", "v1", "tour1")

	require.NoError(t, err)
	var evt cli.SSEEvent
	require.NoError(t, json.Unmarshal(bytes.TrimSpace([]byte(out)), &evt))
	assert.Equal(t, "players-redraw", evt.Event)
	assert.Equal(t, "<div>\n</div>", evt.Data)
}
