package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/relayview/internal/api"
	"github.com/mcoot/relayview/internal/api/response"
	"github.com/mcoot/relayview/internal/factory"
	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/upstream/upstreamtest"
	"github.com/mcoot/relayview/internal/web"
	"github.com/mcoot/relayview/internal/web/handler"
	"github.com/mcoot/relayview/internal/web/middleware"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "relayview-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/relayview")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) args(args []string) []string {
	return append([]string{"--server", r.serverURL, "--output", "json"}, args...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	cmd := exec.Command(r.binaryPath, r.args(args)...)
	output, err := cmd.Output()
	return string(output), err
}

// runFor runs a command that does not exit on its own, such as a stream
func (r *cliRunner) runFor(d time.Duration, args ...string) string {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	cmd := exec.CommandContext(ctx, r.binaryPath, r.args(args)...)
	output, _ := cmd.Output()
	return string(output)
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	upstream *upstreamtest.Server
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	up := upstreamtest.NewServer()
	up.AddTour(model.ServerTour{ID: "tour1", Name: "Norway Chess"},
		model.ServerPlayer{Name: "Carlsen, Magnus", FideID: 1503014, Fed: "NOR", Rating: 2830},
		model.ServerPlayer{Name: "Firouzja, Alireza", FideID: 12573981, Fed: "FRA", Rating: 2760},
	)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Create application
	projectRoot := findProjectRoot(t)
	app, err := factory.New(factory.Config{UpstreamURL: up.URL, Logger: logger, AssetBase: "/static"})
	require.NoError(t, err)
	require.NoError(t, app.Federations.LoadFromFile(context.Background(), filepath.Join(projectRoot, "data/federations.json")))

	// Create routers
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		Loader:          app.Loader,
		Registry:        app.Registry,
		Federations:     app.Federations,
		CheckoutService: app.CheckoutService,
	})

	webRouter := web.NewRouter(web.RouterConfig{
		Logger:          logger,
		Registry:        app.Registry,
		Loader:          app.Loader,
		RosterRenderer:  app.RosterRenderer,
		HubManager:      app.HubManager,
		Broadcaster:     app.Broadcaster,
		RelayService:    app.RelayService,
		StudyService:    app.StudyService,
		CheckoutService: app.CheckoutService,
		Checkout:        handler.CheckoutOptions{DefaultCurrency: "USD"},
		Env:             middleware.EnvOptions{AssetBase: "/static", UserHeader: "X-Relay-User"},
		StaticDir:       filepath.Join(projectRoot, "internal/web/static"),
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server:   server,
		addr:     serverURL,
		upstream: up,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			up.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp response.Health
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Greater(t, resp.Federations, 50)
}

func TestCLI_PlayerCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("players", "list", "tour1")
	require.NoError(t, err, "output: %s", output)

	var roster response.Roster
	require.NoError(t, json.Unmarshal([]byte(output), &roster))
	require.Len(t, roster.Players, 2)
	assert.Equal(t, "1503014", roster.Players[0].Key)
	require.NotNil(t, roster.Players[1].Fed)
	assert.Equal(t, "France", roster.Players[1].Fed.Name)

	output, err = cli.run("players", "show", "tour1", "12573981")
	require.NoError(t, err, "output: %s", output)

	var detail response.PlayerDetail
	require.NoError(t, json.Unmarshal([]byte(output), &detail))
	assert.Equal(t, "Firouzja, Alireza", detail.Name)

	_, err = cli.run("players", "show", "tour1", "42")
	assert.Error(t, err, "unknown player exits non-zero")
}

func TestCLI_Quote(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("quote", "--currency", "EUR", "--dest", "gift", "--gift", "friend_1", "--other", "1,5")
	require.NoError(t, err, "output: %s", output)

	var quote response.Quote
	require.NoError(t, json.Unmarshal([]byte(output), &quote))
	assert.Equal(t, 2.0, quote.Amount, "gift amounts are raised to the gift minimum")
	assert.Equal(t, "friend_1", quote.Gift)
}

func TestCLI_EventsStreamsPlayerList(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output := cli.runFor(2*time.Second, "events", "players", "tour1")

	assert.Contains(t, output, `"event":"connected"`)
	assert.Contains(t, output, `"event":"players-redraw"`)
}
