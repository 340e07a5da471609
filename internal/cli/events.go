package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var (
		jsonOutput bool
		viewer     string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream SSE events from the web UI",
		Long: `Connect to an SSE endpoint of the web UI and print events as they arrive.

Events include:
  - connected: the stream is registered
  - players-redraw: a viewer's player list changed (data is HTML)
  - players-switch: the players tab was selected
  - relay-refresh: a round's sync settings changed

Press Ctrl+C to disconnect.`,
	}
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	playersCmd := &cobra.Command{
		Use:   "players <tourId>",
		Short: "Follow a viewer's player list of a tournament",
		Long: `Follow a viewer's player list of a tournament.

Without --viewer the server assigns a fresh viewer, which only ever
receives the initial redraw. Pass the relay_viewer cookie of a browser
session to follow what that browser sees.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/broadcast/" + url.PathEscape(args[0]) + "/players/events"
			return streamEvents(cmd.Context(), cmd.OutOrStdout(), path, viewer, jsonOutput)
		},
	}
	playersCmd.Flags().StringVar(&viewer, "viewer", "", "Viewer id (relay_viewer cookie)")

	roundCmd := &cobra.Command{
		Use:   "round <roundId>",
		Short: "Follow sync changes of a broadcast round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/broadcast/round/" + url.PathEscape(args[0]) + "/events"
			return streamEvents(cmd.Context(), cmd.OutOrStdout(), path, "", jsonOutput)
		},
	}

	cmd.AddCommand(playersCmd, roundCmd)
	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamEvents(ctx context.Context, w io.Writer, path, viewer string, jsonOutput bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SSE is on the web router, not the API router
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(cfg.ServerURL, "/")+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if viewer != "" {
		req.AddCookie(&http.Cookie{Name: "relay_viewer", Value: viewer})
	}

	// No timeout for SSE
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if !jsonOutput {
		_, _ = fmt.Fprintf(w, "Connected to %s\n", path)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			if currentEvent != "" {
				printEvent(w, currentEvent, strings.Join(dataLines, "\n"), jsonOutput)
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		_, _ = fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

func printEvent(w io.Writer, event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		jsonData, _ := json.Marshal(SSEEvent{Time: now, Event: event, Data: data})
		_, _ = fmt.Fprintln(w, string(jsonData))
		return
	}

	// Redraws carry whole fragments; keep one line per event
	displayData := strings.ReplaceAll(data, "\n", " ")
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", now.Format("2006-01-02 15:04:05"), event, displayData)
}
