package sse

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/web/env"
	"github.com/mcoot/relayview/internal/web/templates/components"
)

// Event names the browser listens for
const (
	EventPlayersRedraw = "players-redraw"
	EventPlayersSwitch = "players-switch"
	EventRelayRefresh  = "relay-refresh"
)

// Broadcaster handles broadcasting updates to SSE clients
type Broadcaster struct {
	hubManager *HubManager
	env        env.Env
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster. Fragments are rendered in e
// since pushes happen outside of any request.
func NewBroadcaster(hubManager *HubManager, e env.Env, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		env:        e,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// BroadcastPlayers pushes the rendered player list of one viewer
func (b *Broadcaster) BroadcastPlayers(ctx context.Context, viewerID string, data components.PlayersData) {
	hub := b.hubManager.GetHub(PlayersTopic(viewerID, data.TourID))
	if hub == nil {
		return
	}

	var buf bytes.Buffer
	if err := components.PlayersContent(data).Render(env.With(ctx, b.env), &buf); err != nil {
		b.logger.Error("sse failed to render players",
			slog.String("tour_id", string(data.TourID)),
			slog.Any("error", err))
		return
	}
	hub.BroadcastEvent(EventPlayersRedraw, buf.String())
}

// BroadcastSwitchTab asks the viewer's page to bring the players tab forward
func (b *Broadcaster) BroadcastSwitchTab(viewerID string, tourID model.TourID) {
	hub := b.hubManager.GetHub(PlayersTopic(viewerID, tourID))
	if hub == nil {
		return
	}
	hub.BroadcastEvent(EventPlayersSwitch, "players")
}

// BroadcastRelayRefresh tells every manager panel of a round to refetch.
// Panels differ per user so only the signal is shared.
func (b *Broadcaster) BroadcastRelayRefresh(roundID model.RoundID) {
	hub := b.hubManager.GetHub(RoundTopic(roundID))
	if hub == nil {
		return
	}
	hub.BroadcastEvent(EventRelayRefresh, string(roundID))
}
