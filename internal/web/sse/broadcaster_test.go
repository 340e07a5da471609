package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/relayview/internal/dependencies/mocks"
	"github.com/mcoot/relayview/internal/metrics"
	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/roster"
	"github.com/mcoot/relayview/internal/web/env"
	"github.com/mcoot/relayview/internal/web/templates/components"
)

func newBroadcaster() (*HubManager, *Broadcaster) {
	manager := NewHubManager(metrics.NewMock(), testLogger())
	return manager, NewBroadcaster(manager, env.Env{AssetBase: "/assets"}, testLogger())
}

func TestBroadcaster_BroadcastPlayers(t *testing.T) {
	manager, b := newBroadcaster()
	hub := manager.GetOrCreateHub(PlayersTopic("v1", "t1"))
	client := NewClient("v1")
	hub.Register(client)
	waitClients(t, hub, 1)

	r := model.NewRoster([]model.Player{{Name: "Alice", FideID: 1, Fed: &model.Federation{ID: "FRA", Name: "France"}}})
	b.BroadcastPlayers(context.Background(), "v1", components.PlayersData{TourID: "t1", State: roster.State{Roster: r}})

	msg := receive(t, client)
	assert.Contains(t, msg, "event: players-redraw\n")
	assert.Contains(t, msg, `data-tab-hash="#players"`)
	assert.Contains(t, msg, "Alice")
	assert.Contains(t, msg, `src="/assets/images/fide-fed-webp/FRA.webp"`)
}

func TestBroadcaster_TopicsAreIsolated(t *testing.T) {
	manager, b := newBroadcaster()
	other := NewClient("v2")
	otherHub := manager.GetOrCreateHub(PlayersTopic("v2", "t1"))
	otherHub.Register(other)
	waitClients(t, otherHub, 1)

	b.BroadcastPlayers(context.Background(), "v1", components.PlayersData{TourID: "t1"})
	b.BroadcastSwitchTab("v1", "t1")

	select {
	case msg := <-other.send:
		t.Fatalf("unexpected message for another viewer: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcaster_SwitchTabAndRelayRefresh(t *testing.T) {
	manager, b := newBroadcaster()
	viewer := NewClient("v1")
	players := manager.GetOrCreateHub(PlayersTopic("v1", "t1"))
	players.Register(viewer)
	manager1 := NewClient("v1")
	manager2 := NewClient("v2")
	round := manager.GetOrCreateHub(RoundTopic("r1"))
	round.Register(manager1)
	round.Register(manager2)
	waitClients(t, players, 1)
	waitClients(t, round, 2)

	b.BroadcastSwitchTab("v1", "t1")
	b.BroadcastRelayRefresh("r1")

	assert.Equal(t, "event: players-switch\ndata: players\n\n", receive(t, viewer))
	assert.Equal(t, "event: relay-refresh\ndata: r1\n\n", receive(t, manager1))
	assert.Equal(t, "event: relay-refresh\ndata: r1\n\n", receive(t, manager2))
}

func TestBroadcaster_NoHubDoesNotPanic(t *testing.T) {
	_, b := newBroadcaster()

	assert.NotPanics(t, func() {
		b.BroadcastPlayers(context.Background(), "nobody", components.PlayersData{TourID: "t1"})
		b.BroadcastSwitchTab("nobody", "t1")
		b.BroadcastRelayRefresh("r1")
	})
}

func TestRosterRendererData(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tour := &model.Tour{ID: "t1", FideTC: "blitz"}
	states := func(viewerID string, tourID model.TourID) (roster.State, bool) {
		if viewerID != "v1" {
			return roster.State{}, false
		}
		return roster.State{Shown: &roster.Shown{Key: "42"}}, true
	}
	tours := func(tourID model.TourID) (*model.Tour, bool) { return tour, tourID == "t1" }

	_, b := newBroadcaster()
	r := NewRosterRenderer(b, states, tours, mocks.NewMockClock(now))

	d := r.Data("v1", "t1")
	assert.Equal(t, model.TourID("t1"), d.TourID)
	assert.Same(t, tour, d.Tour)
	assert.Equal(t, now, d.Now)
	require.NotNil(t, d.State.Shown)
	assert.Equal(t, model.PlayerKey("42"), d.State.Shown.Key)

	d = r.Data("v2", "t2")
	assert.Nil(t, d.Tour)
	assert.Nil(t, d.State.Shown)
}

func TestRosterRendererHooks(t *testing.T) {
	manager, b := newBroadcaster()
	client := NewClient("v1")
	hub := manager.GetOrCreateHub(PlayersTopic("v1", "t1"))
	hub.Register(client)
	waitClients(t, hub, 1)

	states := func(string, model.TourID) (roster.State, bool) {
		return roster.State{Shown: &roster.Shown{Key: "42"}}, true
	}
	hooks := NewRosterRenderer(b, states, nil, mocks.NewMockClock(time.Now())).Hooks("v1", "t1")

	hooks.SwitchTab()
	hooks.Redraw()

	assert.Contains(t, receive(t, client), "event: players-switch")
	msg := receive(t, client)
	assert.Contains(t, msg, "event: players-redraw")
	assert.Contains(t, msg, `data-tab-hash="#players/42"`)
}
