package sse

import (
	"context"

	"github.com/mcoot/relayview/internal/dependencies/clock"
	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/roster"
	"github.com/mcoot/relayview/internal/web/templates/components"
)

// StateLookup returns the player list state of a viewer, if one exists
type StateLookup func(viewerID string, tourID model.TourID) (roster.State, bool)

// TourLookup returns already fetched tour metadata
type TourLookup func(tourID model.TourID) (*model.Tour, bool)

// RosterRenderer turns controller redraws into pushed fragments
type RosterRenderer struct {
	broadcaster *Broadcaster
	states      StateLookup
	tours       TourLookup
	clock       clock.Clock
}

// NewRosterRenderer creates a new RosterRenderer
func NewRosterRenderer(b *Broadcaster, states StateLookup, tours TourLookup, c clock.Clock) *RosterRenderer {
	return &RosterRenderer{broadcaster: b, states: states, tours: tours, clock: c}
}

// Data assembles what the players tab of a viewer renders
func (r *RosterRenderer) Data(viewerID string, tourID model.TourID) components.PlayersData {
	d := components.PlayersData{TourID: tourID, Now: r.clock.Now()}
	if r.states != nil {
		if state, ok := r.states(viewerID, tourID); ok {
			d.State = state
		}
	}
	if r.tours != nil {
		if tour, ok := r.tours(tourID); ok {
			d.Tour = tour
		}
	}
	return d
}

// Redraw pushes the current player list of a viewer
func (r *RosterRenderer) Redraw(viewerID string, tourID model.TourID) {
	r.broadcaster.BroadcastPlayers(context.Background(), viewerID, r.Data(viewerID, tourID))
}

// Hooks builds the controller hooks of one viewer of one tour
func (r *RosterRenderer) Hooks(viewerID string, tourID model.TourID) roster.Hooks {
	return roster.Hooks{
		Redraw:    func() { r.Redraw(viewerID, tourID) },
		SwitchTab: func() { r.broadcaster.BroadcastSwitchTab(viewerID, tourID) },
	}
}
