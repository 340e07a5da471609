package roster

import (
	"context"
	"fmt"

	"github.com/mcoot/relayview/internal/model"
)

// EventKind enumerates the UI events a player list reacts to
type EventKind int

const (
	EventLoadRoster EventKind = iota
	EventShowPlayer
	EventClosePlayer
	EventSwitchAndShow
	EventShowFromHash
)

func (k EventKind) String() string {
	switch k {
	case EventLoadRoster:
		return "load_roster"
	case EventShowPlayer:
		return "show_player"
	case EventClosePlayer:
		return "close_player"
	case EventSwitchAndShow:
		return "switch_and_show"
	case EventShowFromHash:
		return "show_from_hash"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one UI event
type Event struct {
	Kind     EventKind
	Key      model.PlayerKey // ShowPlayer and SwitchAndShow
	OnInsert bool            // LoadRoster
	Fragment string          // ShowFromHash, the location hash
}

// Dispatch routes an event to the matching controller operation
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventLoadRoster:
		return c.LoadRoster(ctx, ev.OnInsert)
	case EventShowPlayer:
		return c.ShowPlayer(ctx, ev.Key)
	case EventClosePlayer:
		c.ClosePlayer()
		return nil
	case EventSwitchAndShow:
		return c.SwitchAndShow(ctx, ev.Key)
	case EventShowFromHash:
		_, err := c.ShowFromHash(ctx, ev.Fragment)
		return err
	default:
		return fmt.Errorf("unknown roster event %s", ev.Kind)
	}
}
