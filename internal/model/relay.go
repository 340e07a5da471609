package model

import "time"

// LogEvent is one entry of a relay source polling log
type LogEvent struct {
	Moves int    `json:"moves"`
	Error string `json:"error,omitempty"`
	At    int64  `json:"at"` // unix milliseconds
}

// Time returns the time of the event
func (e LogEvent) Time() time.Time {
	return time.UnixMilli(e.At).UTC()
}

// RelaySync describes where a round pulls its games from
type RelaySync struct {
	URL     string     `json:"url,omitempty"`
	IDs     []string   `json:"ids,omitempty"`
	URLs    []string   `json:"urls,omitempty"`
	Users   []string   `json:"users,omitempty"`
	Ongoing bool       `json:"ongoing"`
	Delay   int        `json:"delay,omitempty"` // seconds
	Filter  int        `json:"filter,omitempty"`
	Slices  string     `json:"slices,omitempty"`
	Log     []LogEvent `json:"log,omitempty"`
}

// HasSource reports whether the round is connected to any pull source.
// Rounds without one are pushed to by the broadcaster app.
func (s *RelaySync) HasSource() bool {
	if s == nil {
		return false
	}
	return s.URL != "" || len(s.IDs) > 0 || len(s.URLs) > 0 || len(s.Users) > 0
}

// RelayStudy is the study backing a broadcast round
type RelayStudy struct {
	ID           string   `json:"id"`
	Admin        bool     `json:"admin"`
	Contributors []string `json:"contributors"`
}

// CanContribute reports whether a user may edit the study
func (s RelayStudy) CanContribute(userID string) bool {
	if userID == "" {
		return false
	}
	for _, c := range s.Contributors {
		if c == userID {
			return true
		}
	}
	return false
}

// RelayRound is a broadcast round with its sync configuration
type RelayRound struct {
	ID    RoundID    `json:"id"`
	Sync  *RelaySync `json:"sync,omitempty"`
	Study RelayStudy `json:"study"`
}
