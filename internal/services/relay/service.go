package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/relayview/internal/model"
)

// Source is the upstream endpoint set for round sync
type Source interface {
	RelayRound(ctx context.Context, roundID model.RoundID) (*model.RelayRound, error)
	SetSync(ctx context.Context, roundID model.RoundID, on bool) (*model.RelayRound, error)
}

// StateKind is the connection state of a round
type StateKind string

const (
	// StatePush means no source is configured; the broadcaster app pushes games
	StatePush StateKind = "push"
	// StateOn means the source is being polled
	StateOn StateKind = "on"
	// StateOff means a source is configured but polling is stopped
	StateOff StateKind = "off"
)

// Kind returns the state of a sync configuration
func Kind(sync *model.RelaySync) StateKind {
	switch {
	case !sync.HasSource():
		return StatePush
	case sync.Ongoing:
		return StateOn
	default:
		return StateOff
	}
}

// Description is the text of a connected state. The view breaks the line
// between Lead and Target.
type Description struct {
	Lead   string
	Target string
	Suffix string
}

// Describe builds the "Connected ..." description of a sync
func Describe(sync *model.RelaySync) Description {
	if sync == nil {
		return Description{Lead: "Connected"}
	}

	lead := []string{"Connected"}
	if sync.Delay > 0 {
		lead = append(lead, fmt.Sprintf("with %ds delay", sync.Delay))
	}

	var target string
	switch {
	case sync.URL != "":
		lead = append(lead, "to source")
		target = stripScheme(sync.URL)
	case len(sync.IDs) > 0:
		lead = append(lead, "to")
		target = fmt.Sprintf("%d game(s)", len(sync.IDs))
	case len(sync.Users) > 0:
		lead = append(lead, "to")
		if len(sync.Users) > 4 {
			target = fmt.Sprintf("%d users", len(sync.Users))
		} else {
			target = strings.Join(sync.Users, " ")
		}
	case len(sync.URLs) > 0:
		lead = append(lead, "to")
		target = fmt.Sprintf("%d sources", len(sync.URLs))
	}

	var suffix []string
	if sync.Filter > 0 {
		suffix = append(suffix, fmt.Sprintf("(round %d)", sync.Filter))
	}
	if sync.Slices != "" {
		suffix = append(suffix, fmt.Sprintf("(slice %s)", sync.Slices))
	}

	return Description{
		Lead:   strings.Join(lead, " "),
		Target: target,
		Suffix: strings.Join(suffix, " "),
	}
}

func stripScheme(u string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(u, scheme) {
			return strings.TrimPrefix(u, scheme)
		}
	}
	return u
}

// LogLine is one rendered entry of the polling log
type LogLine struct {
	At       time.Time
	Error    string
	ErrorURL string // where the error links to, empty when no source url
	Moves    int
}

// IsError reports whether the line is a failed poll
func (l LogLine) IsError() bool {
	return l.Error != ""
}

// Text returns the success text of a line
func (l LogLine) Text() string {
	switch {
	case l.Moves == 1:
		return "1 new move"
	case l.Moves > 1:
		return strconv.Itoa(l.Moves) + " new moves"
	default:
		return "Nothing new"
	}
}

// LogLines returns the polling log newest first
func LogLines(sync *model.RelaySync) []LogLine {
	if sync == nil {
		return nil
	}
	lines := make([]LogLine, 0, len(sync.Log))
	for i := len(sync.Log) - 1; i >= 0; i-- {
		e := sync.Log[i]
		line := LogLine{At: e.Time(), Error: e.Error, Moves: e.Moves}
		if e.Error != "" {
			line.ErrorURL = sync.URL
		}
		lines = append(lines, line)
	}
	return lines
}

// Panel is the manager panel of a round as seen by one user
type Panel struct {
	Round       *model.RelayRound
	Contributor bool
	Admin       bool
	Kind        StateKind
	Description Description
	Log         []LogLine
	// Polling is set while a sync toggle for the round is in flight
	Polling bool
}

// Visible reports whether the user sees anything of the panel
func (p *Panel) Visible() bool {
	return p.Contributor || p.Admin
}

// ShowManager reports whether the sync block is shown
func (p *Panel) ShowManager() bool {
	return p.Contributor
}

// EditURL returns the round settings page
func (p *Panel) EditURL() string {
	return fmt.Sprintf("/broadcast/round/%s/edit", p.Round.Study.ID)
}

// Service builds manager panels and toggles round sync
type Service struct {
	source Source
	logger *slog.Logger

	mu       sync.Mutex
	inFlight map[model.RoundID]int
}

// New creates a new relay Service
func New(source Source, logger *slog.Logger) *Service {
	return &Service{
		source:   source,
		logger:   logger,
		inFlight: make(map[model.RoundID]int),
	}
}

// Panel fetches a round and builds its manager panel for userID
func (s *Service) Panel(ctx context.Context, roundID model.RoundID, userID string) (*Panel, error) {
	round, err := s.fetch(ctx, roundID)
	if err != nil {
		return nil, err
	}
	return s.build(round, userID), nil
}

// SetSync turns polling on or off. Only contributors may toggle.
func (s *Service) SetSync(ctx context.Context, roundID model.RoundID, userID string, on bool) (*Panel, error) {
	round, err := s.fetch(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !round.Study.CanContribute(userID) {
		return nil, model.ErrNotContributor
	}

	updated, err := s.toggle(ctx, roundID, on)
	if err != nil {
		s.logger.Error("failed to set round sync",
			slog.String("round_id", string(roundID)),
			slog.Bool("sync", on),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to set sync of round %s: %w", roundID, err)
	}

	s.logger.Info("round sync toggled",
		slog.String("round_id", string(roundID)),
		slog.String("user_id", userID),
		slog.Bool("sync", on),
	)

	// The toggle response may omit study permissions
	if updated.Study.ID == "" {
		updated.Study = round.Study
	}
	return s.build(updated, userID), nil
}

func (s *Service) toggle(ctx context.Context, roundID model.RoundID, on bool) (*model.RelayRound, error) {
	s.mu.Lock()
	s.inFlight[roundID]++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight[roundID]--
		if s.inFlight[roundID] <= 0 {
			delete(s.inFlight, roundID)
		}
		s.mu.Unlock()
	}()
	return s.source.SetSync(ctx, roundID, on)
}

// Polling reports whether a sync toggle for the round is in flight
func (s *Service) Polling(roundID model.RoundID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[roundID] > 0
}

func (s *Service) fetch(ctx context.Context, roundID model.RoundID) (*model.RelayRound, error) {
	round, err := s.source.RelayRound(ctx, roundID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", model.ErrRoundNotFound, roundID)
		}
		return nil, fmt.Errorf("failed to fetch round %s: %w", roundID, err)
	}
	return round, nil
}

func (s *Service) build(round *model.RelayRound, userID string) *Panel {
	return &Panel{
		Round:       round,
		Contributor: round.Study.CanContribute(userID),
		Admin:       round.Study.Admin,
		Kind:        Kind(round.Sync),
		Description: Describe(round.Sync),
		Log:         LogLines(round.Sync),
		Polling:     s.Polling(round.ID),
	}
}
