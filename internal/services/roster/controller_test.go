package roster

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/relayview/internal/dependencies/mocks"
	"github.com/mcoot/relayview/internal/metrics"
	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/storage/memory"
	"github.com/mcoot/relayview/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	source     *fakeSource
	storage    *memory.Storage
	clock      *mocks.MockClock
	metrics    *metrics.Mock
	controller *Controller
	ctx        context.Context

	mu          sync.Mutex
	redraws     []State
	tabSwitches int
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.source = newFakeSource()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.metrics = metrics.NewMock()
	s.ctx = context.Background()
	s.redraws = nil
	s.tabSwitches = 0
	s.controller = s.newController(testutil.NopLogger())
}

func (s *ControllerSuite) newController(logger *slog.Logger) *Controller {
	loader := NewLoader(s.source, staticFeds{"NOR": "Norway", "FRA": "France"}, s.storage, logger)
	var c *Controller
	hooks := Hooks{
		Redraw: func() {
			st := c.State()
			s.mu.Lock()
			s.redraws = append(s.redraws, st)
			s.mu.Unlock()
		},
		SwitchTab: func() {
			s.mu.Lock()
			s.tabSwitches++
			s.mu.Unlock()
		},
	}
	c = NewController("tour-1", loader, hooks, s.clock, s.metrics, logger)
	return c
}

func (s *ControllerSuite) redrawCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redraws)
}

func (s *ControllerSuite) redrawAt(i int) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redraws[i]
}

// showAsync runs ShowPlayer in a goroutine and waits until its fetch has started
func (s *ControllerSuite) showAsync(key model.PlayerKey) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- s.controller.ShowPlayer(s.ctx, key)
	}()
	select {
	case started := <-s.source.started:
		s.Require().Equal(key, started)
	case <-time.After(2 * time.Second):
		s.FailNow("detail fetch did not start", string(key))
	}
	return done
}

func (s *ControllerSuite) wait(done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		s.FailNow("ShowPlayer did not return")
		return nil
	}
}

// LoadRoster tests

func (s *ControllerSuite) TestInitialLoadSkipsLoadingState() {
	s.source.addPlayer("Alice", 1)
	s.source.addPlayer("Bob", 0)

	err := s.controller.LoadRoster(s.ctx, true)
	s.Require().NoError(err)

	st := s.controller.State()
	s.False(st.Loading)
	s.Require().NotNil(st.Roster)
	s.Equal([]model.PlayerKey{"1", "Bob"}, st.Roster.Keys())
	s.Equal(1, s.redrawCount())
	s.Equal(1, s.metrics.RosterLoads())
}

func (s *ControllerSuite) TestReloadShowsLoadingThenClearsIt() {
	s.source.addPlayer("Alice", 1)
	s.Require().NoError(s.controller.LoadRoster(s.ctx, true))

	s.source.addPlayer("Carol", 3)
	err := s.controller.LoadRoster(s.ctx, false)
	s.Require().NoError(err)

	s.Require().Equal(3, s.redrawCount())
	s.True(s.redrawAt(1).Loading, "reload redraws in loading state first")
	s.Equal(1, s.redrawAt(1).Roster.Len(), "old roster stays visible while loading")
	s.False(s.redrawAt(2).Loading)
	s.Equal(2, s.controller.State().Roster.Len())
}

func (s *ControllerSuite) TestOnInsertReloadDoesNotShowLoading() {
	s.source.addPlayer("Alice", 1)
	s.Require().NoError(s.controller.LoadRoster(s.ctx, true))
	s.Require().NoError(s.controller.LoadRoster(s.ctx, true))

	s.Equal(2, s.redrawCount())
	s.False(s.redrawAt(1).Loading)
}

func (s *ControllerSuite) TestFirstLoadWithoutInsertDoesNotShowLoading() {
	s.source.addPlayer("Alice", 1)
	s.Require().NoError(s.controller.LoadRoster(s.ctx, false))
	s.Equal(1, s.redrawCount())
}

func (s *ControllerSuite) TestLoadErrorLeavesStateUntouched() {
	s.source.addPlayer("Alice", 1)
	s.Require().NoError(s.controller.LoadRoster(s.ctx, true))

	s.source.playersErr = errors.New("connection refused")
	err := s.controller.LoadRoster(s.ctx, true)

	s.Require().Error(err)
	s.Contains(err.Error(), "connection refused")
	s.Equal(1, s.controller.State().Roster.Len())
	s.Equal(1, s.redrawCount())
}

func (s *ControllerSuite) TestFailedReloadKeepsLoadingAndRoster() {
	s.source.addPlayer("Alice", 1)
	s.Require().NoError(s.controller.LoadRoster(s.ctx, true))

	s.source.playersErr = errors.New("connection refused")
	err := s.controller.LoadRoster(s.ctx, false)

	s.Require().Error(err)
	st := s.controller.State()
	s.True(st.Loading, "the list stays in its loading state")
	s.Require().NotNil(st.Roster)
	s.Equal([]model.PlayerKey{"1"}, st.Roster.Keys())
	s.Equal(2, s.redrawCount(), "only the loading redraw happens")
	s.True(s.redrawAt(1).Loading)

	s.source.playersErr = nil
	s.Require().NoError(s.controller.LoadRoster(s.ctx, false))
	s.False(s.controller.State().Loading, "the next successful load clears it")
}

func (s *ControllerSuite) TestLoadErrorBeforeFirstRoster() {
	s.source.playersErr = errors.New("timeout")

	err := s.controller.LoadRoster(s.ctx, true)

	s.Error(err)
	s.Nil(s.controller.State().Roster)
	s.Equal(0, s.redrawCount())
}

func (s *ControllerSuite) TestRosterKeysMatchServerResponse() {
	s.source.addPlayer("Alice", 10)
	s.source.addPlayer("Bob", 0)
	s.source.addPlayer("Carol", 30)
	s.source.addPlayer("Bob", 0)

	s.Require().NoError(s.controller.LoadRoster(s.ctx, true))

	r := s.controller.State().Roster
	s.Equal([]model.PlayerKey{"10", "Bob", "30"}, r.Keys())
	s.Equal(4, r.Len(), "colliding players are not dropped")
	s.Equal([]model.PlayerKey{"Bob"}, r.Duplicates())
}

func (s *ControllerSuite) TestDuplicateKeysAreLogged() {
	logger, buf := testutil.BufferLogger()
	s.controller = s.newController(logger)
	s.source.addPlayer("Bob", 0)
	s.source.addPlayer("Bob", 0)

	s.Require().NoError(s.controller.LoadRoster(s.ctx, true))

	s.Contains(buf.String(), "roster has colliding player keys")
	s.Contains(buf.String(), `"keys":"Bob"`)
}

func (s *ControllerSuite) TestLoadRosterNormalizesFederations() {
	s.source.addPlayer("Alice", 1)
	s.Require().NoError(s.controller.LoadRoster(s.ctx, true))

	p, ok := s.controller.State().Roster.Get("1")
	s.Require().True(ok)
	s.Equal("Norway", p.Fed.Name)
}

// ShowPlayer tests

func (s *ControllerSuite) TestShowPlayerRedrawsLoadingThenLoaded() {
	s.source.addPlayer("Alice", 1)

	err := s.controller.ShowPlayer(s.ctx, "1")
	s.Require().NoError(err)

	s.Require().Equal(2, s.redrawCount())
	first := s.redrawAt(0)
	s.Require().NotNil(first.Shown)
	s.True(first.Shown.IsLoading())
	s.Equal(model.PlayerKey("1"), first.Shown.Key)

	st := s.controller.State()
	s.Require().NotNil(st.Shown)
	s.False(st.Shown.IsLoading())
	s.Equal("Alice", st.Shown.Player.Name)
	s.Equal(1, s.metrics.PlayerShows())
}

func (s *ControllerSuite) TestShowPlayerNormalizesOpponents() {
	s.source.addPlayer("Alice", 1)

	s.Require().NoError(s.controller.ShowPlayer(s.ctx, "1"))

	p := s.controller.State().Shown.Player
	s.Require().Len(p.Games, 1)
	s.Equal("France", p.Games[0].Opponent.Fed.Name)
}

func (s *ControllerSuite) TestShowPlayerRejectsEmptyKey() {
	err := s.controller.ShowPlayer(s.ctx, "")
	s.ErrorIs(err, model.ErrEmptyPlayerKey)
	s.Nil(s.controller.State().Shown)
}

func (s *ControllerSuite) TestShowUnknownPlayer() {
	err := s.controller.ShowPlayer(s.ctx, "nobody")

	s.ErrorIs(err, model.ErrPlayerNotFound)
	st := s.controller.State()
	s.Require().NotNil(st.Shown)
	s.True(st.Shown.IsLoading(), "failed fetch leaves the panel loading")
}

func (s *ControllerSuite) TestShowThenCloseLeavesNoSlot() {
	s.source.addPlayer("Alice", 1)
	gate := s.source.gate("1")

	done := s.showAsync("1")
	s.controller.ClosePlayer()
	close(gate)

	s.Require().NoError(s.wait(done))
	s.Nil(s.controller.State().Shown)
	s.Equal(1, s.metrics.StaleDetailsDiscarded())
	s.Equal(0, s.metrics.PlayerShows())
}

func (s *ControllerSuite) TestCloseAfterLoadLeavesNoSlot() {
	s.source.addPlayer("Alice", 1)
	s.Require().NoError(s.controller.ShowPlayer(s.ctx, "1"))

	s.controller.ClosePlayer()

	s.Nil(s.controller.State().Shown)
}

func (s *ControllerSuite) TestCloseThenShowOtherDiscardsFirstFetch() {
	s.source.addPlayer("Alice", 1)
	s.source.addPlayer("Bob", 2)
	gate := s.source.gate("1")

	done := s.showAsync("1")
	s.controller.ClosePlayer()
	s.Require().NoError(s.controller.ShowPlayer(s.ctx, "2"))
	close(gate)
	s.Require().NoError(s.wait(done))

	st := s.controller.State()
	s.Require().NotNil(st.Shown)
	s.Equal(model.PlayerKey("2"), st.Shown.Key)
	s.Equal("Bob", st.Shown.Player.Name)
}

func (s *ControllerSuite) TestOverlappingShowsLastToResolveWins() {
	s.source.addPlayer("Alice", 1)
	s.source.addPlayer("Bob", 2)
	gateA := s.source.gate("1")
	gateB := s.source.gate("2")

	doneA := s.showAsync("1")
	doneB := s.showAsync("2")

	// B was issued last but resolves first
	close(gateB)
	s.Require().NoError(s.wait(doneB))
	s.Equal("Bob", s.controller.State().Shown.Player.Name)

	close(gateA)
	s.Require().NoError(s.wait(doneA))

	st := s.controller.State()
	s.Equal(model.PlayerKey("1"), st.Shown.Key)
	s.Equal("Alice", st.Shown.Player.Name)
}

func (s *ControllerSuite) TestOverlappingShowsInIssueOrder() {
	s.source.addPlayer("Alice", 1)
	s.source.addPlayer("Bob", 2)
	gateA := s.source.gate("1")
	gateB := s.source.gate("2")

	doneA := s.showAsync("1")
	doneB := s.showAsync("2")

	close(gateA)
	s.Require().NoError(s.wait(doneA))
	close(gateB)
	s.Require().NoError(s.wait(doneB))

	s.Equal("Bob", s.controller.State().Shown.Player.Name)
}

// Tab hash tests

func (s *ControllerSuite) TestTabHashRoundTrip() {
	s.source.addPlayer("Alice", 1)
	s.Equal("#players", s.controller.TabHash())

	s.Require().NoError(s.controller.ShowPlayer(s.ctx, "1"))
	s.Equal("#players/1", s.controller.TabHash())

	key, ok := KeyFromHash(s.controller.TabHash())
	s.True(ok)
	s.Equal(model.PlayerKey("1"), key)

	s.controller.ClosePlayer()
	s.Equal("#players", s.controller.TabHash())
}

func (s *ControllerSuite) TestTabHashWhileLoading() {
	s.source.addPlayer("Alice", 1)
	gate := s.source.gate("1")

	done := s.showAsync("1")
	s.Equal("#players/1", s.controller.TabHash())

	close(gate)
	s.Require().NoError(s.wait(done))
}

func (s *ControllerSuite) TestShowFromHash() {
	s.source.addPlayer("Bob", 0)

	shown, err := s.controller.ShowFromHash(s.ctx, "#players/Bob")
	s.Require().NoError(err)
	s.True(shown)
	s.Equal("Bob", s.controller.State().Shown.Player.Name)
}

func (s *ControllerSuite) TestShowFromHashIgnoresOtherFragments() {
	for _, fragment := range []string{"", "#players", "#players/", "#overview", "players/Bob"} {
		shown, err := s.controller.ShowFromHash(s.ctx, fragment)
		s.NoError(err, fragment)
		s.False(shown, fragment)
	}
	s.Nil(s.controller.State().Shown)
}

// SwitchAndShow tests

func (s *ControllerSuite) TestSwitchAndShowCallsTabHookFirst() {
	s.source.addPlayer("Alice", 1)

	err := s.controller.SwitchAndShow(s.ctx, "1")
	s.Require().NoError(err)

	s.Equal(1, s.tabSwitches)
	s.Equal("Alice", s.controller.State().Shown.Player.Name)
}

// Tip tests

func (s *ControllerSuite) TestTipUsesCache() {
	s.source.addPlayer("Alice", 1)

	p, err := s.controller.Tip(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal("Alice", p.Name)

	_, err = s.controller.Tip(s.ctx, "1")
	s.Require().NoError(err)

	_, details := s.source.calls()
	s.Equal(1, details)
	s.Nil(s.controller.State().Shown, "tips do not touch the shown slot")
	s.Equal(0, s.redrawCount())
}

func (s *ControllerSuite) TestLoadPlayerWithGamesAlwaysFetches() {
	s.source.addPlayer("Alice", 1)

	_, err := s.controller.LoadPlayerWithGames(s.ctx, "1")
	s.Require().NoError(err)
	_, err = s.controller.LoadPlayerWithGames(s.ctx, "1")
	s.Require().NoError(err)

	_, details := s.source.calls()
	s.Equal(2, details)
}

// Dispatch tests

func (s *ControllerSuite) TestDispatch() {
	s.source.addPlayer("Alice", 1)

	s.Require().NoError(s.controller.Dispatch(s.ctx, Event{Kind: EventLoadRoster, OnInsert: true}))
	s.Equal(1, s.controller.State().Roster.Len())

	s.Require().NoError(s.controller.Dispatch(s.ctx, Event{Kind: EventShowPlayer, Key: "1"}))
	s.Equal("#players/1", s.controller.TabHash())

	s.Require().NoError(s.controller.Dispatch(s.ctx, Event{Kind: EventClosePlayer}))
	s.Equal("#players", s.controller.TabHash())

	s.Require().NoError(s.controller.Dispatch(s.ctx, Event{Kind: EventSwitchAndShow, Key: "1"}))
	s.Equal(1, s.tabSwitches)

	s.Require().NoError(s.controller.Dispatch(s.ctx, Event{Kind: EventClosePlayer}))
	s.Require().NoError(s.controller.Dispatch(s.ctx, Event{Kind: EventShowFromHash, Fragment: "#overview"}))
	s.Equal("#players", s.controller.TabHash())
	s.Require().NoError(s.controller.Dispatch(s.ctx, Event{Kind: EventShowFromHash, Fragment: "#players/1"}))
	s.Equal("#players/1", s.controller.TabHash())
	s.Equal("Alice", s.controller.State().Shown.Player.Name)

	err := s.controller.Dispatch(s.ctx, Event{Kind: EventKind(42)})
	s.Error(err)
	s.Contains(err.Error(), "event(42)")
}

func (s *ControllerSuite) TestLastUsedFollowsClock() {
	start := s.controller.LastUsed()
	s.clock.Advance(time.Minute)

	s.controller.ClosePlayer()

	s.Equal(start.Add(time.Minute), s.controller.LastUsed())
}
