package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/testutil"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		sync *model.RelaySync
		want StateKind
	}{
		{"no sync", nil, StatePush},
		{"no source", &model.RelaySync{Ongoing: true}, StatePush},
		{"url ongoing", &model.RelaySync{URL: "https://x", Ongoing: true}, StateOn},
		{"ids stopped", &model.RelaySync{IDs: []string{"a"}}, StateOff},
		{"users ongoing", &model.RelaySync{Users: []string{"u"}, Ongoing: true}, StateOn},
		{"urls stopped", &model.RelaySync{URLs: []string{"https://a"}}, StateOff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.sync))
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		sync *model.RelaySync
		want Description
	}{
		{
			name: "url with delay",
			sync: &model.RelaySync{URL: "https://example.com/live.pgn", Delay: 30},
			want: Description{Lead: "Connected with 30s delay to source", Target: "example.com/live.pgn"},
		},
		{
			name: "plain http url",
			sync: &model.RelaySync{URL: "http://example.com/a"},
			want: Description{Lead: "Connected to source", Target: "example.com/a"},
		},
		{
			name: "game ids",
			sync: &model.RelaySync{IDs: []string{"a", "b", "c"}},
			want: Description{Lead: "Connected to", Target: "3 game(s)"},
		},
		{
			name: "few users",
			sync: &model.RelaySync{Users: []string{"alice", "bob"}},
			want: Description{Lead: "Connected to", Target: "alice bob"},
		},
		{
			name: "many users",
			sync: &model.RelaySync{Users: []string{"a", "b", "c", "d", "e"}},
			want: Description{Lead: "Connected to", Target: "5 users"},
		},
		{
			name: "several urls with filter and slices",
			sync: &model.RelaySync{URLs: []string{"x", "y"}, Filter: 3, Slices: "1-10"},
			want: Description{Lead: "Connected to", Target: "2 sources", Suffix: "(round 3) (slice 1-10)"},
		},
		{
			name: "url wins over ids",
			sync: &model.RelaySync{URL: "https://a", IDs: []string{"x"}},
			want: Description{Lead: "Connected to source", Target: "a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.sync))
		})
	}
}

func TestLogLinesNewestFirst(t *testing.T) {
	sync := &model.RelaySync{
		URL: "https://example.com/live.pgn",
		Log: []model.LogEvent{
			{Moves: 0, At: 1000},
			{Moves: 1, At: 2000},
			{Error: "404 Not Found", At: 3000},
			{Moves: 5, At: 4000},
		},
	}

	lines := LogLines(sync)

	require.Len(t, lines, 4)
	assert.Equal(t, "5 new moves", lines[0].Text())
	assert.True(t, lines[1].IsError())
	assert.Equal(t, "https://example.com/live.pgn", lines[1].ErrorURL)
	assert.Equal(t, "1 new move", lines[2].Text())
	assert.Equal(t, "Nothing new", lines[3].Text())
	assert.Equal(t, time.UnixMilli(4000).UTC(), lines[0].At)
	assert.Empty(t, lines[0].ErrorURL)
}

func TestLogLinesNil(t *testing.T) {
	assert.Nil(t, LogLines(nil))
}

type fakeSource struct {
	round    *model.RelayRound
	err      error
	setErr   error
	setCalls []bool
	// during is called while SetSync is in flight
	during func()
}

func (f *fakeSource) RelayRound(ctx context.Context, roundID model.RoundID) (*model.RelayRound, error) {
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.round
	return &cp, nil
}

func (f *fakeSource) SetSync(ctx context.Context, roundID model.RoundID, on bool) (*model.RelayRound, error) {
	f.setCalls = append(f.setCalls, on)
	if f.during != nil {
		f.during()
	}
	if f.setErr != nil {
		return nil, f.setErr
	}
	sync := *f.round.Sync
	sync.Ongoing = on
	return &model.RelayRound{ID: roundID, Sync: &sync}, nil
}

type ServiceSuite struct {
	suite.Suite
	source  *fakeSource
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.source = &fakeSource{
		round: &model.RelayRound{
			ID:   "round-1",
			Sync: &model.RelaySync{URL: "https://example.com/live.pgn", Ongoing: true},
			Study: model.RelayStudy{
				ID:           "study-1",
				Contributors: []string{"alice"},
			},
		},
	}
	s.service = New(s.source, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestPanelForContributor() {
	panel, err := s.service.Panel(s.ctx, "round-1", "alice")
	s.Require().NoError(err)

	s.True(panel.Visible())
	s.True(panel.ShowManager())
	s.Equal(StateOn, panel.Kind)
	s.Equal("example.com/live.pgn", panel.Description.Target)
	s.Equal("/broadcast/round/study-1/edit", panel.EditURL())
	s.False(panel.Polling)
}

func (s *ServiceSuite) TestPanelForAdminWithoutContribution() {
	s.source.round.Study.Admin = true

	panel, err := s.service.Panel(s.ctx, "round-1", "bob")
	s.Require().NoError(err)

	s.True(panel.Visible())
	s.False(panel.ShowManager())
}

func (s *ServiceSuite) TestPanelHiddenForViewers() {
	panel, err := s.service.Panel(s.ctx, "round-1", "")
	s.Require().NoError(err)
	s.False(panel.Visible())
}

func (s *ServiceSuite) TestPanelRoundNotFound() {
	s.source.err = model.ErrNotFound

	_, err := s.service.Panel(s.ctx, "round-x", "alice")
	s.ErrorIs(err, model.ErrRoundNotFound)
}

func (s *ServiceSuite) TestSetSyncByContributor() {
	var pollingDuring bool
	s.source.during = func() { pollingDuring = s.service.Polling("round-1") }

	panel, err := s.service.SetSync(s.ctx, "round-1", "alice", false)
	s.Require().NoError(err)

	s.Equal([]bool{false}, s.source.setCalls)
	s.True(pollingDuring, "toggle is marked in flight")
	s.False(panel.Polling)
	s.False(s.service.Polling("round-1"))
	s.Equal(StateOff, panel.Kind)
	s.True(panel.Contributor, "study permissions are kept from the round")
}

func (s *ServiceSuite) TestSetSyncRequiresContributor() {
	_, err := s.service.SetSync(s.ctx, "round-1", "mallory", true)

	s.ErrorIs(err, model.ErrNotContributor)
	s.Empty(s.source.setCalls)
}

func (s *ServiceSuite) TestSetSyncUpstreamFailure() {
	s.source.setErr = errors.New("bad gateway")

	_, err := s.service.SetSync(s.ctx, "round-1", "alice", true)

	s.Require().Error(err)
	s.Contains(err.Error(), "bad gateway")
	s.False(s.service.Polling("round-1"))
}
