package roster

import (
	"context"
	"sync"

	"github.com/mcoot/relayview/internal/model"
)

// fakeSource serves canned upstream data. Detail fetches for a gated key
// block until the gate is released.
type fakeSource struct {
	mu          sync.Mutex
	players     []model.ServerPlayer
	playersErr  error
	details     map[model.PlayerKey]*model.ServerPlayerWithGames
	detailErr   error
	tour        *model.ServerTour
	gates       map[model.PlayerKey]chan struct{}
	started     chan model.PlayerKey
	playerCalls int
	detailCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		details: make(map[model.PlayerKey]*model.ServerPlayerWithGames),
		gates:   make(map[model.PlayerKey]chan struct{}),
		started: make(chan model.PlayerKey, 16),
	}
}

func (f *fakeSource) gate(key model.PlayerKey) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeSource) addPlayer(name string, fideID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sp := model.ServerPlayer{Name: name, FideID: model.FlexInt(fideID), Fed: "NOR"}
	f.players = append(f.players, sp)
	key := sp.Convert(nil).Key()
	f.details[key] = &model.ServerPlayerWithGames{
		ServerPlayer: sp,
		Games: []model.ServerPlayerGame{
			{ID: "ch1", Round: "r1", Color: "white", Points: model.PointsWin, Opponent: model.ServerPlayer{Name: "Opp", Fed: "FRA"}},
		},
	}
}

func (f *fakeSource) Players(ctx context.Context, tourID model.TourID) ([]model.ServerPlayer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playerCalls++
	if f.playersErr != nil {
		return nil, f.playersErr
	}
	out := make([]model.ServerPlayer, len(f.players))
	copy(out, f.players)
	return out, nil
}

func (f *fakeSource) PlayerWithGames(ctx context.Context, tourID model.TourID, key model.PlayerKey) (*model.ServerPlayerWithGames, error) {
	f.mu.Lock()
	f.detailCalls++
	gate := f.gates[key]
	f.mu.Unlock()

	select {
	case f.started <- key:
	default:
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	d, ok := f.details[key]
	if !ok {
		return nil, model.ErrNotFound
	}
	return d, nil
}

func (f *fakeSource) Tour(ctx context.Context, tourID model.TourID) (*model.ServerTour, error) {
	if f.tour == nil {
		return nil, model.ErrNotFound
	}
	return f.tour, nil
}

func (f *fakeSource) calls() (players, details int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playerCalls, f.detailCalls
}

type staticFeds model.Federations

func (s staticFeds) Federations() model.Federations {
	return model.Federations(s)
}
