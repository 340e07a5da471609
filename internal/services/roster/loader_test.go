package roster

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/storage/memory"
	"github.com/mcoot/relayview/internal/testutil"
)

func newTestLoader(source *fakeSource) (*Loader, *memory.Storage) {
	store := memory.New()
	return NewLoader(source, staticFeds{"NOR": "Norway"}, store, testutil.NopLogger()), store
}

func TestLoaderRosterUsesCache(t *testing.T) {
	source := newFakeSource()
	source.addPlayer("Alice", 1)
	loader, _ := newTestLoader(source)
	ctx := context.Background()

	r, err := loader.Roster(ctx, "tour-1")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	source.addPlayer("Bob", 0)
	r, err = loader.Roster(ctx, "tour-1")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len(), "second read is served from cache")

	players, _ := source.calls()
	assert.Equal(t, 1, players)
}

func TestLoaderFetchRosterRefreshesCache(t *testing.T) {
	source := newFakeSource()
	source.addPlayer("Alice", 1)
	loader, store := newTestLoader(source)
	ctx := context.Background()

	_, err := loader.FetchRoster(ctx, "tour-1")
	require.NoError(t, err)

	cached, err := store.GetRoster(ctx, "tour-1")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "Norway", cached[0].Fed.Name)
}

func TestLoaderFetchRosterError(t *testing.T) {
	source := newFakeSource()
	source.playersErr = errors.New("boom")
	loader, _ := newTestLoader(source)

	_, err := loader.FetchRoster(context.Background(), "tour-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "tour-1")
}

func TestLoaderPlayerNotFound(t *testing.T) {
	loader, _ := newTestLoader(newFakeSource())

	_, err := loader.PlayerWithGames(context.Background(), "tour-1", "nobody")

	assert.ErrorIs(t, err, model.ErrPlayerNotFound)
}

func TestLoaderEmptyKey(t *testing.T) {
	loader, _ := newTestLoader(newFakeSource())

	_, err := loader.PlayerWithGames(context.Background(), "tour-1", "")
	assert.ErrorIs(t, err, model.ErrEmptyPlayerKey)

	_, err = loader.FetchPlayerWithGames(context.Background(), "tour-1", "")
	assert.ErrorIs(t, err, model.ErrEmptyPlayerKey)
}

func TestLoaderTour(t *testing.T) {
	source := newFakeSource()
	source.tour = &model.ServerTour{Name: "Norway Chess"}
	loader, _ := newTestLoader(source)

	tour, err := loader.Tour(context.Background(), "tour-1")

	require.NoError(t, err)
	assert.Equal(t, model.TourID("tour-1"), tour.ID)
	assert.Equal(t, "Norway Chess", tour.Name)
	assert.Equal(t, "standard", tour.TimeControl())

	cached, ok := loader.CachedTour("tour-1")
	require.True(t, ok)
	assert.Same(t, tour, cached)
	_, ok = loader.CachedTour("tour-2")
	assert.False(t, ok)
}

func TestLoaderTourNotFound(t *testing.T) {
	loader, _ := newTestLoader(newFakeSource())

	_, err := loader.Tour(context.Background(), "missing")

	assert.ErrorIs(t, err, model.ErrTourNotFound)
}

func TestLoaderRosterOfUnknownTour(t *testing.T) {
	source := newFakeSource()
	source.playersErr = fmt.Errorf("upstream HTTP 404: %w", model.ErrNotFound)
	loader, _ := newTestLoader(source)

	_, err := loader.FetchRoster(context.Background(), "missing")

	assert.ErrorIs(t, err, model.ErrTourNotFound)
}
