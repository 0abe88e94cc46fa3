package roomstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blindtest/roomengine/internal/app/clock"
	"github.com/blindtest/roomengine/internal/app/ids"
	"github.com/blindtest/roomengine/internal/app/roomsession"
	"github.com/blindtest/roomengine/internal/domain/track"
)

type fakeTrackSource struct{ tracks []track.Track }

func (f *fakeTrackSource) Fetch(ctx context.Context, sourceQuery string, requestSize int) ([]track.Track, error) {
	return f.tracks, nil
}

func newTestStore(t *testing.T, trackCount int) *Store {
	t.Helper()
	var tracks []track.Track
	for i := 0; i < trackCount; i++ {
		tracks = append(tracks, track.Track{Provider: track.ProviderSpotify, ID: string(rune('a' + i)), Title: "T" + string(rune('a'+i)), Artist: "A"})
	}
	cfg := roomsession.DefaultConfig()
	cfg.MaxRounds = trackCount
	return New(cfg, Deps{Clock: clock.NewFake(1000), TrackSource: &fakeTrackSource{tracks: tracks}})
}

func TestCreateRoom_ReturnsValidCodeAndSeedsPlaylist(t *testing.T) {
	store := newTestStore(t, 5)
	res, err := store.CreateRoom(CreateRoomParams{IsPublic: true, CategoryQuery: "deezer:playlist:555"})
	require.NoError(t, err)
	assert.True(t, ids.RoomCodePattern.MatchString(res.RoomCode))

	engine, err := store.Get(res.RoomCode)
	require.NoError(t, err)
	snap := engine.Snapshot()
	assert.Equal(t, "deezer:playlist:555", snap.CategoryQuery)
}

func TestGet_UnknownCodeReturnsNotFound(t *testing.T) {
	store := newTestStore(t, 5)
	_, err := store.Get("ZZZZZZ")
	assert.Error(t, err)
}

func TestRemovePlayer_DestroysEmptyRoom(t *testing.T) {
	store := newTestStore(t, 5)
	res, err := store.CreateRoom(CreateRoomParams{IsPublic: true})
	require.NoError(t, err)

	engine, err := store.Get(res.RoomCode)
	require.NoError(t, err)
	join, err := engine.Join("Solo", "u1")
	require.NoError(t, err)

	require.NoError(t, store.RemovePlayer(res.RoomCode, join.PlayerID))
	_, err = store.Get(res.RoomCode)
	assert.Error(t, err)
	assert.Equal(t, 0, store.Count())
}

func TestCreateRoom_CodesAreUnique(t *testing.T) {
	store := newTestStore(t, 5)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		res, err := store.CreateRoom(CreateRoomParams{})
		require.NoError(t, err)
		assert.False(t, seen[res.RoomCode])
		seen[res.RoomCode] = true
	}
	assert.Equal(t, 20, store.Count())
}
