package roomerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(CodePlayersLibrarySyncing))
	assert.True(t, IsRetryable(CodePlaylistTracksResolving))
	assert.True(t, IsRetryable(CodeSpotifyRateLimited))
	assert.False(t, IsRetryable(CodeNoTracksFound))
	assert.False(t, IsRetryable(CodeRoomNotFound))
}

func TestNew_ErrorString(t *testing.T) {
	err := New(CodeRoomNotFound)
	assert.Equal(t, "ROOM_NOT_FOUND", err.Error())
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("upstream exploded")
	err := Wrap(CodeNoTracksFound, cause, "fetch failed")
	assert.Contains(t, err.Error(), "NO_TRACKS_FOUND")
	assert.Contains(t, err.Error(), "fetch failed")
	assert.Contains(t, err.Error(), "upstream exploded")
	assert.ErrorIs(t, err, cause)
}

func TestWithRetryAfter(t *testing.T) {
	err := New(CodePlayersLibrarySyncing).WithRetryAfter(1500)
	assert.EqualValues(t, 1500, err.RetryAfterMs)
}
