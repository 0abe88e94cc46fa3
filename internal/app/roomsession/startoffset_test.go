package roomsession

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blindtest/roomengine/internal/domain/track"
)

func TestYoutubeStartOffsetSec_NonYoutubeIsZero(t *testing.T) {
	tr := track.Track{Provider: track.ProviderSpotify, ID: "x", DurationSec: 200}
	assert.Zero(t, youtubeStartOffsetSec("ABCDEF", 0, tr))
}

func TestYoutubeStartOffsetSec_ShortTrackIsZero(t *testing.T) {
	tr := track.Track{Provider: track.ProviderYouTube, ID: "x", DurationSec: 44}
	assert.Zero(t, youtubeStartOffsetSec("ABCDEF", 0, tr))
}

func TestYoutubeStartOffsetSec_DeterministicAndInRange(t *testing.T) {
	tr := track.Track{Provider: track.ProviderYouTube, ID: "x", DurationSec: 200}

	first := youtubeStartOffsetSec("ABCDEF", 2, tr)
	second := youtubeStartOffsetSec("ABCDEF", 2, tr)
	assert.Equal(t, first, second)

	assert.GreaterOrEqual(t, first, 18)
	assert.LessOrEqual(t, first, 200-20)
}

func TestDeterministicInt_DegenerateRange(t *testing.T) {
	assert.Equal(t, 5, deterministicInt("seed", 5, 5))
	assert.Equal(t, 5, deterministicInt("seed", 5, 4))
}
