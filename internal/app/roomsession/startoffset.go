package roomsession

import (
	"fmt"
	"hash/fnv"

	"github.com/blindtest/roomengine/internal/domain/track"
)

// youtubeMinPlayableOffsetSec and youtubeEndGuardSec bound the window a
// deterministic start offset is drawn from, per §4.8.
const (
	youtubeMinPlayableOffsetSec = 18
	youtubeEndGuardSec          = 20
)

// deterministicInt hashes seed with FNV-1a and reduces it into [min, max].
// It is stable across calls and processes: same seed always yields the
// same value.
func deterministicInt(seed string, min, max int) int {
	if max <= min {
		return min
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	span := uint64(max - min + 1)
	return min + int(h.Sum64()%span)
}

// youtubeStartOffsetSec computes the §4.8 embed start offset for one round's
// track, or 0 when the track is not a YouTube track long enough to need one.
func youtubeStartOffsetSec(roomCode string, round int, t track.Track) int {
	if t.Provider != track.ProviderYouTube || t.DurationSec < 45 {
		return 0
	}
	seed := fmt.Sprintf("%s:%d:%s", roomCode, round, t.ID)
	return deterministicInt(seed, youtubeMinPlayableOffsetSec, t.DurationSec-youtubeEndGuardSec)
}
