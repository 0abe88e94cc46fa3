// Package trackpool builds the per-room track pool: a public-playlist path
// that fetches from a single source with retry and backoff, and a
// players-liked path that merges opted-in players' personal libraries in
// the background.
package trackpool

import (
	"context"
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/blindtest/roomengine/internal/app/roomerr"
	"github.com/blindtest/roomengine/internal/domain/track"
)

const (
	poolMin = 24
	poolMax = 100

	trackPoolLoadTimeout  = 15 * time.Second
	playersLibraryTimeout = 45 * time.Second

	maxFetchAttempts   = 6
	maxAssembleRetries = 3
	assembleRetryDelay = 900 * time.Millisecond
)

// TrackPoolSource fetches a batch of candidate tracks for a public-playlist
// room. A nil error with fewer than requested tracks signals the upstream is
// exhausted. BuildPublicPlaylist reports any error other than the package's
// resolving/rate-limit sentinels as TRACK_POOL_LOAD_TIMEOUT.
type TrackPoolSource interface {
	Fetch(ctx context.Context, sourceQuery string, requestSize int) ([]track.Track, error)
}

// LibraryFetchParams configures one fetch of a contributor's liked tracks.
type LibraryFetchParams struct {
	UserID               string
	Providers            []track.Provider
	Size                 int
	AllowExternalResolve bool
}

// LibrarySource resolves one player's personal library into candidate
// tracks for the players-liked pool.
type LibrarySource interface {
	FetchUserLikedTracks(ctx context.Context, params LibraryFetchParams) ([]track.Track, error)
}

// BulkSuggestionParams configures one random-ordered bulk fetch of a room's
// combined players-liked library, used to augment answer suggestions.
type BulkSuggestionParams struct {
	// Seed determines the random ordering; callers pass "roomCode:createdAtMs"
	// so repeated calls against the same room return a stable sample.
	Seed    string
	MaxRows int
}

// BulkSuggestionSource resolves a random-ordered sample of contributors'
// combined libraries for roomAnswerSuggestions' players_liked augmentation.
// Distinct from LibrarySource: this is a single bulk query across every
// opted-in player rather than one fetch per contributor.
type BulkSuggestionSource interface {
	FetchBulkSuggestions(ctx context.Context, params BulkSuggestionParams) ([]track.Track, error)
}

// BulkSuggestionMaxRows and BulkSuggestionMaxTotal bound the players_liked
// answer-suggestion augmentation (roomAnswerSuggestions, §4.7).
const (
	BulkSuggestionMaxRows  = 16000
	BulkSuggestionMaxTotal = 24000
)

// BuildResult is a successfully assembled pool split into answer tracks
// (one per round) and extra distractor tracks for MCQ building.
type BuildResult struct {
	AnswerTracks     []track.Track
	DistractorTracks []track.Track
}

// targetCandidateSize computes the geometric-fetch target size (§4.5).
// poolMinSize overrides the reference poolMin floor when positive, wiring
// RoomConfig.PoolMinSize through from the room's engine config; callers that
// pass 0 (e.g. the players-liked job, which has no such knob) get the
// reference default.
func targetCandidateSize(requestedRounds, poolMinSize int) int {
	min := poolMinSize
	if min <= 0 {
		min = poolMin
	}
	target := requestedRounds + 3
	if v := requestedRounds * 5; v > target {
		target = v
	}
	if target < min {
		target = min
	}
	if target > poolMax {
		target = poolMax
	}
	return target
}

// dedupeShuffleSplit shuffles a collected candidate set, deduplicates by
// signature, and splits it into answer/distractor halves per the shared
// rule used by both the public-playlist and players-liked builders.
func dedupeShuffleSplit(collected []track.Track, requestedRounds int) BuildResult {
	shuffled := make([]track.Track, len(collected))
	copy(shuffled, collected)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	seen := make(map[string]bool, len(shuffled))
	var deduped []track.Track
	for _, t := range shuffled {
		sig := t.Signature()
		if seen[sig] {
			continue
		}
		seen[sig] = true
		deduped = append(deduped, t)
	}

	if len(deduped) <= requestedRounds {
		return BuildResult{AnswerTracks: deduped}
	}
	return BuildResult{
		AnswerTracks:     deduped[:requestedRounds],
		DistractorTracks: deduped[requestedRounds:],
	}
}

func filterUsable(tracks []track.Track) []track.Track {
	out := make([]track.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.IsPlayable() && !t.IsPromotional() {
			out = append(out, t)
		}
	}
	return out
}

// deezerResolvingRetryAfterMs is the advisory retry hint for both the
// upstream-signalled and the exhausted-after-retries PLAYLIST_TRACKS_RESOLVING
// paths, per the §8 scenario-4 fixture (retryAfterMs:1500).
const deezerResolvingRetryAfterMs = 1500

// BuildPublicPlaylist implements the Track Pool Builder (public playlist
// path): a geometrically growing fetch loop followed by a bounded number of
// assembly retries when the result falls short of requestedRounds.
// poolMinSize overrides the reference candidate-size floor (0 uses the
// default); pass RoomConfig.PoolMinSize here.
func BuildPublicPlaylist(ctx context.Context, source TrackPoolSource, sourceQuery string, requestedRounds int, isDeezerPlaylist bool, poolMinSize int) (BuildResult, error) {
	target := targetCandidateSize(requestedRounds, poolMinSize)

	for attempt := 0; attempt <= maxAssembleRetries; attempt++ {
		collected, err := collectFromSource(ctx, source, sourceQuery, target)
		if err != nil {
			if isDeezerPlaylist && errors.Is(err, errPlaylistResolving) {
				return BuildResult{}, roomerr.New(roomerr.CodePlaylistTracksResolving).WithRetryAfter(deezerResolvingRetryAfterMs)
			}
			if errors.Is(err, errRateLimited) {
				return BuildResult{}, roomerr.New(roomerr.CodeSpotifyRateLimited).WithRetryAfter(5000)
			}
			return BuildResult{}, roomerr.Wrap(roomerr.CodeTrackPoolLoadTimeout, err, "fetch public playlist candidates")
		}

		result := dedupeShuffleSplit(collected, requestedRounds)
		if len(result.AnswerTracks) >= requestedRounds {
			return result, nil
		}

		zlog.Warn().Msgf("track pool builder: insufficient answer tracks: attempt=%d got=%d want=%d",
			attempt+1, len(result.AnswerTracks), requestedRounds)

		if attempt < maxAssembleRetries {
			select {
			case <-ctx.Done():
				return BuildResult{}, roomerr.Wrap(roomerr.CodeTrackPoolLoadTimeout, ctx.Err(), "context cancelled during assembly retry")
			case <-time.After(assembleRetryDelay):
			}
		}
	}

	// Exhausted every assembly retry still short of requestedRounds: a
	// Deezer playlist source signals this as "not yet resolved upstream"
	// (§8 scenario 4) rather than a final failure; any other source has
	// nothing left to retry.
	if isDeezerPlaylist {
		return BuildResult{}, roomerr.New(roomerr.CodePlaylistTracksResolving).WithRetryAfter(deezerResolvingRetryAfterMs)
	}
	return BuildResult{}, roomerr.New(roomerr.CodeNoTracksFound)
}

// errPlaylistResolving and errRateLimited are unexported sentinels a
// TrackPoolSource implementation inside this package can wrap to signal the
// two retryable upstream conditions;
// collectFromSource classifies on errors.Is against them.
var (
	errPlaylistResolving = errors.New("trackpool: playlist tracks still resolving upstream")
	errRateLimited       = errors.New("trackpool: upstream rate limited")
)

// collectFromSource runs the fetch-filter-dedupe loop described in §4.5:
// up to maxFetchAttempts requests with a geometrically growing size, each
// bounded by trackPoolLoadTimeout, breaking early once the source is
// exhausted or stops contributing new entries.
func collectFromSource(ctx context.Context, source TrackPoolSource, sourceQuery string, target int) ([]track.Track, error) {
	var collected []track.Track
	seen := make(map[string]bool)
	requestSize := target

	for attempt := 0; attempt < maxFetchAttempts && len(collected) < target; attempt++ {
		fetchCtx, cancel := context.WithTimeout(ctx, trackPoolLoadTimeout)
		fetched, err := source.Fetch(fetchCtx, sourceQuery, requestSize)
		cancel()
		if err != nil {
			return nil, err
		}

		usable := filterUsable(fetched)
		before := len(collected)
		for _, t := range usable {
			sig := t.Signature()
			if seen[sig] {
				continue
			}
			seen[sig] = true
			collected = append(collected, t)
		}
		added := len(collected) - before

		exhausted := len(fetched) < requestSize
		stalled := added == 0 && requestSize >= poolMax
		if exhausted || stalled {
			break
		}

		requestSize = nextRequestSize(requestSize)
	}

	return collected, nil
}

func nextRequestSize(current int) int {
	next := current * 2
	if next > poolMax {
		next = poolMax
	}
	if next <= current {
		return poolMax
	}
	return next
}
